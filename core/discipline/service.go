package discipline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/student"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound     = core.NewNotFoundError("discipline record")
	ErrSystemRecord = errors.New("system records cannot be deleted")
)

type (
	Repository interface {
		AppendRecord(ctx context.Context, rec Record) (Record, error)
		// ListRecords returns the records of a student, newest first.
		ListRecords(ctx context.Context, studentID string) ([]Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, nr NewRecord) (Record, error)
		// System files a record on behalf of the school, e.g. when a student gets banned.
		System(ctx context.Context, studentID string, typ Type, description, motif, sanction string) (Record, error)
		List(ctx context.Context, studentID string) ([]Record, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo     Repository
		students student.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Repository) Service {
	return &service{repo: repo, students: students}
}

func (svc *service) Create(ctx context.Context, nr NewRecord) (Record, error) {
	if err := nr.Validate(); err != nil {
		return Record{}, err
	}
	if _, err := svc.students.GetStudent(ctx, nr.StudentID); err != nil {
		return Record{}, errors.Wrap(err, "getting student")
	}
	return svc.append(ctx, Record{
		StudentID:   nr.StudentID,
		Type:        nr.Type,
		Description: nr.Description,
		Motif:       nr.Motif,
		Sanction:    nr.Sanction,
	})
}

func (svc *service) System(ctx context.Context, studentID string, typ Type, description, motif, sanction string) (Record, error) {
	return svc.append(ctx, Record{
		StudentID:   studentID,
		Type:        typ,
		Description: description,
		Motif:       motif,
		Sanction:    sanction,
		IsSystem:    true,
	})
}

func (svc *service) append(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = NowFunc().UTC()
	rec, err := svc.repo.AppendRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "appending discipline record")
	}
	return rec, nil
}

func (svc *service) List(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.ListRecords(ctx, core.CleanString(studentID))
}

// Delete removes a hand-filed record.
func (svc *service) Delete(ctx context.Context, id string) error {
	rec, err := svc.repo.GetRecord(ctx, core.CleanString(id))
	if err != nil {
		return err
	}
	if rec.IsSystem {
		return core.NewValidationError(ErrSystemRecord, core.FieldError{Field: "id", Error: ErrSystemRecord.Error()})
	}
	return svc.repo.DeleteRecord(ctx, rec.ID)
}
