package student

import (
	"context"

	"github.com/trezcool/ecole/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("student")
)

type (
	// Repository is the student side of the document store.
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		ListStudents(ctx context.Context) ([]Student, error)
		// PutStudentBan overwrites the ban fields only; a nil ban clears them.
		PutStudentBan(ctx context.Context, id string, ban *Ban) error
	}

	Service interface {
		GetByID(ctx context.Context, id string) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(id))
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.ListStudents(ctx)
}
