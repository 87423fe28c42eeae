package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core/discipline"
)

const disciplineColumns = `id, student_id, type, description, motif, sanction, is_system, created_at`

type disciplineRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	Type        string      `db:"type"`
	Description string      `db:"description"`
	Motif       null.String `db:"motif"`
	Sanction    null.String `db:"sanction"`
	IsSystem    bool        `db:"is_system"`
	CreatedAt   time.Time   `db:"created_at"`
}

func optString(s string) null.String {
	return null.NewString(s, s != "")
}

func (row disciplineRow) toRecord() discipline.Record {
	return discipline.Record{
		ID:          row.ID,
		StudentID:   row.StudentID,
		Type:        discipline.Type(row.Type),
		Description: row.Description,
		Motif:       row.Motif.String,
		Sanction:    row.Sanction.String,
		IsSystem:    row.IsSystem,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type disciplineRepository struct {
	db *sqlx.DB
}

var _ discipline.Repository = (*disciplineRepository)(nil)

func NewDisciplineRepository(db *sqlx.DB) discipline.Repository {
	return &disciplineRepository{db: db}
}

func (repo *disciplineRepository) AppendRecord(ctx context.Context, rec discipline.Record) (discipline.Record, error) {
	row := disciplineRow{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		Type:        string(rec.Type),
		Description: rec.Description,
		Motif:       optString(rec.Motif),
		Sanction:    optString(rec.Sanction),
		IsSystem:    rec.IsSystem,
		CreatedAt:   rec.CreatedAt,
	}
	q := `INSERT INTO discipline_records (` + disciplineColumns + `)
		VALUES (:id, :student_id, :type, :description, :motif, :sanction, :is_system, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return discipline.Record{}, errors.Wrap(err, "inserting discipline record")
	}
	return rec, nil
}

func (repo *disciplineRepository) ListRecords(ctx context.Context, studentID string) ([]discipline.Record, error) {
	var rows []disciplineRow
	q := `SELECT ` + disciplineColumns + ` FROM discipline_records
		WHERE ($1 = '' OR student_id = $1) ORDER BY created_at DESC, id`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting discipline records")
	}
	recs := make([]discipline.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (repo *disciplineRepository) GetRecord(ctx context.Context, id string) (discipline.Record, error) {
	var row disciplineRow
	q := `SELECT ` + disciplineColumns + ` FROM discipline_records WHERE id::text = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return discipline.Record{}, discipline.ErrNotFound
		}
		return discipline.Record{}, errors.Wrap(err, "selecting discipline record")
	}
	return row.toRecord(), nil
}

func (repo *disciplineRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM discipline_records WHERE id::text = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting discipline record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return discipline.ErrNotFound
	}
	return nil
}
