package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core/student"
)

const studentColumns = `id, first_name, last_name, sex, class_id, guardians, status, fee_exempt,
	enrolled_at, ban_reason, ban_date, created_at, updated_at`

type studentRow struct {
	ID         string         `db:"id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Sex        string         `db:"sex"`
	ClassID    string         `db:"class_id"`
	Guardians  types.JSONText `db:"guardians"`
	Status     string         `db:"status"`
	FeeExempt  bool           `db:"fee_exempt"`
	EnrolledAt null.Time      `db:"enrolled_at"`
	BanReason  null.String    `db:"ban_reason"`
	BanDate    null.Time      `db:"ban_date"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func newStudentRow(st student.Student) (studentRow, error) {
	guardians := st.Guardians
	if guardians == nil {
		guardians = []student.Guardian{}
	}
	gs, err := toJSONText(guardians)
	if err != nil {
		return studentRow{}, err
	}
	row := studentRow{
		ID:        st.ID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		Sex:       string(st.Sex),
		ClassID:   st.ClassID,
		Guardians: gs,
		Status:    string(st.Status),
		FeeExempt: st.FeeExempt,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
	if !st.EnrolledAt.IsZero() {
		row.EnrolledAt = null.TimeFrom(st.EnrolledAt)
	}
	if st.Ban != nil {
		row.BanReason = null.StringFrom(st.Ban.Reason)
		row.BanDate = null.TimeFrom(st.Ban.Date)
	}
	return row, nil
}

func (row studentRow) toStudent() (student.Student, error) {
	st := student.Student{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Sex:       student.Sex(row.Sex),
		ClassID:   row.ClassID,
		Status:    student.Status(row.Status),
		FeeExempt: row.FeeExempt,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := fromJSONText(row.Guardians, &st.Guardians); err != nil {
		return student.Student{}, err
	}
	if row.EnrolledAt.Valid {
		st.EnrolledAt = row.EnrolledAt.Time.UTC()
	}
	// both ban columns are set, or neither
	if row.BanReason.Valid || row.BanDate.Valid {
		ban, err := student.NewBan(row.BanReason.String, row.BanDate.Time)
		if err != nil {
			return student.Student{}, errors.Wrapf(err, "student %s", row.ID)
		}
		st.Ban = ban
	}
	return st, nil
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	row, err := newStudentRow(st)
	if err != nil {
		return student.Student{}, err
	}
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :first_name, :last_name, :sex, :class_id, :guardians, :status, :fee_exempt,
			:enrolled_at, :ban_reason, :ban_date, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.toStudent()
}

func (repo *studentRepository) ListStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM students ORDER BY last_name, first_name, id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		st, err := row.toStudent()
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, nil
}

func (repo *studentRepository) PutStudentBan(ctx context.Context, id string, ban *student.Ban) error {
	var reason null.String
	var date null.Time
	if ban != nil {
		reason = null.StringFrom(ban.Reason)
		date = null.TimeFrom(ban.Date)
	}
	q := `UPDATE students SET ban_reason = $1, ban_date = $2, updated_at = NOW() WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, reason, date, id)
	if err != nil {
		return errors.Wrap(err, "updating student ban")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}
