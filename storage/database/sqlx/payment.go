package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/payment"
)

const paymentColumns = `id, student_id, month, amount_due, amount_paid, amount_remaining, status,
	versements, created_at, updated_at`

type paymentRow struct {
	ID              string         `db:"id"`
	StudentID       string         `db:"student_id"`
	Month           string         `db:"month"`
	AmountDue       int64          `db:"amount_due"`
	AmountPaid      int64          `db:"amount_paid"`
	AmountRemaining int64          `db:"amount_remaining"`
	Status          string         `db:"status"`
	Versements      types.JSONText `db:"versements"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func newPaymentRow(rec payment.Record) (paymentRow, error) {
	vs := rec.Versements
	if vs == nil {
		vs = []payment.Versement{}
	}
	col, err := toJSONText(vs)
	if err != nil {
		return paymentRow{}, err
	}
	return paymentRow{
		ID:              rec.ID,
		StudentID:       rec.StudentID,
		Month:           rec.Month.String(),
		AmountDue:       rec.AmountDue,
		AmountPaid:      rec.AmountPaid,
		AmountRemaining: rec.AmountRemaining,
		Status:          string(rec.Status),
		Versements:      col,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}, nil
}

func (row paymentRow) toRecord() (payment.Record, error) {
	rec := payment.Record{
		ID:              row.ID,
		StudentID:       row.StudentID,
		Month:           payment.Month(row.Month),
		AmountDue:       row.AmountDue,
		AmountPaid:      row.AmountPaid,
		AmountRemaining: row.AmountRemaining,
		Status:          payment.Status(row.Status),
		Versements:      []payment.Versement{},
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if err := fromJSONText(row.Versements, &rec.Versements); err != nil {
		return payment.Record{}, err
	}
	return rec, nil
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreateRecord(ctx context.Context, rec payment.Record) (payment.Record, error) {
	row, err := newPaymentRow(rec)
	if err != nil {
		return payment.Record{}, err
	}
	q := `INSERT INTO payment_records (` + paymentColumns + `)
		VALUES (:id, :student_id, :month, :amount_due, :amount_paid, :amount_remaining, :status,
			:versements, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return payment.Record{}, payment.ErrDuplicateRecord
		}
		return payment.Record{}, errors.Wrap(err, "inserting payment record")
	}
	return rec, nil
}

func (repo *paymentRepository) get(ctx context.Context, q string, args ...interface{}) (payment.Record, error) {
	var row paymentRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payment.Record{}, payment.ErrNotFound
		}
		return payment.Record{}, errors.Wrap(err, "selecting payment record")
	}
	return row.toRecord()
}

func (repo *paymentRepository) GetRecord(ctx context.Context, id string) (payment.Record, error) {
	return repo.get(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE id::text = $1`, id)
}

func (repo *paymentRepository) GetRecordByMonth(ctx context.Context, studentID string, month payment.Month) (payment.Record, error) {
	q := `SELECT ` + paymentColumns + ` FROM payment_records WHERE student_id = $1 AND month = $2`
	return repo.get(ctx, q, studentID, month.String())
}

func (repo *paymentRepository) ListRecords(ctx context.Context, studentID string) ([]payment.Record, error) {
	var rows []paymentRow
	q := `SELECT ` + paymentColumns + ` FROM payment_records
		WHERE ($1 = '' OR student_id = $1) ORDER BY month, student_id`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting payment records")
	}
	recs := make([]payment.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UpdateRecord locks the row for the duration of fn.
func (repo *paymentRepository) UpdateRecord(ctx context.Context, id string, fn func(*payment.Record) error) (payment.Record, error) {
	var rec payment.Record
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row paymentRow
		q := `SELECT ` + paymentColumns + ` FROM payment_records WHERE id::text = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return payment.ErrNotFound
			}
			return errors.Wrap(err, "selecting payment record")
		}
		var err error
		if rec, err = row.toRecord(); err != nil {
			return err
		}
		if err = fn(&rec); err != nil {
			return err
		}
		rec.ID = row.ID

		if row, err = newPaymentRow(rec); err != nil {
			return err
		}
		q = `UPDATE payment_records SET amount_due = :amount_due, amount_paid = :amount_paid,
			amount_remaining = :amount_remaining, status = :status, versements = :versements, updated_at = :updated_at
			WHERE id = :id`
		_, err = tx.NamedExecContext(ctx, q, row)
		return errors.Wrap(err, "updating payment record")
	})
	if err != nil {
		return payment.Record{}, err
	}
	return rec, nil
}
