package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/attendance"
)

type (
	rollCallRow struct {
		SessionID  string    `db:"session_id"`
		ClassID    string    `db:"class_id"`
		Date       time.Time `db:"date"`
		RecordedAt time.Time `db:"recorded_at"`
	}

	entryRow struct {
		SessionID   string         `db:"session_id"`
		ClassID     string         `db:"class_id"`
		Date        time.Time      `db:"date"`
		StudentID   string         `db:"student_id"`
		Status      string         `db:"status"`
		MinutesLate int            `db:"minutes_late"`
		Billable    bool           `db:"billable"`
		Standing    types.JSONText `db:"standing"`
		Position    int            `db:"position"`
	}
)

const dateLayout = "2006-01-02"

func (row entryRow) toSessionEntry() (attendance.SessionEntry, error) {
	se := attendance.SessionEntry{
		SessionID: row.SessionID,
		ClassID:   row.ClassID,
		Date:      row.Date.Format(dateLayout),
		Entry: attendance.Entry{
			StudentID:   row.StudentID,
			Status:      attendance.Status(row.Status),
			MinutesLate: row.MinutesLate,
			Billable:    row.Billable,
		},
	}
	if err := fromJSONText(row.Standing, &se.Standing); err != nil {
		return attendance.SessionEntry{}, err
	}
	return se, nil
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// PutRollCall replaces the roll-call and all of its entries in one transaction.
func (repo *attendanceRepository) PutRollCall(ctx context.Context, rc attendance.RollCall) error {
	date, err := time.Parse(dateLayout, rc.Date)
	if err != nil {
		return errors.Wrap(err, "parsing roll-call date")
	}

	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO roll_calls (session_id, class_id, date, recorded_at)
			VALUES (:session_id, :class_id, :date, :recorded_at)
			ON CONFLICT (session_id) DO UPDATE
			SET class_id = EXCLUDED.class_id, date = EXCLUDED.date, recorded_at = EXCLUDED.recorded_at`
		row := rollCallRow{SessionID: rc.SessionID, ClassID: rc.ClassID, Date: date, RecordedAt: rc.RecordedAt}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "upserting roll-call")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM roll_call_entries WHERE session_id = $1`, rc.SessionID); err != nil {
			return errors.Wrap(err, "deleting roll-call entries")
		}

		q = `INSERT INTO roll_call_entries (session_id, student_id, status, minutes_late, billable, standing, position)
			VALUES (:session_id, :student_id, :status, :minutes_late, :billable, :standing, :position)`
		for i, e := range rc.Entries {
			standing, err := toJSONText(e.Standing)
			if err != nil {
				return err
			}
			er := entryRow{
				SessionID:   rc.SessionID,
				StudentID:   e.StudentID,
				Status:      string(e.Status),
				MinutesLate: e.MinutesLate,
				Billable:    e.Billable,
				Standing:    standing,
				Position:    i,
			}
			if _, err := tx.NamedExecContext(ctx, q, er); err != nil {
				return errors.Wrap(err, "inserting roll-call entry")
			}
		}
		return nil
	})
}

func (repo *attendanceRepository) GetRollCall(ctx context.Context, sessionID string) (attendance.RollCall, error) {
	var row rollCallRow
	q := `SELECT session_id, class_id, date, recorded_at FROM roll_calls WHERE session_id = $1`
	if err := repo.db.GetContext(ctx, &row, q, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.RollCall{}, attendance.ErrNotFound
		}
		return attendance.RollCall{}, errors.Wrap(err, "selecting roll-call")
	}

	entries, err := repo.listEntries(ctx, `WHERE e.session_id = $1 ORDER BY e.position`, sessionID)
	if err != nil {
		return attendance.RollCall{}, err
	}
	rc := attendance.RollCall{
		SessionID:  row.SessionID,
		ClassID:    row.ClassID,
		Date:       row.Date.Format(dateLayout),
		Entries:    make([]attendance.Entry, 0, len(entries)),
		RecordedAt: row.RecordedAt.UTC(),
	}
	for _, se := range entries {
		rc.Entries = append(rc.Entries, se.Entry)
	}
	return rc, nil
}

func (repo *attendanceRepository) ListEntries(ctx context.Context, studentID string) ([]attendance.SessionEntry, error) {
	return repo.listEntries(ctx, `WHERE ($1 = '' OR e.student_id = $1) ORDER BY r.date, r.session_id, e.position`, studentID)
}

func (repo *attendanceRepository) listEntries(ctx context.Context, where string, args ...interface{}) ([]attendance.SessionEntry, error) {
	var rows []entryRow
	q := `SELECT e.session_id, r.class_id, r.date, e.student_id, e.status, e.minutes_late, e.billable, e.standing, e.position
		FROM roll_call_entries e JOIN roll_calls r ON r.session_id = e.session_id ` + where
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting roll-call entries")
	}
	entries := make([]attendance.SessionEntry, 0, len(rows))
	for _, row := range rows {
		se, err := row.toSessionEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, se)
	}
	return entries, nil
}
