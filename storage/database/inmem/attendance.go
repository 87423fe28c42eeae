package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecole/core/attendance"
)

type attendanceRepository struct {
	db *rollCallTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.rollCall}
}

func copyRollCall(rc attendance.RollCall) attendance.RollCall {
	rc.Entries = append([]attendance.Entry{}, rc.Entries...)
	return rc
}

func (repo *attendanceRepository) PutRollCall(_ context.Context, rc attendance.RollCall) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rc = copyRollCall(rc)
	repo.db.table[rc.SessionID] = &rc
	return nil
}

func (repo *attendanceRepository) GetRollCall(_ context.Context, sessionID string) (attendance.RollCall, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rc, ok := repo.db.table[sessionID]; ok {
		return copyRollCall(*rc), nil
	}
	return attendance.RollCall{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) ListEntries(_ context.Context, studentID string) ([]attendance.SessionEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]attendance.SessionEntry, 0)
	for _, rc := range repo.db.table {
		for _, e := range rc.Entries {
			if studentID == "" || e.StudentID == studentID {
				entries = append(entries, attendance.SessionEntry{
					SessionID: rc.SessionID,
					ClassID:   rc.ClassID,
					Date:      rc.Date,
					Entry:     e,
				})
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].SessionID < entries[j].SessionID
	})
	return entries, nil
}
