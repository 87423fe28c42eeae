package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecole/core/payment"
)

type paymentRepository struct {
	db *paymentTable
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment}
}

func copyRecord(rec payment.Record) payment.Record {
	rec.Versements = append([]payment.Versement{}, rec.Versements...)
	return rec
}

func (repo *paymentRepository) CreateRecord(_ context.Context, rec payment.Record) (payment.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, r := range repo.db.table {
		if r.StudentID == rec.StudentID && r.Month == rec.Month {
			return payment.Record{}, payment.ErrDuplicateRecord
		}
	}
	rec = copyRecord(rec)
	repo.db.table[rec.ID] = &rec
	return copyRecord(rec), nil
}

func (repo *paymentRepository) GetRecord(_ context.Context, id string) (payment.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return copyRecord(*rec), nil
	}
	return payment.Record{}, payment.ErrNotFound
}

func (repo *paymentRepository) GetRecordByMonth(_ context.Context, studentID string, month payment.Month) (payment.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.StudentID == studentID && rec.Month == month {
			return copyRecord(*rec), nil
		}
	}
	return payment.Record{}, payment.ErrNotFound
}

func (repo *paymentRepository) ListRecords(_ context.Context, studentID string) ([]payment.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]payment.Record, 0)
	for _, rec := range repo.db.table {
		if studentID == "" || rec.StudentID == studentID {
			recs = append(recs, copyRecord(*rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Month != recs[j].Month {
			return recs[i].Month < recs[j].Month
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

func (repo *paymentRepository) UpdateRecord(_ context.Context, id string, fn func(*payment.Record) error) (payment.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return payment.Record{}, payment.ErrNotFound
	}
	rec := copyRecord(*stored)
	if err := fn(&rec); err != nil {
		return payment.Record{}, err
	}
	rec.ID = id
	repo.db.table[id] = &rec
	return copyRecord(rec), nil
}
