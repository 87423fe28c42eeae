package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecole/core/discipline"
)

type disciplineRepository struct {
	db *disciplineTable
}

var _ discipline.Repository = (*disciplineRepository)(nil)

func NewDisciplineRepository(db *DB) discipline.Repository {
	return &disciplineRepository{db: db.discipline}
}

func (repo *disciplineRepository) AppendRecord(_ context.Context, rec discipline.Record) (discipline.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *disciplineRepository) ListRecords(_ context.Context, studentID string) ([]discipline.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]discipline.Record, 0)
	for _, rec := range repo.db.table {
		if studentID == "" || rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}

func (repo *disciplineRepository) GetRecord(_ context.Context, id string) (discipline.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return discipline.Record{}, discipline.ErrNotFound
}

func (repo *disciplineRepository) DeleteRecord(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return discipline.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
