package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ecole/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func copyStudent(st student.Student) student.Student {
	st.Guardians = append([]student.Guardian(nil), st.Guardians...)
	if st.Ban != nil {
		ban := *st.Ban
		st.Ban = &ban
	}
	return st
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st = copyStudent(st)
	repo.db.table[st.ID] = &st
	return copyStudent(st), nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return copyStudent(*st), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) ListStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		students = append(students, copyStudent(*st))
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].LastName != students[j].LastName {
			return students[i].LastName < students[j].LastName
		}
		if students[i].FirstName != students[j].FirstName {
			return students[i].FirstName < students[j].FirstName
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (repo *studentRepository) PutStudentBan(_ context.Context, id string, ban *student.Ban) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	st, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	if ban == nil {
		st.Ban = nil
	} else {
		b := *ban
		st.Ban = &b
	}
	return nil
}
