package inmemdb

import (
	"sync"

	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
)

type (
	// DB is a process-local store, used for development and tests.
	DB struct {
		student    *studentTable
		payment    *paymentTable
		rollCall   *rollCallTable
		discipline *disciplineTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*payment.Record
	}

	rollCallTable struct {
		sync.RWMutex
		table map[string]*attendance.RollCall
	}

	disciplineTable struct {
		sync.RWMutex
		table map[string]*discipline.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:    &studentTable{table: make(map[string]*student.Student)},
		payment:    &paymentTable{table: make(map[string]*payment.Record)},
		rollCall:   &rollCallTable{table: make(map[string]*attendance.RollCall)},
		discipline: &disciplineTable{table: make(map[string]*discipline.Record)},
	}
	return db, nil
}
