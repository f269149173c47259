package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

// DB is an in-memory store for tests; it implements no transactions so the
// services skip BeginTx when wired with a nil core.DB.
type (
	DB struct {
		user   *userTable
		school *schoolTables
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	schoolTables struct {
		sync.RWMutex
		teachers    map[string]*school.Teacher
		students    map[string]*school.Student
		subjects    map[string]*school.Subject
		courses     map[string]*school.Course
		exams       map[string]*school.Exam
		assignments map[string]*school.Assignment
		schedules   map[string]*school.Schedule
	}
)

func Open() *DB {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		school: &schoolTables{
			teachers:    make(map[string]*school.Teacher),
			students:    make(map[string]*school.Student),
			subjects:    make(map[string]*school.Subject),
			courses:     make(map[string]*school.Course),
			exams:       make(map[string]*school.Exam),
			assignments: make(map[string]*school.Assignment),
			schedules:   make(map[string]*school.Schedule),
		},
	}
	return db
}
