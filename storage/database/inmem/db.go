package inmemdb

import (
	"sync"

	"github.com/aulavirtual/aula/core/attendance"
	"github.com/aulavirtual/aula/core/course"
	"github.com/aulavirtual/aula/core/term"
	"github.com/aulavirtual/aula/core/user"
	identitysvc "github.com/aulavirtual/aula/services/identity"
)

// DB is an in-memory document store with the same per-document semantics as
// the backing store: single-document writes plus one small batched write
// (the active-term switch). Used by tests and local development.
type (
	DB struct {
		user       *userTable
		term       *termTable
		course     *courseTable
		attendance *attendanceTable
		account    *accountTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	termTable struct {
		sync.RWMutex
		table map[string]*term.Term
		// switchFailures makes the next N batched switches fail before any
		// write, simulating a mid-batch abort that leaves no partial state.
		switchFailures int
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	attendanceTable struct {
		sync.RWMutex
		// keyed by courseID, then date
		table map[string]map[string]attendance.Sheet
	}

	accountTable struct {
		sync.RWMutex
		table map[string]identitysvc.Account
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		term:       &termTable{table: make(map[string]*term.Term)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		attendance: &attendanceTable{table: make(map[string]map[string]attendance.Sheet)},
		account:    &accountTable{table: make(map[string]identitysvc.Account)},
	}
	return db, nil
}

// FailNextTermSwitches arms the failure injection hook: the next n batched
// active-term switches abort with a transient error and change nothing.
func (db *DB) FailNextTermSwitches(n int) {
	db.term.Lock()
	defer db.term.Unlock()
	db.term.switchFailures = n
}
