package dummydb

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/course"
	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/core/student"
)

var (
	errNoSQL      = errors.New("dummydb: raw SQL is not supported")
	errTxFinished = errors.New("dummydb: transaction has already been committed or rolled back")
)

type (
	// DB is an in-memory store with the same contracts as the SQL repositories.
	// Transactions are serialized with each other. Writes made through a transaction keep an undo
	// log that Rollback replays, so writes made outside the transaction survive it.
	// Primary key sequences are not rolled back, like SQL sequences.
	DB struct {
		mu   sync.RWMutex // guards data & faults
		txMu sync.Mutex   // held for the lifetime of a transaction

		data   tables
		faults map[string]error
		now    func() time.Time
	}

	tables struct {
		courses     map[int]course.Course
		tasks       map[int]course.Task
		students    map[int]student.Student
		completions map[completionKey]course.Completion
		results     map[int]result.Result
		attendance  map[int]attendance.Attendance
		seq         map[string]int // last primary key per table
	}

	completionKey struct {
		studentID int
		taskID    int
	}

	tx struct {
		db   *DB
		undo []func(tables) // guarded by db.mu
		done bool
	}

	// table selects one map of tables.
	table[K comparable, V any] func(tables) map[K]V
)

var (
	coursesTable     table[int, course.Course]               = func(t tables) map[int]course.Course { return t.courses }
	tasksTable       table[int, course.Task]                 = func(t tables) map[int]course.Task { return t.tasks }
	studentsTable    table[int, student.Student]             = func(t tables) map[int]student.Student { return t.students }
	completionsTable table[completionKey, course.Completion] = func(t tables) map[completionKey]course.Completion { return t.completions }
	resultsTable     table[int, result.Result]               = func(t tables) map[int]result.Result { return t.results }
	attendanceTable  table[int, attendance.Attendance]       = func(t tables) map[int]attendance.Attendance { return t.attendance }
)

var (
	_ core.DB           = (*DB)(nil) // interface compliance check
	_ core.DBTransactor = (*tx)(nil)
)

func Open() *DB {
	return &DB{
		data:   newTables(),
		faults: make(map[string]error),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func newTables() tables {
	return tables{
		courses:     make(map[int]course.Course),
		tasks:       make(map[int]course.Task),
		students:    make(map[int]student.Student),
		completions: make(map[completionKey]course.Completion),
		results:     make(map[int]result.Result),
		attendance:  make(map[int]attendance.Attendance),
		seq:         make(map[string]int),
	}
}

// SetClock replaces the clock used for every timestamp the store sets.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

// FailOn makes the next call of the named repository method fail with err.
func (db *DB) FailOn(method string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.faults[method] = err
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data = newTables()
	db.faults = make(map[string]error)
}

// fault pops the error registered for method. Callers hold db.mu.
func (db *DB) fault(method string) error {
	if err, ok := db.faults[method]; ok {
		delete(db.faults, method)
		return err
	}
	return nil
}

// nextID returns the next primary key of table. Callers hold db.mu.
func (db *DB) nextID(table string) int {
	db.data.seq[table]++
	return db.data.seq[table]
}

func (db *DB) BeginTx(ctx context.Context, _ *sql.TxOptions) (core.DBTransactor, error) {
	db.txMu.Lock()
	if err := ctx.Err(); err != nil {
		db.txMu.Unlock()
		return nil, err
	}
	return &tx{db: db}, nil
}

// txOf returns the transaction of db among exec, if any.
func (db *DB) txOf(exec []core.DBExecutor) *tx {
	if len(exec) == 0 {
		return nil
	}
	if t, ok := exec[0].(*tx); ok && t.db == db && !t.done {
		return t
	}
	return nil
}

// keep records the current state of row k so that a rollback of the transaction among exec restores it.
// Callers hold db.mu.
func keep[K comparable, V any](db *DB, exec []core.DBExecutor, tb table[K, V], k K) {
	t := db.txOf(exec)
	if t == nil {
		return
	}
	old, existed := tb(db.data)[k]
	t.undo = append(t.undo, func(data tables) {
		if existed {
			tb(data)[k] = old
		} else {
			delete(tb(data), k)
		}
	})
}

// put writes row k. Callers hold db.mu.
func put[K comparable, V any](db *DB, exec []core.DBExecutor, tb table[K, V], k K, v V) {
	keep(db, exec, tb, k)
	tb(db.data)[k] = v
}

// remove deletes row k. Callers hold db.mu.
func remove[K comparable, V any](db *DB, exec []core.DBExecutor, tb table[K, V], k K) {
	keep(db, exec, tb, k)
	delete(tb(db.data), k)
}

func (db *DB) PingContext(context.Context) error { return nil }

func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

// QueryRowContext is never used by the dummy repositories; a *sql.Row cannot be built outside database/sql.
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return errTxFinished
	}
	t.db.mu.Lock()
	t.undo = nil
	t.db.mu.Unlock()
	t.done = true
	t.db.txMu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return errTxFinished
	}
	t.db.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i](t.db.data)
	}
	t.undo = nil
	t.db.mu.Unlock()
	t.done = true
	t.db.txMu.Unlock()
	return nil
}

func (t *tx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (t *tx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (t *tx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}
