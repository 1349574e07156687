package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mugilan0610/institute-management-system/apps/shared"
	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/storage/database/dummy"
)

// DefaultPassword satisfies the password policy for the students created by the helpers.
const DefaultPassword = "Secr3t!1"

// Config returns the TEST configuration with the cheapest bcrypt cost.
func Config(t testing.TB) *core.Config {
	t.Helper()
	conf, err := core.LoadConfig("TEST")
	require.NoError(t, err, "LoadConfig(TEST)")
	conf.Auth.BcryptCost = bcrypt.MinCost
	conf.Log.Level = "error"
	return conf
}

// PolicyConfig is Config with the password policy enforced.
func PolicyConfig(t testing.TB) *core.Config {
	t.Helper()
	conf := Config(t)
	conf.Auth.PasswordPolicy = true
	return conf
}

// Env is a fully wired application core on top of an in-memory store.
type Env struct {
	Conf *core.Config
	DB   *dummydb.DB
	*shared.Services
}

// DummyRepos returns every repository backed by db.
func DummyRepos(db *dummydb.DB) shared.Repos {
	return shared.Repos{
		Students:   dummydb.NewStudentRepository(db),
		Courses:    dummydb.NewCourseRepository(db),
		Results:    dummydb.NewResultRepository(db),
		Attendance: dummydb.NewAttendanceRepository(db),
	}
}

// NewEnv wires the services on a fresh in-memory store. notifier may be nil.
func NewEnv(t testing.TB, conf *core.Config, notifier student.Notifier) *Env {
	t.Helper()
	if conf == nil {
		conf = Config(t)
	}
	db := dummydb.Open()
	svcs, err := shared.NewServices(conf, db, DummyRepos(db), notifier)
	require.NoError(t, err, "NewServices()")
	return &Env{Conf: conf, DB: db, Services: svcs}
}

// Register registers a student through the full registration transaction.
func (env *Env) Register(t testing.TB, name, email, course string) student.Registration {
	t.Helper()
	reg, err := env.Students.Register(context.Background(), student.NewStudent{
		Name:     name,
		Email:    email,
		Password: DefaultPassword,
		Course:   course,
	})
	require.NoError(t, err, "Register(%s)", email)
	return reg
}

// Clock is a settable clock for the in-memory store and token manager.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{now: start.UTC()} }

func (c *Clock) Now() time.Time { return c.now }
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *Clock) Set(t time.Time) { c.now = t.UTC() }
