//go:build integration

package sqlxrepos_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/apps/shared"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/storage/database"
	sqlxrepos "github.com/mugilan0610/institute-management-system/storage/database/sqlx"
	"github.com/mugilan0610/institute-management-system/tests"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./storage/database/sqlx/
func setup(t *testing.T) (*database.DB, *shared.Services) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	driver := os.Getenv("TEST_DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	ctx := context.Background()
	db, err := database.OpenURL(ctx, driver, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB.DB))
	_, err = db.ExecContext(ctx, "TRUNCATE attendance, results, student_tasks, tasks, students, courses RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	svcs, err := shared.NewServices(testutil.Config(t), db, shared.SQLRepos(db), nil)
	require.NoError(t, err)
	return db, svcs
}

func newStudent(email string) student.NewStudent {
	return student.NewStudent{Name: "Ann Lee", Email: email, Password: testutil.DefaultPassword, Course: "Data  Science"}
}

func TestRegistration(t *testing.T) {
	ctx := context.Background()
	_, svcs := setup(t)

	reg, err := svcs.Students.Register(ctx, newStudent("ann@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Data Science", reg.Student.CourseName.String)

	tasks, err := svcs.Courses.Tasks(ctx, reg.Student.CourseID.Int, reg.Student.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	results, err := svcs.Results.QueryByStudent(ctx, reg.Student.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = svcs.Students.Register(ctx, newStudent("ANN@example.com"))
	assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
}

func TestRegistration_concurrentEmail(t *testing.T) {
	ctx := context.Background()
	_, svcs := setup(t)

	const n = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svcs.Students.Register(ctx, newStudent("race@example.com"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)

	courses, err := svcs.Courses.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestStudentRepository_uniqueEmail(t *testing.T) {
	ctx := context.Background()
	db, svcs := setup(t)
	reg, err := svcs.Students.Register(ctx, newStudent("ann@example.com"))
	require.NoError(t, err)

	repo := sqlxrepos.NewStudentRepository(db)
	_, err = repo.CreateStudent(ctx, student.Student{Name: "Dup", Email: "ann@example.com", PasswordHash: []byte("x")})
	assert.Equal(t, student.ErrEmailExists, errors.Cause(err))

	bob, err := svcs.Students.Register(ctx, newStudent("bob@example.com"))
	require.NoError(t, err)
	err = repo.UpdateStudent(ctx, bob.Student.ID, student.Changes{Email: null.StringFrom(reg.Student.Email)})
	assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
}

func TestAttendance(t *testing.T) {
	ctx := context.Background()
	_, svcs := setup(t)
	reg, err := svcs.Students.Register(ctx, newStudent("ann@example.com"))
	require.NoError(t, err)

	login, err := svcs.Students.Login(ctx, student.Credentials{Email: "ann@example.com", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	att, already, err := svcs.Attendance.Logout(ctx, login.AttendanceID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, att.LogoutTime.Valid)
	assert.True(t, att.DurationMinutes.Valid)

	again, already, err := svcs.Attendance.Logout(ctx, login.AttendanceID)
	require.NoError(t, err)
	assert.True(t, already)
	assert.True(t, att.LogoutTime.Time.Equal(again.LogoutTime.Time))

	_, _, err = svcs.Attendance.Logout(ctx, 999999)
	assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))

	require.NoError(t, svcs.Students.Delete(ctx, reg.Student.ID))
	history, err := svcs.Attendance.History(ctx, reg.Student.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
