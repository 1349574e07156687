package student_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/core/session"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/tests"
)

type notifierMock struct {
	mu         sync.Mutex
	registered []student.Student
}

func (n *notifierMock) StudentRegistered(_ context.Context, stu student.Student) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, stu)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	notifier := new(notifierMock)
	env := testutil.NewEnv(t, nil, notifier)

	reg, err := env.Students.Register(ctx, student.NewStudent{
		Name:     " Ann Lee ",
		Email:    "Ann@Example.com",
		Password: testutil.DefaultPassword,
		Course:   "Data  Science",
	})
	require.NoError(t, err)

	stu := reg.Student
	assert.NotZero(t, stu.ID)
	assert.Equal(t, "Ann Lee", stu.Name)
	assert.Equal(t, "ann@example.com", stu.Email)
	assert.Equal(t, null.StringFrom("Data Science"), stu.CourseName)
	assert.True(t, stu.CheckPassword(testutil.DefaultPassword))
	assert.NotEmpty(t, reg.Token)

	claims, err := env.Tokens.Parse(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, stu.ID, claims.StudentID)
	assert.Equal(t, stu.Email, claims.Email)
	if assert.NotNil(t, claims.CourseID) {
		assert.Equal(t, stu.CourseID.Int, *claims.CourseID)
	}

	tasks, err := env.Courses.Tasks(ctx, stu.CourseID.Int, stu.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	results, err := env.Results.QueryByStudent(ctx, stu.ID)
	require.NoError(t, err)
	if assert.Len(t, results, 1) {
		res := results[0]
		assert.Equal(t, "Data Science Diagnostic Test", res.Title)
		assert.Equal(t, 0, res.MarksObtained)
		assert.Equal(t, 100, res.TotalMarks)
		assert.Equal(t, result.StatusFail, res.Status)
	}

	if assert.Len(t, notifier.registered, 1) {
		assert.Equal(t, stu.ID, notifier.registered[0].ID)
	}
}

func TestService_Register_reusesCourse(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)

	ann := env.Register(t, "Ann Lee", "ann@example.com", "Data Science")
	bob := env.Register(t, "Bob Kim", "bob@example.com", "  Data   Science ")
	assert.Equal(t, ann.Student.CourseID, bob.Student.CourseID)

	courses, err := env.Courses.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)

	tasks, err := env.Courses.Tasks(ctx, ann.Student.CourseID.Int, bob.Student.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 3, "tasks are seeded once per course")
}

func TestService_Register_duplicateEmail(t *testing.T) {
	ctx := context.Background()
	notifier := new(notifierMock)
	env := testutil.NewEnv(t, nil, notifier)
	env.Register(t, "Ann Lee", "ann@example.com", "Data Science")

	_, err := env.Students.Register(ctx, student.NewStudent{
		Name:     "Ann Other",
		Email:    " ANN@example.com",
		Password: testutil.DefaultPassword,
		Course:   "Web Development",
	})
	assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
	var conflict *core.ConflictError
	assert.True(t, errors.As(err, &conflict))

	students, err := env.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	courses, err := env.Courses.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1, "the course of a rejected registration is not created")
	assert.Len(t, notifier.registered, 1)
}

func TestService_Register_invalid(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, testutil.PolicyConfig(t), nil)

	tests := []struct {
		name    string
		ns      student.NewStudent
		field   string
		wantMsg string
	}{
		{
			name:    "missing name",
			ns:      student.NewStudent{Email: "a@b.co", Password: testutil.DefaultPassword, Course: "AI"},
			field:   "name",
			wantMsg: "name is required",
		},
		{
			name:  "bad email",
			ns:    student.NewStudent{Name: "Ann", Email: "nope", Password: testutil.DefaultPassword, Course: "AI"},
			field: "email",
		},
		{
			name:  "blank course",
			ns:    student.NewStudent{Name: "Ann", Email: "a@b.co", Password: testutil.DefaultPassword, Course: "   "},
			field: "course",
		},
		{
			name:    "weak password",
			ns:      student.NewStudent{Name: "Ann", Email: "a@b.co", Password: "password1", Course: "AI"},
			field:   "password",
			wantMsg: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Students.Register(ctx, tc.ns)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tc.field, verr.Fields[0].Field)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, verr.Error())
			}
		})
	}

	students, err := env.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestService_Register_rollback(t *testing.T) {
	ctx := context.Background()
	notifier := new(notifierMock)
	env := testutil.NewEnv(t, nil, notifier)

	boom := errors.New("boom")
	env.DB.FailOn("CreateResult", boom)

	_, err := env.Students.Register(ctx, student.NewStudent{
		Name:     "Ann Lee",
		Email:    "ann@example.com",
		Password: testutil.DefaultPassword,
		Course:   "Data Science",
	})
	assert.Equal(t, boom, errors.Cause(err))

	students, err := env.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	courses, err := env.Courses.Query(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Empty(t, notifier.registered)

	// the fault is one-shot: the same registration now goes through
	reg := env.Register(t, "Ann Lee", "ann@example.com", "Data Science")
	assert.NotZero(t, reg.Student.ID)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	reg := env.Register(t, "Ann Lee", "ann@example.com", "Data Science")
	stuID := reg.Student.ID

	tests := []struct {
		name    string
		creds   student.Credentials
		wantErr error
	}{
		{
			name:    "missing password",
			creds:   student.Credentials{Email: "ann@example.com"},
			wantErr: student.ErrCredentialsRequired,
		},
		{
			name:    "missing email",
			creds:   student.Credentials{Password: testutil.DefaultPassword},
			wantErr: student.ErrCredentialsRequired,
		},
		{
			name:    "wrong password",
			creds:   student.Credentials{Email: "ann@example.com", Password: "Wr0ng!pass"},
			wantErr: student.ErrInvalidCredentials,
		},
		{
			name:    "unknown email",
			creds:   student.Credentials{Email: "nobody@example.com", Password: testutil.DefaultPassword},
			wantErr: student.ErrInvalidCredentials,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Students.Login(ctx, tc.creds)
			assert.Equal(t, tc.wantErr, errors.Cause(err))
		})
	}

	history, err := env.Attendance.History(ctx, stuID)
	require.NoError(t, err)
	assert.Empty(t, history, "failed logins record no attendance")

	login, err := env.Students.Login(ctx, student.Credentials{Email: " ANN@example.com ", Password: testutil.DefaultPassword})
	require.NoError(t, err)
	assert.Equal(t, stuID, login.Student.ID)
	assert.NotEmpty(t, login.Token)

	history, err = env.Attendance.History(ctx, stuID)
	require.NoError(t, err)
	if assert.Len(t, history, 1) {
		assert.Equal(t, login.AttendanceID, history[0].ID)
		assert.True(t, history[0].IsOpen())
	}
}

func TestService_Authorize(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	reg := env.Register(t, "Ann Lee", "ann@example.com", "Data Science")

	stu, err := env.Students.Authorize(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Student.ID, stu.ID)

	_, err = env.Students.Authorize(ctx, "")
	assert.Equal(t, session.ErrTokenRequired, errors.Cause(err))

	_, err = env.Students.Authorize(ctx, "not.a.token")
	assert.Equal(t, session.ErrInvalidToken, errors.Cause(err))

	require.NoError(t, env.Students.Delete(ctx, reg.Student.ID))
	_, err = env.Students.Authorize(ctx, reg.Token)
	assert.Equal(t, student.ErrNoLongerExists, errors.Cause(err))
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	ann := env.Register(t, "Ann Lee", "ann@example.com", "Data Science").Student
	bob := env.Register(t, "Bob Kim", "bob@example.com", "Data Science").Student

	t.Run("no fields", func(t *testing.T) {
		changed, err := env.Students.Update(ctx, ann.ID, student.UpdateStudent{})
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("no fields on a missing student", func(t *testing.T) {
		_, err := env.Students.Update(ctx, 9999, student.UpdateStudent{})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("blank field", func(t *testing.T) {
		_, err := env.Students.Update(ctx, ann.ID, student.UpdateStudent{Name: null.StringFrom("   ")})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "name", verr.Fields[0].Field)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := env.Students.Update(ctx, ann.ID, student.UpdateStudent{Email: null.StringFrom("BOB@example.com")})
		assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
	})

	t.Run("missing student", func(t *testing.T) {
		_, err := env.Students.Update(ctx, 9999, student.UpdateStudent{Name: null.StringFrom("Ghost")})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("partial update with a new course", func(t *testing.T) {
		changed, err := env.Students.Update(ctx, ann.ID, student.UpdateStudent{
			Name:   null.StringFrom(" Ann Lee-Park "),
			Course: null.StringFrom("Web   Development"),
		})
		require.NoError(t, err)
		assert.True(t, changed)

		got, err := env.Students.GetByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann Lee-Park", got.Name)
		assert.Equal(t, ann.Email, got.Email, "absent fields are unchanged")
		assert.Equal(t, null.StringFrom("Web Development"), got.CourseName)
		assert.NotEqual(t, bob.CourseID, got.CourseID)

		tasks, err := env.Courses.Tasks(ctx, got.CourseID.Int, ann.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})
}

func TestService_SetPassword(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, testutil.PolicyConfig(t), nil)
	env.Register(t, "Ann Lee", "ann@example.com", "Data Science")

	err := env.Students.SetPassword(ctx, "ann@example.com", "12345678")
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "the password policy applies")
	assert.Equal(t, "password", verr.Fields[0].Field)

	err = env.Students.SetPassword(ctx, "nobody@example.com", "N3w!Passw0rd")
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))

	require.NoError(t, env.Students.SetPassword(ctx, " ANN@example.com", "N3w!Passw0rd"))

	_, err = env.Students.Login(ctx, student.Credentials{Email: "ann@example.com", Password: testutil.DefaultPassword})
	assert.Equal(t, student.ErrInvalidCredentials, errors.Cause(err))
	_, err = env.Students.Login(ctx, student.Credentials{Email: "ann@example.com", Password: "N3w!Passw0rd"})
	assert.NoError(t, err)
}

func TestService_SetPassword_noPolicy(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	env.Register(t, "Ann Lee", "ann@example.com", "Data Science")

	require.NoError(t, env.Students.SetPassword(ctx, "ann@example.com", "12345678"))
}

func TestService_Register_defaultAcceptsAnyPassword(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	require.False(t, env.Conf.Auth.PasswordPolicy, "the policy is opt-in")

	for _, pwd := range []string{"password1", "12345678", "x"} {
		_, err := env.Students.Register(ctx, student.NewStudent{
			Name:     "Ann Lee",
			Email:    pwd + "@example.com",
			Password: pwd,
			Course:   "AI Basics",
		})
		assert.NoError(t, err, pwd)
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, nil, nil)
	reg := env.Register(t, "Ann Lee", "ann@example.com", "Data Science")
	stuID := reg.Student.ID

	_, err := env.Students.Login(ctx, student.Credentials{Email: "ann@example.com", Password: testutil.DefaultPassword})
	require.NoError(t, err)

	require.NoError(t, env.Students.Delete(ctx, stuID))
	require.NoError(t, env.Students.Delete(ctx, stuID), "deleting twice is not an error")

	_, err = env.Students.GetByID(ctx, stuID)
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))

	results, err := env.Results.QueryByStudent(ctx, stuID)
	require.NoError(t, err)
	assert.Empty(t, results)

	history, err := env.Attendance.History(ctx, stuID)
	require.NoError(t, err)
	assert.Empty(t, history)

	// the email can be registered again
	env.Register(t, "Ann Lee", "ann@example.com", "Data Science")
}
