package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/course"
	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/core/session"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/storage/database"
	sqlxrepos "github.com/mugilan0610/institute-management-system/storage/database/sqlx"
)

type (
	// Repos are the storage implementations the services run on.
	Repos struct {
		Students   student.Repository
		Courses    course.Repository
		Results    result.Repository
		Attendance attendance.Repository
	}

	// Services is the application core, wired once per process.
	Services struct {
		Validate   *validator.Validate
		Translator ut.Translator
		Tokens     *session.Manager
		Courses    *course.Service
		Results    *result.Service
		Attendance *attendance.Service
		Students   *student.Service
	}
)

func SQLRepos(db *database.DB) Repos {
	return Repos{
		Students:   sqlxrepos.NewStudentRepository(db),
		Courses:    sqlxrepos.NewCourseRepository(db),
		Results:    sqlxrepos.NewResultRepository(db),
		Attendance: sqlxrepos.NewAttendanceRepository(db),
	}
}

// NewServices wires the core services. notifier may be nil.
func NewServices(conf *core.Config, db core.DB, repos Repos, notifier student.Notifier) (*Services, error) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator, conf.Auth.PasswordPolicy)

	svcs := &Services{
		Validate:   validate,
		Translator: translator,
		Tokens:     session.NewManager(conf),
		Courses:    course.NewService(repos.Courses, conf),
		Results:    result.NewService(repos.Results),
		Attendance: attendance.NewService(repos.Attendance),
	}

	var err error
	svcs.Students, err = student.NewService(student.Deps{
		Conf:       conf,
		DB:         db,
		Repo:       repos.Students,
		Courses:    svcs.Courses,
		Results:    svcs.Results,
		Attendance: svcs.Attendance,
		Tokens:     svcs.Tokens,
		Notifier:   notifier,
		Validate:   validate,
		Translator: translator,
	})
	if err != nil {
		return nil, err
	}
	return svcs, nil
}
