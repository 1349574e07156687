package student

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/core/course"
	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/core/session"
)

var (
	// errors
	ErrNotFound            = core.NewNotFoundError(errors.New("Student not found."))
	ErrEmailExists         = core.NewConflictError(errors.New("Email is already registered."))
	ErrInvalidCredentials  = core.NewAuthError(errors.New("Invalid credentials."))
	ErrCredentialsRequired = core.NewValidationError(errors.New("Email and password are required."))
	ErrNoLongerExists      = core.NewAuthError(errors.New("User no longer exists."))

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error)
		// CreateStudent inserts stu and returns it with its ID set. A duplicate email yields ErrEmailExists.
		CreateStudent(ctx context.Context, stu Student, exec ...core.DBExecutor) (Student, error)
		// GetStudent returns the student joined with its course name.
		GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		GetStudentByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Student, error)
		// QueryStudents returns all students, newest first.
		QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]Student, error)
		// UpdateStudent applies ch to the student. A missing student yields ErrNotFound.
		UpdateStudent(ctx context.Context, id int, ch Changes, exec ...core.DBExecutor) error
		SetPasswordHash(ctx context.Context, id int, hash []byte, exec ...core.DBExecutor) error
		// DeleteStudent removes the student and, by cascade, their attendance, results and completions.
		DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	// Notifier announces student events out of band. Implementations must not block the caller.
	Notifier interface {
		StudentRegistered(ctx context.Context, stu Student)
	}

	Deps struct {
		Conf       *core.Config
		DB         core.DB
		Repo       Repository
		Courses    *course.Service
		Results    *result.Service
		Attendance *attendance.Service
		Tokens     *session.Manager
		Notifier   Notifier
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Service struct {
		db         core.DB
		repo       Repository
		courses    *course.Service
		results    *result.Service
		attendance *attendance.Service
		tokens     *session.Manager
		notifier   Notifier
		validate   *validator.Validate
		translator ut.Translator
		bcryptCost int
		autoSeed   bool
		policy     bool
		dummyHash  []byte
	}
)

func NewService(deps Deps) (*Service, error) {
	// compared against on unknown emails so both login failures take as long
	dummyHash, err := HashPassword("not-a-real-password", deps.Conf.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:         deps.DB,
		repo:       deps.Repo,
		courses:    deps.Courses,
		results:    deps.Results,
		attendance: deps.Attendance,
		tokens:     deps.Tokens,
		notifier:   deps.Notifier,
		validate:   deps.Validate,
		translator: deps.Translator,
		bcryptCost: deps.Conf.Auth.BcryptCost,
		autoSeed:   deps.Conf.Registration.AutoSeed,
		policy:     deps.Conf.Auth.PasswordPolicy,
		dummyHash:  dummyHash,
	}, nil
}

// Register creates a student, resolving or creating their course, in a single transaction.
// Nothing is written when any step fails.
func (svc *Service) Register(ctx context.Context, ns NewStudent) (Registration, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Registration{}, svc.validationError(err)
	}
	hash, err := HashPassword(ns.Password, svc.bcryptCost)
	if err != nil {
		return Registration{}, err
	}

	var id int
	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		exists, err := svc.repo.EmailExists(ctx, ns.Email, tx)
		if err != nil {
			return errors.Wrap(err, "checking email")
		}
		if exists {
			return ErrEmailExists
		}

		crs, err := svc.courses.Ensure(ctx, ns.Course, tx)
		if err != nil {
			return errors.Wrap(err, "resolving course")
		}

		stu, err := svc.repo.CreateStudent(ctx, Student{
			Name:         ns.Name,
			Email:        ns.Email,
			CourseID:     null.IntFrom(crs.ID),
			PasswordHash: hash,
			CreatedAt:    NowFunc(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating student")
		}

		if svc.autoSeed {
			if _, err = svc.results.SeedDiagnostic(ctx, stu.ID, crs.Name, tx); err != nil {
				return err
			}
		}
		id = stu.ID
		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	stu, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Registration{}, errors.Wrap(err, "reading registered student")
	}
	token, err := svc.issueToken(stu)
	if err != nil {
		return Registration{}, err
	}

	if svc.notifier != nil {
		svc.notifier.StudentRegistered(ctx, stu)
	}
	return Registration{Student: stu, Token: token}, nil
}

// Login verifies the credentials, records an attendance check-in and issues a session token.
// An unknown email and a wrong password fail the same way.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Login, error) {
	if err := creds.Validate(); err != nil {
		return Login{}, err
	}

	stu, err := svc.repo.GetStudentByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			CheckPassword(svc.dummyHash, creds.Password)
			return Login{}, ErrInvalidCredentials
		}
		return Login{}, errors.Wrap(err, "finding student by email")
	}
	if !stu.CheckPassword(creds.Password) {
		return Login{}, ErrInvalidCredentials
	}

	att, err := svc.attendance.Start(ctx, stu.ID)
	if err != nil {
		return Login{}, err
	}
	token, err := svc.issueToken(stu)
	if err != nil {
		return Login{}, err
	}
	return Login{Student: stu, Token: token, AttendanceID: att.ID}, nil
}

// Authorize resolves a session token to the student it was issued for.
func (svc *Service) Authorize(ctx context.Context, token string) (Student, error) {
	claims, err := svc.tokens.Parse(token)
	if err != nil {
		return Student{}, err
	}
	stu, err := svc.repo.GetStudent(ctx, claims.StudentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Student{}, ErrNoLongerExists
		}
		return Student{}, errors.Wrap(err, "finding token student")
	}
	return stu, nil
}

// validationError turns validator errors into a ValidationError keyed by JSON field.
func (svc *Service) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 || svc.translator == nil {
		return err
	}
	flds := core.TranslateFieldErrors(verrs, svc.translator)
	return core.NewValidationError(errors.New(flds[0].Error), flds...)
}

func (svc *Service) issueToken(stu Student) (string, error) {
	id := session.Identity{StudentID: stu.ID, Email: stu.Email}
	if stu.CourseID.Valid {
		id.CourseID = &stu.CourseID.Int
	}
	return svc.tokens.Issue(id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Student, error) {
	return svc.repo.GetStudentByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Update applies the provided fields of uu to a student. changed is false when uu carries no field.
func (svc *Service) Update(ctx context.Context, id int, uu UpdateStudent) (changed bool, err error) {
	if err = uu.Validate(svc.validate); err != nil {
		return false, err
	}
	if uu.IsEmpty() {
		if _, err = svc.repo.GetStudent(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		ch := Changes{Name: uu.Name, Email: uu.Email}
		if uu.Course.Valid {
			crs, err := svc.courses.Ensure(ctx, uu.Course.String, tx)
			if err != nil {
				return errors.Wrap(err, "resolving course")
			}
			ch.CourseID = null.IntFrom(crs.ID)
		}
		return svc.repo.UpdateStudent(ctx, id, ch, tx)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPassword replaces the password of the student with the given email.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	stu, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if svc.policy {
		if tag := CheckPasswordPolicy(pwd, stu.Name, stu.Email); tag != "" {
			return policyError(tag)
		}
	}
	if err = stu.SetPassword(pwd, svc.bcryptCost); err != nil {
		return err
	}
	return svc.repo.SetPasswordHash(ctx, stu.ID, stu.PasswordHash)
}

// Delete removes a student. Deleting a missing student is not an error.
func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteStudent(ctx, id)
}
