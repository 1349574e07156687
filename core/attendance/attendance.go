package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
)

// HistoryLimit is the number of records returned by History.
const HistoryLimit = 30

var (
	// errors
	ErrNotFound = core.NewNotFoundError(errors.New("Attendance record not found."))
)

// Attendance is a check-in of a student. It is OPEN until LogoutTime is set, then CLOSED for good.
type Attendance struct {
	ID              int       `json:"id"`
	StudentID       int       `json:"student_id"`
	LoginTime       time.Time `json:"login_time"`
	LogoutTime      null.Time `json:"logout_time"`
	DurationMinutes null.Int  `json:"duration_minutes"`
	CreatedAt       time.Time `json:"-"`
}

func (a Attendance) IsOpen() bool { return !a.LogoutTime.Valid }

// DurationMinutes returns the whole minutes elapsed between login and logout.
func DurationMinutes(login, logout time.Time) int {
	if logout.Before(login) {
		return 0
	}
	return int(logout.Sub(login) / time.Minute)
}

type (
	Repository interface {
		// CreateAttendance opens a check-in for a student, stamped with the store's clock.
		CreateAttendance(ctx context.Context, studentID int, exec ...core.DBExecutor) (Attendance, error)
		// CloseAttendance moves an OPEN check-in to CLOSED, computing its duration from the store's clock.
		// When it is CLOSED already it is returned unchanged with closed set to false.
		CloseAttendance(ctx context.Context, id int, exec ...core.DBExecutor) (att Attendance, closed bool, err error)
		// QueryAttendance returns at most limit check-ins of a student, latest login first.
		QueryAttendance(ctx context.Context, studentID, limit int, exec ...core.DBExecutor) ([]Attendance, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Start(ctx context.Context, studentID int, exec ...core.DBExecutor) (Attendance, error) {
	att, err := svc.repo.CreateAttendance(ctx, studentID, exec...)
	return att, errors.Wrap(err, "creating attendance")
}

// Logout closes a check-in. Logging out a closed check-in is a no-op reported through alreadyClosed.
func (svc *Service) Logout(ctx context.Context, id int) (att Attendance, alreadyClosed bool, err error) {
	att, closed, err := svc.repo.CloseAttendance(ctx, id)
	if err != nil {
		return Attendance{}, false, errors.Wrap(err, "closing attendance")
	}
	return att, !closed, nil
}

// History returns the latest check-ins of a student.
func (svc *Service) History(ctx context.Context, studentID int) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, studentID, HistoryLimit)
}
