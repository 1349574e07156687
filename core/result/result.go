package result

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
)

// Result statuses
const (
	StatusPass = "Pass"
	StatusFail = "Fail"
)

const defaultTotalMarks = 100

type Result struct {
	ID            int       `json:"id"`
	StudentID     int       `json:"student_id"`
	Title         string    `json:"title"`
	MarksObtained int       `json:"marks_obtained"`
	TotalMarks    int       `json:"total_marks"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewResult contains information needed to record a new Result.
type NewResult struct {
	StudentID     int
	Title         string
	MarksObtained int
	TotalMarks    int
	Status        string
}

// Diagnostic is the placeholder result every student gets when registering for a course.
func Diagnostic(studentID int, courseName string) NewResult {
	return NewResult{
		StudentID:     studentID,
		Title:         courseName + " Diagnostic Test",
		MarksObtained: 0,
		TotalMarks:    defaultTotalMarks,
		Status:        StatusFail,
	}
}

type (
	Repository interface {
		CreateResult(ctx context.Context, nr NewResult, exec ...core.DBExecutor) (Result, error)
		// QueryResults returns the results of a student, newest first.
		QueryResults(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Result, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SeedDiagnostic records the diagnostic result of a newly registered student.
func (svc *Service) SeedDiagnostic(ctx context.Context, studentID int, courseName string, exec ...core.DBExecutor) (Result, error) {
	res, err := svc.repo.CreateResult(ctx, Diagnostic(studentID, courseName), exec...)
	return res, errors.Wrap(err, "seeding diagnostic result")
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID int) ([]Result, error) {
	return svc.repo.QueryResults(ctx, studentID)
}
