package course

import (
	"time"

	"github.com/mugilan0610/institute-management-system/core"
)

// Course statuses
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusUpcoming  = "Upcoming"
)

// EligibilityThreshold is the minimum completion rate a student needs to be eligible for a course.
const EligibilityThreshold = 0.7

type Course struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Task struct {
	ID          int       `json:"id"`
	CourseID    int       `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Completed   bool      `json:"completed"`
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string
	Description string
}

// Completion records that a student completed a task. There is at most one per (student, task).
type Completion struct {
	StudentID   int       `json:"student_id"`
	TaskID      int       `json:"task_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type Eligibility struct {
	Eligible       bool    `json:"eligible"`
	CompletedTasks int     `json:"completedTasks"`
	TotalTasks     int     `json:"totalTasks"`
	CompletionRate float64 `json:"completionRate"`
}

// NormalizeName trims name and collapses its inner whitespace: "  Data   Science " -> "Data Science".
func NormalizeName(name string) string {
	return core.CollapseSpaces(name)
}

// DefaultTasks returns the tasks seeded for a newly created course.
func DefaultTasks(courseName string) []NewTask {
	return []NewTask{
		{Title: courseName + " Orientation", Description: "Attend the orientation session and review syllabus."},
		{Title: "Complete Module 1", Description: "Finish module 1 and submit the practice quiz."},
		{Title: "Meet Your Mentor", Description: "Schedule a mentor session for goal setting."},
	}
}

// ComputeEligibility derives a student's eligibility from their completed and total task counts.
func ComputeEligibility(completed, total int) Eligibility {
	var rate float64
	if total > 0 {
		rate = float64(completed) / float64(total)
	}
	return Eligibility{
		Eligible:       total > 0 && rate >= EligibilityThreshold,
		CompletedTasks: completed,
		TotalTasks:     total,
		CompletionRate: rate,
	}
}
