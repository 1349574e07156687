package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError(errors.New("Course not found."))
	ErrTaskNotFound = core.NewNotFoundError(errors.New("Task not found."))
	ErrNameRequired = core.NewValidationError(nil, core.FieldError{Field: "course", Error: "course is required"})
)

type (
	Repository interface {
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		GetCourseByName(ctx context.Context, name string, exec ...core.DBExecutor) (Course, error)
		// CreateCourseIfNotExist inserts a course named name unless it exists already.
		// created reports whether this call inserted it; concurrent callers see exactly one creation.
		CreateCourseIfNotExist(ctx context.Context, name string, exec ...core.DBExecutor) (crs Course, created bool, err error)
		QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)

		CountTasks(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error)
		CreateTasks(ctx context.Context, courseID int, tasks []NewTask, exec ...core.DBExecutor) ([]Task, error)
		QueryTasks(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Task, error)
		GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (Task, error)

		// CompleteTask upserts the (student, task) completion, refreshing completed_at when it exists.
		CompleteTask(ctx context.Context, studentID, taskID int, exec ...core.DBExecutor) (Completion, error)
		CompletedTaskIDs(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error)
		CountCompletedTasks(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo     Repository
		autoSeed bool
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, autoSeed: conf.Registration.AutoSeed}
}

// Ensure resolves the course by its normalized name, creating it when absent.
// A course created here gets the default tasks when auto-seeding is on.
func (svc *Service) Ensure(ctx context.Context, name string, exec ...core.DBExecutor) (Course, error) {
	name = NormalizeName(name)
	if name == "" {
		return Course{}, ErrNameRequired
	}

	crs, created, err := svc.repo.CreateCourseIfNotExist(ctx, name, exec...)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	if created && svc.autoSeed {
		if err = svc.seedDefaults(ctx, crs, exec...); err != nil {
			return Course{}, err
		}
	}
	return crs, nil
}

func (svc *Service) seedDefaults(ctx context.Context, crs Course, exec ...core.DBExecutor) error {
	count, err := svc.repo.CountTasks(ctx, crs.ID, exec...)
	if err != nil {
		return errors.Wrap(err, "counting course tasks")
	}
	if count > 0 {
		return nil
	}
	if _, err = svc.repo.CreateTasks(ctx, crs.ID, DefaultTasks(crs.Name), exec...); err != nil {
		return errors.Wrap(err, "seeding course tasks")
	}
	return nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetByName(ctx context.Context, name string) (Course, error) {
	return svc.repo.GetCourseByName(ctx, NormalizeName(name))
}

// Query returns all courses, newest first.
func (svc *Service) Query(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

// Tasks returns the tasks of a course, oldest first, flagged as completed for the given student.
func (svc *Service) Tasks(ctx context.Context, courseID, studentID int) ([]Task, error) {
	tasks, err := svc.repo.QueryTasks(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	if studentID <= 0 || len(tasks) == 0 {
		return tasks, nil
	}

	doneIDs, err := svc.repo.CompletedTaskIDs(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying completed tasks")
	}
	done := make(map[int]struct{}, len(doneIDs))
	for _, id := range doneIDs {
		done[id] = struct{}{}
	}
	for i := range tasks {
		_, tasks[i].Completed = done[tasks[i].ID]
	}
	return tasks, nil
}

// CompleteTask marks a task as completed by a student. Completing it again refreshes the timestamp.
func (svc *Service) CompleteTask(ctx context.Context, studentID, taskID int) (Completion, error) {
	if _, err := svc.repo.GetTask(ctx, taskID); err != nil {
		return Completion{}, errors.Wrap(err, "finding task")
	}
	cpl, err := svc.repo.CompleteTask(ctx, studentID, taskID)
	if err != nil {
		return Completion{}, errors.Wrap(err, "completing task")
	}
	return cpl, nil
}

// Eligibility reports whether a student completed enough of a course's tasks.
func (svc *Service) Eligibility(ctx context.Context, courseID, studentID int) (Eligibility, error) {
	total, err := svc.repo.CountTasks(ctx, courseID)
	if err != nil {
		return Eligibility{}, errors.Wrap(err, "counting tasks")
	}
	completed, err := svc.repo.CountCompletedTasks(ctx, studentID, courseID)
	if err != nil {
		return Eligibility{}, errors.Wrap(err, "counting completed tasks")
	}
	return ComputeEligibility(completed, total), nil
}
