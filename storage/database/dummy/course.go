package dummydb

import (
	"context"
	"sort"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) findByName(name string) (course.Course, bool) {
	for _, crs := range repo.db.data.courses {
		if crs.Name == name {
			return crs, true
		}
	}
	return course.Course{}, false
}

func (repo *courseRepository) GetCourse(_ context.Context, id int, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	crs, ok := repo.db.data.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByName(_ context.Context, name string, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	crs, ok := repo.findByName(name)
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) CreateCourseIfNotExist(_ context.Context, name string, exec ...core.DBExecutor) (course.Course, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CreateCourseIfNotExist"); err != nil {
		return course.Course{}, false, err
	}
	if crs, ok := repo.findByName(name); ok {
		return crs, false, nil
	}
	crs := course.Course{
		ID:        repo.db.nextID("courses"),
		Name:      name,
		Status:    course.StatusOngoing,
		CreatedAt: repo.db.now(),
	}
	put(repo.db, exec, coursesTable, crs.ID, crs)
	return crs, true, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.data.courses))
	for _, crs := range repo.db.data.courses {
		courses = append(courses, crs)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].ID > courses[j].ID
		}
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	return courses, nil
}

func (repo *courseRepository) CountTasks(_ context.Context, courseID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	count := 0
	for _, t := range repo.db.data.tasks {
		if t.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (repo *courseRepository) CreateTasks(_ context.Context, courseID int, tasks []course.NewTask, exec ...core.DBExecutor) ([]course.Task, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CreateTasks"); err != nil {
		return nil, err
	}
	if _, ok := repo.db.data.courses[courseID]; !ok {
		return nil, course.ErrNotFound
	}
	created := make([]course.Task, 0, len(tasks))
	for _, nt := range tasks {
		t := course.Task{
			ID:          repo.db.nextID("tasks"),
			CourseID:    courseID,
			Title:       nt.Title,
			Description: nt.Description,
			CreatedAt:   repo.db.now(),
		}
		put(repo.db, exec, tasksTable, t.ID, t)
		created = append(created, t)
	}
	return created, nil
}

func (repo *courseRepository) QueryTasks(_ context.Context, courseID int, _ ...core.DBExecutor) ([]course.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tasks := make([]course.Task, 0)
	for _, t := range repo.db.data.tasks {
		if t.CourseID == courseID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (repo *courseRepository) GetTask(_ context.Context, id int, _ ...core.DBExecutor) (course.Task, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	t, ok := repo.db.data.tasks[id]
	if !ok {
		return course.Task{}, course.ErrTaskNotFound
	}
	return t, nil
}

func (repo *courseRepository) CompleteTask(_ context.Context, studentID, taskID int, exec ...core.DBExecutor) (course.Completion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CompleteTask"); err != nil {
		return course.Completion{}, err
	}
	if _, ok := repo.db.data.tasks[taskID]; !ok {
		return course.Completion{}, course.ErrTaskNotFound
	}
	cpl := course.Completion{StudentID: studentID, TaskID: taskID, CompletedAt: repo.db.now()}
	put(repo.db, exec, completionsTable, completionKey{studentID: studentID, taskID: taskID}, cpl)
	return cpl, nil
}

func (repo *courseRepository) CompletedTaskIDs(_ context.Context, studentID int, _ ...core.DBExecutor) ([]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]int, 0)
	for k := range repo.db.data.completions {
		if k.studentID == studentID {
			ids = append(ids, k.taskID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *courseRepository) CountCompletedTasks(_ context.Context, studentID, courseID int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	count := 0
	for k := range repo.db.data.completions {
		if k.studentID != studentID {
			continue
		}
		if t, ok := repo.db.data.tasks[k.taskID]; ok && t.CourseID == courseID {
			count++
		}
	}
	return count, nil
}
