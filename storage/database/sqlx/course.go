package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/course"
)

const courseColumns = "id, name, description, duration_weeks, status, created_at"

type courseRow struct {
	ID            int       `db:"id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	DurationWeeks int       `db:"duration_weeks"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row courseRow) toCourse() course.Course {
	return course.Course{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		DurationWeeks: row.DurationWeeks,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type taskRow struct {
	ID          int       `db:"id"`
	CourseID    int       `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row taskRow) toTask() course.Task {
	return course.Task{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Title:       row.Title,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

func (repo courseRepository) getCourse(ctx context.Context, exec []core.DBExecutor, where string, arg interface{}) (course.Course, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return course.Course{}, err
	}
	var row courseRow
	err = sqlx.GetContext(ctx, x, &row, "SELECT "+courseColumns+" FROM courses WHERE "+where+" LIMIT 1", arg)
	if err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound)
	}
	return row.toCourse(), nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	return repo.getCourse(ctx, exec, "id = $1", id)
}

func (repo courseRepository) GetCourseByName(ctx context.Context, name string, exec ...core.DBExecutor) (course.Course, error) {
	return repo.getCourse(ctx, exec, "name = $1", name)
}

func (repo courseRepository) CreateCourseIfNotExist(ctx context.Context, name string, exec ...core.DBExecutor) (course.Course, bool, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return course.Course{}, false, err
	}

	// a concurrent insert of the same name makes this one a no-op, so only one caller seeds
	var row courseRow
	err = sqlx.GetContext(
		ctx, x, &row,
		"INSERT INTO courses (name) VALUES ($1) ON CONFLICT (name) DO NOTHING RETURNING "+courseColumns,
		name,
	)
	if err == nil {
		return row.toCourse(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return course.Course{}, false, err
	}

	crs, err := repo.GetCourseByName(ctx, name, exec...)
	return crs, false, err
}

func (repo courseRepository) QueryCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	var rows []courseRow
	if err = sqlx.SelectContext(ctx, x, &rows, "SELECT "+courseColumns+" FROM courses ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo courseRepository) CountTasks(ctx context.Context, courseID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE course_id = $1", courseID).Scan(&count)
	return count, err
}

func (repo courseRepository) CreateTasks(ctx context.Context, courseID int, tasks []course.NewTask, exec ...core.DBExecutor) ([]course.Task, error) {
	if len(tasks) == 0 {
		return []course.Task{}, nil
	}
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}

	q := psql.Insert("tasks").Columns("course_id", "title", "description")
	for _, t := range tasks {
		q = q.Values(courseID, t.Title, t.Description)
	}
	query, args, err := q.Suffix("RETURNING id, course_id, title, description, created_at").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []taskRow
	if err = sqlx.SelectContext(ctx, x, &rows, query, args...); err != nil {
		return nil, err
	}
	created := make([]course.Task, 0, len(rows))
	for _, row := range rows {
		created = append(created, row.toTask())
	}
	return created, nil
}

func (repo courseRepository) QueryTasks(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]course.Task, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	query, args, err := psql.
		Select("id", "course_id", "title", "description", "created_at").
		From("tasks").
		Where(sq.Eq{"course_id": courseID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []taskRow
	if err = sqlx.SelectContext(ctx, x, &rows, query, args...); err != nil {
		return nil, err
	}
	tasks := make([]course.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

func (repo courseRepository) GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (course.Task, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return course.Task{}, err
	}
	var row taskRow
	err = sqlx.GetContext(ctx, x, &row, "SELECT id, course_id, title, description, created_at FROM tasks WHERE id = $1", id)
	if err != nil {
		return course.Task{}, trapNoRows(err, course.ErrTaskNotFound)
	}
	return row.toTask(), nil
}

func (repo courseRepository) CompleteTask(ctx context.Context, studentID, taskID int, exec ...core.DBExecutor) (course.Completion, error) {
	var cpl course.Completion
	err := repo.getExec(exec).QueryRowContext(
		ctx,
		`INSERT INTO student_tasks (student_id, task_id, completed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (student_id, task_id) DO UPDATE SET completed_at = EXCLUDED.completed_at
		RETURNING student_id, task_id, completed_at`,
		studentID, taskID,
	).Scan(&cpl.StudentID, &cpl.TaskID, &cpl.CompletedAt)
	cpl.CompletedAt = cpl.CompletedAt.UTC()
	return cpl, err
}

func (repo courseRepository) CompletedTaskIDs(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]int, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0)
	err = sqlx.SelectContext(ctx, x, &ids, "SELECT task_id FROM student_tasks WHERE student_id = $1", studentID)
	return ids, err
}

func (repo courseRepository) CountCompletedTasks(ctx context.Context, studentID, courseID int, exec ...core.DBExecutor) (int, error) {
	var count int
	err := repo.getExec(exec).QueryRowContext(
		ctx,
		`SELECT COUNT(*)
		FROM student_tasks st
		INNER JOIN tasks t ON t.id = st.task_id
		WHERE st.student_id = $1 AND t.course_id = $2`,
		studentID, courseID,
	).Scan(&count)
	return count, err
}
