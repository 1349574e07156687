package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
	"github.com/mugilan0610/institute-management-system/storage/database"
)

const studentEmailKey = "students_email_key"

type studentRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	PasswordHash []byte      `db:"password_hash"`
	CourseID     null.Int    `db:"course_id"`
	CourseName   null.String `db:"course_name"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (row studentRow) toStudent() student.Student {
	return student.Student{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		CourseID:     row.CourseID,
		CourseName:   row.CourseName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

type studentRepository struct {
	repository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{repository{exec: exec}}
}

func (repo studentRepository) selectStudents() sq.SelectBuilder {
	return psql.
		Select("s.id", "s.name", "s.email", "s.password_hash", "s.course_id", "c.name AS course_name", "s.created_at").
		From("students s").
		LeftJoin("courses c ON c.id = s.course_id")
}

func (repo studentRepository) getOne(ctx context.Context, where sq.Sqlizer, exec []core.DBExecutor) (student.Student, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return student.Student{}, err
	}
	query, args, err := repo.selectStudents().Where(where).Limit(1).ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "building query")
	}

	var row studentRow
	if err = sqlx.GetContext(ctx, x, &row, query, args...); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound)
	}
	return row.toStudent(), nil
}

func (repo studentRepository) EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	err := repo.getExec(exec).
		QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM students WHERE email = $1)", email).
		Scan(&exists)
	return exists, err
}

func (repo studentRepository) CreateStudent(ctx context.Context, stu student.Student, exec ...core.DBExecutor) (student.Student, error) {
	err := repo.getExec(exec).QueryRowContext(
		ctx,
		`INSERT INTO students (name, email, password_hash, course_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		stu.Name, stu.Email, stu.PasswordHash, stu.CourseID, stu.CreatedAt,
	).Scan(&stu.ID, &stu.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, studentEmailKey) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, err
	}
	stu.CreatedAt = stu.CreatedAt.UTC()
	return stu, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	return repo.getOne(ctx, sq.Eq{"s.id": id}, exec)
}

func (repo studentRepository) GetStudentByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (student.Student, error) {
	return repo.getOne(ctx, sq.Eq{"s.email": email}, exec)
}

func (repo studentRepository) QueryStudents(ctx context.Context, exec ...core.DBExecutor) ([]student.Student, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	query, args, err := repo.selectStudents().OrderBy("s.created_at DESC", "s.id DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []studentRow
	if err = sqlx.SelectContext(ctx, x, &rows, query, args...); err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, id int, ch student.Changes, exec ...core.DBExecutor) error {
	if ch.IsEmpty() {
		return nil
	}

	q := psql.Update("students").Where(sq.Eq{"id": id})
	if ch.Name.Valid {
		q = q.Set("name", ch.Name.String)
	}
	if ch.Email.Valid {
		q = q.Set("email", ch.Email.String)
	}
	if ch.CourseID.Valid {
		q = q.Set("course_id", ch.CourseID.Int)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	res, err := repo.getExec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err, studentEmailKey) {
			return student.ErrEmailExists
		}
		return err
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo studentRepository) SetPasswordHash(ctx context.Context, id int, hash []byte, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "UPDATE students SET password_hash = $1 WHERE id = $2", hash, id)
	if err != nil {
		return err
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	return err
}
