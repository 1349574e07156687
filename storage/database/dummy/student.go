package dummydb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// withCourse joins the course name. Callers hold db.mu.
func (repo *studentRepository) withCourse(stu student.Student) student.Student {
	stu.CourseName = null.String{}
	if stu.CourseID.Valid {
		if crs, ok := repo.db.data.courses[stu.CourseID.Int]; ok {
			stu.CourseName = null.StringFrom(crs.Name)
		} else {
			stu.CourseID = null.Int{}
		}
	}
	return stu
}

func (repo *studentRepository) findByEmail(email string) (student.Student, bool) {
	for _, stu := range repo.db.data.students {
		if stu.Email == email {
			return stu, true
		}
	}
	return student.Student{}, false
}

func (repo *studentRepository) EmailExists(_ context.Context, email string, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	_, ok := repo.findByEmail(email)
	return ok, nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, stu student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CreateStudent"); err != nil {
		return student.Student{}, err
	}
	if _, ok := repo.findByEmail(stu.Email); ok {
		return student.Student{}, student.ErrEmailExists
	}
	stu.ID = repo.db.nextID("students")
	if stu.CreatedAt.IsZero() {
		stu.CreatedAt = repo.db.now()
	}
	stu.CourseName = null.String{}
	put(repo.db, exec, studentsTable, stu.ID, stu)
	return stu, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	stu, ok := repo.db.data.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.withCourse(stu), nil
}

func (repo *studentRepository) GetStudentByEmail(_ context.Context, email string, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	stu, ok := repo.findByEmail(email)
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.withCourse(stu), nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("QueryStudents"); err != nil {
		return nil, err
	}
	students := make([]student.Student, 0, len(repo.db.data.students))
	for _, stu := range repo.db.data.students {
		students = append(students, repo.withCourse(stu))
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].CreatedAt.Equal(students[j].CreatedAt) {
			return students[i].ID > students[j].ID
		}
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, id int, ch student.Changes, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("UpdateStudent"); err != nil {
		return err
	}
	stu, ok := repo.db.data.students[id]
	if !ok {
		return student.ErrNotFound
	}
	if ch.Email.Valid {
		if other, ok := repo.findByEmail(ch.Email.String); ok && other.ID != id {
			return student.ErrEmailExists
		}
		stu.Email = ch.Email.String
	}
	if ch.Name.Valid {
		stu.Name = ch.Name.String
	}
	if ch.CourseID.Valid {
		stu.CourseID = ch.CourseID
	}
	put(repo.db, exec, studentsTable, id, stu)
	return nil
}

func (repo *studentRepository) SetPasswordHash(_ context.Context, id int, hash []byte, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	stu, ok := repo.db.data.students[id]
	if !ok {
		return student.ErrNotFound
	}
	stu.PasswordHash = append([]byte(nil), hash...)
	put(repo.db, exec, studentsTable, id, stu)
	return nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.data.students[id]; !ok {
		return nil
	}
	remove(repo.db, exec, studentsTable, id)

	// ON DELETE CASCADE
	for k, att := range repo.db.data.attendance {
		if att.StudentID == id {
			remove(repo.db, exec, attendanceTable, k)
		}
	}
	for k, res := range repo.db.data.results {
		if res.StudentID == id {
			remove(repo.db, exec, resultsTable, k)
		}
	}
	for k := range repo.db.data.completions {
		if k.studentID == id {
			remove(repo.db, exec, completionsTable, k)
		}
	}
	return nil
}
