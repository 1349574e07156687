package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/result"
)

const resultColumns = "id, student_id, title, marks_obtained, total_marks, status, created_at"

type resultRow struct {
	ID            int       `db:"id"`
	StudentID     int       `db:"student_id"`
	Title         string    `db:"title"`
	MarksObtained int       `db:"marks_obtained"`
	TotalMarks    int       `db:"total_marks"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row resultRow) toResult() result.Result {
	return result.Result{
		ID:            row.ID,
		StudentID:     row.StudentID,
		Title:         row.Title,
		MarksObtained: row.MarksObtained,
		TotalMarks:    row.TotalMarks,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type resultRepository struct {
	repository
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(exec core.DBExecutor) *resultRepository {
	return &resultRepository{repository{exec: exec}}
}

func (repo resultRepository) CreateResult(ctx context.Context, nr result.NewResult, exec ...core.DBExecutor) (result.Result, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return result.Result{}, err
	}
	var row resultRow
	err = sqlx.GetContext(
		ctx, x, &row,
		`INSERT INTO results (student_id, title, marks_obtained, total_marks, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+resultColumns,
		nr.StudentID, nr.Title, nr.MarksObtained, nr.TotalMarks, nr.Status,
	)
	if err != nil {
		return result.Result{}, err
	}
	return row.toResult(), nil
}

func (repo resultRepository) QueryResults(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]result.Result, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	var rows []resultRow
	err = sqlx.SelectContext(
		ctx, x, &rows,
		"SELECT "+resultColumns+" FROM results WHERE student_id = $1 ORDER BY created_at DESC, id DESC",
		studentID,
	)
	if err != nil {
		return nil, err
	}
	results := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResult())
	}
	return results, nil
}
