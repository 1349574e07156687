package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
)

const attendanceColumns = "id, student_id, login_time, logout_time, duration_minutes, created_at"

type attendanceRow struct {
	ID              int       `db:"id"`
	StudentID       int       `db:"student_id"`
	LoginTime       time.Time `db:"login_time"`
	LogoutTime      null.Time `db:"logout_time"`
	DurationMinutes null.Int  `db:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at"`
}

func (row attendanceRow) toAttendance() attendance.Attendance {
	att := attendance.Attendance{
		ID:              row.ID,
		StudentID:       row.StudentID,
		LoginTime:       row.LoginTime.UTC(),
		LogoutTime:      row.LogoutTime,
		DurationMinutes: row.DurationMinutes,
		CreatedAt:       row.CreatedAt.UTC(),
	}
	if att.LogoutTime.Valid {
		att.LogoutTime.Time = att.LogoutTime.Time.UTC()
	}
	return att
}

type attendanceRepository struct {
	repository
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{repository{exec: exec}}
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, studentID int, exec ...core.DBExecutor) (attendance.Attendance, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return attendance.Attendance{}, err
	}
	var row attendanceRow
	err = sqlx.GetContext(
		ctx, x, &row,
		"INSERT INTO attendance (student_id, login_time) VALUES ($1, NOW()) RETURNING "+attendanceColumns,
		studentID,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	return row.toAttendance(), nil
}

func (repo attendanceRepository) CloseAttendance(ctx context.Context, id int, exec ...core.DBExecutor) (attendance.Attendance, bool, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return attendance.Attendance{}, false, err
	}

	// the logout_time guard makes the transition happen at most once
	var row attendanceRow
	err = sqlx.GetContext(
		ctx, x, &row,
		`UPDATE attendance
		SET logout_time = NOW(),
			duration_minutes = GREATEST(FLOOR(EXTRACT(EPOCH FROM (NOW() - login_time)) / 60), 0)::INTEGER
		WHERE id = $1 AND logout_time IS NULL
		RETURNING `+attendanceColumns,
		id,
	)
	if err == nil {
		return row.toAttendance(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return attendance.Attendance{}, false, err
	}

	err = sqlx.GetContext(ctx, x, &row, "SELECT "+attendanceColumns+" FROM attendance WHERE id = $1", id)
	if err != nil {
		return attendance.Attendance{}, false, trapNoRows(err, attendance.ErrNotFound)
	}
	return row.toAttendance(), false, nil
}

func (repo attendanceRepository) QueryAttendance(ctx context.Context, studentID, limit int, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	x, err := repo.ext(exec)
	if err != nil {
		return nil, err
	}
	var rows []attendanceRow
	err = sqlx.SelectContext(
		ctx, x, &rows,
		"SELECT "+attendanceColumns+" FROM attendance WHERE student_id = $1 ORDER BY login_time DESC, id DESC LIMIT $2",
		studentID, limit,
	)
	if err != nil {
		return nil, err
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toAttendance())
	}
	return records, nil
}
