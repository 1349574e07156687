package dummydb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, studentID int, exec ...core.DBExecutor) (attendance.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CreateAttendance"); err != nil {
		return attendance.Attendance{}, err
	}
	now := repo.db.now()
	att := attendance.Attendance{
		ID:        repo.db.nextID("attendance"),
		StudentID: studentID,
		LoginTime: now,
		CreatedAt: now,
	}
	put(repo.db, exec, attendanceTable, att.ID, att)
	return att, nil
}

func (repo *attendanceRepository) CloseAttendance(_ context.Context, id int, exec ...core.DBExecutor) (attendance.Attendance, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	att, ok := repo.db.data.attendance[id]
	if !ok {
		return attendance.Attendance{}, false, attendance.ErrNotFound
	}
	if !att.IsOpen() {
		return att, false, nil
	}
	now := repo.db.now()
	att.LogoutTime = null.TimeFrom(now)
	att.DurationMinutes = null.IntFrom(attendance.DurationMinutes(att.LoginTime, now))
	put(repo.db, exec, attendanceTable, id, att)
	return att, true, nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, studentID, limit int, _ ...core.DBExecutor) ([]attendance.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]attendance.Attendance, 0)
	for _, att := range repo.db.data.attendance {
		if att.StudentID == studentID {
			records = append(records, att)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LoginTime.Equal(records[j].LoginTime) {
			return records[i].ID > records[j].ID
		}
		return records[i].LoginTime.After(records[j].LoginTime)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
