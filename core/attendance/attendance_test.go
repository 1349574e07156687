package attendance_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mugilan0610/institute-management-system/core/attendance"
	"github.com/mugilan0610/institute-management-system/storage/database/dummy"
	"github.com/mugilan0610/institute-management-system/tests"
)

func setup() (*attendance.Service, *testutil.Clock) {
	db := dummydb.Open()
	clock := testutil.NewClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	db.SetClock(clock.Now)
	return attendance.NewService(dummydb.NewAttendanceRepository(db)), clock
}

func TestDurationMinutes(t *testing.T) {
	login := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		logout time.Time
		want   int
	}{
		{name: "same instant", logout: login, want: 0},
		{name: "under a minute", logout: login.Add(59 * time.Second), want: 0},
		{name: "whole minutes", logout: login.Add(90*time.Minute + 30*time.Second), want: 90},
		{name: "clock skew", logout: login.Add(-time.Minute), want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, attendance.DurationMinutes(login, tc.logout))
		})
	}
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, clock := setup()

	att, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	assert.True(t, att.IsOpen())
	assert.Equal(t, clock.Now(), att.LoginTime)

	clock.Advance(95 * time.Minute)
	closed, already, err := svc.Logout(ctx, att.ID)
	require.NoError(t, err)
	assert.False(t, already)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, clock.Now(), closed.LogoutTime.Time)
	assert.Equal(t, 95, closed.DurationMinutes.Int)

	clock.Advance(time.Hour)
	again, already, err := svc.Logout(ctx, att.ID)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, closed.LogoutTime, again.LogoutTime, "a closed check-in is never reopened or re-stamped")
	assert.Equal(t, 95, again.DurationMinutes.Int)

	_, _, err = svc.Logout(ctx, 9999)
	assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	svc, clock := setup()

	var last attendance.Attendance
	for i := 0; i < attendance.HistoryLimit+5; i++ {
		att, err := svc.Start(ctx, 1)
		require.NoError(t, err)
		last = att
		clock.Advance(time.Hour)
	}
	_, err := svc.Start(ctx, 2)
	require.NoError(t, err)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, attendance.HistoryLimit)
	assert.Equal(t, last.ID, history[0].ID, "latest login first")
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].LoginTime.After(history[i].LoginTime))
		assert.Equal(t, 1, history[i].StudentID)
	}

	history, err = svc.History(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc, clock := setup()

	first, err := svc.Start(ctx, 7)
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)
	_, _, err = svc.Logout(ctx, first.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = svc.Start(ctx, 7)
	require.NoError(t, err)

	records, err := svc.History(ctx, 7)
	require.NoError(t, err)
	buf, err := attendance.Export(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Login time (UTC)", "Logout time (UTC)", "Duration (minutes)"}, rows[0])

	// the open check-in comes first
	assert.Equal(t, "-", rows[1][2])
	assert.Equal(t, "2024-03-04 09:00:00", rows[2][1])
	assert.Equal(t, "2024-03-04 09:45:00", rows[2][2])
	assert.Equal(t, "45", rows[2][3])

	assert.Equal(t, "attendance_student_7.xlsx", attendance.ExportFilename(7))
}
