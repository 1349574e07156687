package result_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mugilan0610/institute-management-system/core/result"
	"github.com/mugilan0610/institute-management-system/storage/database/dummy"
)

func TestDiagnostic(t *testing.T) {
	nr := result.Diagnostic(7, "Data Science")
	assert.Equal(t, result.NewResult{
		StudentID:     7,
		Title:         "Data Science Diagnostic Test",
		MarksObtained: 0,
		TotalMarks:    100,
		Status:        result.StatusFail,
	}, nr)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return now })
	svc := result.NewService(dummydb.NewResultRepository(db))

	first, err := svc.SeedDiagnostic(ctx, 1, "Data Science")
	require.NoError(t, err)
	_, err = svc.SeedDiagnostic(ctx, 2, "AI Basics")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	second, err := svc.SeedDiagnostic(ctx, 1, "Web Development")
	require.NoError(t, err)

	results, err := svc.QueryByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second.ID, results[0].ID, "newest first")
	assert.Equal(t, first.ID, results[1].ID)

	results, err = svc.QueryByStudent(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	boom := errors.New("disk full")
	db.FailOn("CreateResult", boom)
	_, err = svc.SeedDiagnostic(ctx, 1, "AI Basics")
	assert.Equal(t, boom, errors.Cause(err))
}
