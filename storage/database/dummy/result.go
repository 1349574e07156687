package dummydb

import (
	"context"
	"sort"

	"github.com/mugilan0610/institute-management-system/core"
	"github.com/mugilan0610/institute-management-system/core/result"
)

type resultRepository struct {
	db *DB
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db}
}

func (repo *resultRepository) CreateResult(_ context.Context, nr result.NewResult, exec ...core.DBExecutor) (result.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fault("CreateResult"); err != nil {
		return result.Result{}, err
	}
	res := result.Result{
		ID:            repo.db.nextID("results"),
		StudentID:     nr.StudentID,
		Title:         nr.Title,
		MarksObtained: nr.MarksObtained,
		TotalMarks:    nr.TotalMarks,
		Status:        nr.Status,
		CreatedAt:     repo.db.now(),
	}
	put(repo.db, exec, resultsTable, res.ID, res)
	return res, nil
}

func (repo *resultRepository) QueryResults(_ context.Context, studentID int, _ ...core.DBExecutor) ([]result.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	results := make([]result.Result, 0)
	for _, res := range repo.db.data.results {
		if res.StudentID == studentID {
			results = append(results, res)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}
