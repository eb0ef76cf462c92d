package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

// newTestRepository connects to TEST_MONGODB_URI using a throwaway database.
func newTestRepository(t *testing.T) *MongoDBRepository {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewMongoDBRepository(ctx, uri, "shiftlog_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = repo.db.Drop(ctx)
		_ = repo.Close(ctx)
	})
	return repo
}

func TestMongoDBRepository_Records(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := models.ProductionRecord{ID: "r1", Date: "2025-01-01", Name: "Li", Process: "cut", CreatedAt: now}
	newer := models.ProductionRecord{ID: "r2", Date: "2025-01-05", Name: "Li", Process: "weld", CreatedAt: now}
	require.NoError(t, repo.CreateRecord(ctx, older))
	require.NoError(t, repo.CreateRecord(ctx, newer))
	assert.ErrorIs(t, repo.CreateRecord(ctx, older), repository.ErrConflict)

	list, err := repo.ListRecords(ctx, models.RecordFilter{Name: "Li"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID)

	list, err = repo.ListRecords(ctx, models.RecordFilter{StartDate: "2025-01-02"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	older.Name = "Wang"
	require.NoError(t, repo.UpdateRecord(ctx, older))
	got, err := repo.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Wang", got.Name)

	require.NoError(t, repo.DeleteRecord(ctx, "r1"))
	_, err = repo.GetRecord(ctx, "r1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoDBRepository_CommentUpsertKeepsID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := models.Comment{ID: "c1", RecordID: "r1", ColumnKey: models.ColumnDowntimeDuration, Text: "jam"}
	require.NoError(t, repo.SaveComment(ctx, first))

	second := first
	second.ID = "c2"
	second.Text = "jam cleared"
	require.NoError(t, repo.SaveComment(ctx, second))

	got, err := repo.GetComment(ctx, "r1", models.ColumnDowntimeDuration)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "jam cleared", got.Text)
}

func TestMongoDBRepository_UniqueNames(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateEmployee(ctx, models.Employee{ID: "e1", Name: "Li"}))
	assert.ErrorIs(t, repo.CreateEmployee(ctx, models.Employee{ID: "e2", Name: "Li"}), repository.ErrConflict)

	require.NoError(t, repo.SavePlan(ctx, models.ProductionPlan{ID: "p1", Product: "gear"}))
	assert.ErrorIs(t, repo.SavePlan(ctx, models.ProductionPlan{ID: "p2", Product: "gear"}), repository.ErrConflict)
}
