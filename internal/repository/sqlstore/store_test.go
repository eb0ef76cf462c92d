package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DriverSQLite, ":memory:", nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", nil)
	assert.Error(t, err)
}

func TestStore_Records(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	seed := []models.ProductionRecord{
		{ID: "1", Date: "2025-03-01", Name: "Li", Process: "cut", ActualQty: "10", ActualQtySource: models.QtySourceManual, CreatedAt: base},
		{ID: "2", Date: "2025-03-04", Name: "Li", Process: "weld", CreatedAt: base},
		{ID: "3", Date: "2025-03-04", Name: "Wang", Process: "cut", CreatedAt: base.Add(time.Minute)},
	}
	for _, rec := range seed {
		require.NoError(t, store.CreateRecord(ctx, rec))
	}
	assert.ErrorIs(t, store.CreateRecord(ctx, seed[0]), repository.ErrConflict)

	all, err := store.ListRecords(ctx, models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"3", "2", "1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	cut, err := store.ListRecords(ctx, models.RecordFilter{Process: "cut", EndDate: "2025-03-02"})
	require.NoError(t, err)
	require.Len(t, cut, 1)
	assert.Equal(t, models.QtySourceManual, cut[0].ActualQtySource)

	updated := seed[1]
	updated.Name = "Zhao"
	updated.ActualQty = ""
	require.NoError(t, store.UpdateRecord(ctx, updated))
	got, err := store.GetRecord(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Zhao", got.Name)

	missing := models.ProductionRecord{ID: "nope", Date: "2025-03-01"}
	assert.ErrorIs(t, store.UpdateRecord(ctx, missing), repository.ErrNotFound)

	require.NoError(t, store.DeleteRecord(ctx, "1"))
	assert.ErrorIs(t, store.DeleteRecord(ctx, "1"), repository.ErrNotFound)
	_, err = store.GetRecord(ctx, "1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_CommentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := models.Comment{ID: "c1", RecordID: "r1", ColumnKey: models.ColumnAdjustmentTime, Text: "mould change"}
	require.NoError(t, store.SaveComment(ctx, first))

	second := first
	second.ID = "c2"
	second.Text = "mould change, second try"
	require.NoError(t, store.SaveComment(ctx, second))

	got, err := store.GetComment(ctx, "r1", models.ColumnAdjustmentTime)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "mould change, second try", got.Text)

	require.NoError(t, store.DeleteRecordComments(ctx, "r1"))
	_, err = store.GetComment(ctx, "r1", models.ColumnAdjustmentTime)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_CatalogAndEmployees(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateEmployee(ctx, models.Employee{ID: "e1", Name: "Li", Position: "operator"}))
	assert.ErrorIs(t, store.CreateEmployee(ctx, models.Employee{ID: "e2", Name: "Li", Position: "lead"}), repository.ErrConflict)

	require.NoError(t, store.CreateCatalogEntry(ctx, models.CatalogEntry{ID: "p1", Kind: models.CatalogProduct, Name: "washer"}))
	require.NoError(t, store.CreateCatalogEntry(ctx, models.CatalogEntry{ID: "x1", Kind: models.CatalogProcess, Name: "washer"}))
	assert.ErrorIs(t, store.CreateCatalogEntry(ctx, models.CatalogEntry{ID: "p2", Kind: models.CatalogProduct, Name: "washer"}), repository.ErrConflict)

	assert.ErrorIs(t, store.DeleteCatalogEntry(ctx, models.CatalogProduct, "x1"), repository.ErrNotFound)
	require.NoError(t, store.DeleteCatalogEntry(ctx, models.CatalogProcess, "x1"))

	processes, err := store.ListCatalog(ctx, models.CatalogProcess)
	require.NoError(t, err)
	assert.Empty(t, processes)
}

func TestStore_PlanUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan := models.ProductionPlan{ID: "p1", Product: "gear", Steps: []models.PlanStep{{Process: "cut", Qty: 100}}}
	require.NoError(t, store.SavePlan(ctx, plan))

	plan.Steps = append(plan.Steps, models.PlanStep{Process: "grind", Qty: 80})
	require.NoError(t, store.SavePlan(ctx, plan))

	got, err := store.GetPlanByProduct(ctx, "gear")
	require.NoError(t, err)
	assert.Equal(t, plan.Steps, got.Steps)

	assert.ErrorIs(t, store.SavePlan(ctx, models.ProductionPlan{ID: "p2", Product: "gear"}), repository.ErrConflict)

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}
