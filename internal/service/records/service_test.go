package records

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
	"github.com/mamadbah2/shiftlog/internal/repository/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, store, nil, nil)

	clock := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, store
}

func referenceInput() models.RecordInput {
	return models.RecordInput{
		Date:             "2025-03-14",
		Name:             "Li Wei",
		Position:         "operator",
		Product:          "M8 bolt",
		Process:          "stamping",
		AdjustmentTime:   "30",
		DowntimeDuration: "20",
		SingleTime:       "30",
		TotalWeight:      "1000",
		UnitWeight:       "1.2",
		TareWeight:       "50",
	}
}

func TestService_CreateDerivesFields(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "792", rec.ActualQty)
	assert.Equal(t, models.QtySourceComputed, rec.ActualQtySource)
	assert.Equal(t, "92.09%", rec.CapacityRate)
	assert.Equal(t, "95.56%", rec.TimeRate)

	stored, err := store.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestService_CreateRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := referenceInput()
	in.Date = "14/03/2025"
	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = referenceInput()
	in.ActualQty = "12.5"
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CreateWithManualQuantity(t *testing.T) {
	svc, _ := newTestService(t)

	in := referenceInput()
	in.ActualQty = "400"
	rec, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "400", rec.ActualQty)
	assert.Equal(t, models.QtySourceManual, rec.ActualQtySource)
	assert.Equal(t, "46.51%", rec.CapacityRate)
}

func TestService_UpdateRecomputes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	downtime := "50"
	updated, err := svc.Update(ctx, rec.ID, models.RecordPatch{DowntimeDuration: &downtime})
	require.NoError(t, err)

	assert.Equal(t, "400", updated.ActualRuntime)
	assert.Equal(t, "800", updated.TheoreticalQty)
	assert.Equal(t, "99.0%", updated.CapacityRate)
	assert.Equal(t, "88.89%", updated.TimeRate)
	assert.True(t, updated.UpdatedAt.After(rec.UpdatedAt))
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)
}

func TestService_UpdateManualQuantityLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	manual := "700"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{ActualQty: &manual})
	require.NoError(t, err)
	assert.Equal(t, models.QtySourceManual, rec.ActualQtySource)
	assert.Equal(t, "700", rec.ActualQty)

	// unrelated edits keep the manual value
	single := "24"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{SingleTime: &single})
	require.NoError(t, err)
	assert.Equal(t, "700", rec.ActualQty)
	assert.Equal(t, "1075", rec.TheoreticalQty)

	// a new weight reading takes over again
	total := "1300"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{TotalWeight: &total})
	require.NoError(t, err)
	assert.Equal(t, models.QtySourceComputed, rec.ActualQtySource)
	assert.Equal(t, "1042", rec.ActualQty)

	// clearing by hand re-arms computation too
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{ActualQty: &manual})
	require.NoError(t, err)
	empty := ""
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{ActualQty: &empty})
	require.NoError(t, err)
	assert.Equal(t, "1042", rec.ActualQty)
	assert.Equal(t, models.QtySourceComputed, rec.ActualQtySource)
}

func TestService_UpdateUnusableWeightsKeepManualQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, models.RecordInput{Date: "2025-03-14", SingleTime: "30", ActualQty: "700"})
	require.NoError(t, err)
	require.Equal(t, models.QtySourceManual, rec.ActualQtySource)

	// no unit weight, so the weights cannot yield a count
	total := "1300"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{TotalWeight: &total})
	require.NoError(t, err)
	assert.Equal(t, "700", rec.ActualQty)
	assert.Equal(t, models.QtySourceManual, rec.ActualQtySource)
	assert.Equal(t, "72.92%", rec.CapacityRate)

	zero := "0"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{UnitWeight: &zero})
	require.NoError(t, err)
	assert.Equal(t, "700", rec.ActualQty)

	// a usable unit weight hands the quantity back to the weights
	unit := "1.25"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{UnitWeight: &unit})
	require.NoError(t, err)
	assert.Equal(t, "1040", rec.ActualQty)
	assert.Equal(t, models.QtySourceComputed, rec.ActualQtySource)
}

func TestService_UpdateWeightsAndManualInSamePatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	total := "2000"
	manual := "10"
	rec, err = svc.Update(ctx, rec.ID, models.RecordPatch{TotalWeight: &total, ActualQty: &manual})
	require.NoError(t, err)
	assert.Equal(t, "10", rec.ActualQty)
	assert.Equal(t, models.QtySourceManual, rec.ActualQtySource)
}

func TestService_UpdateErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", models.RecordPatch{})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	bad := "2025-13-40"
	_, err = svc.Update(ctx, rec.ID, models.RecordPatch{Date: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	negative := "-4"
	_, err = svc.Update(ctx, rec.ID, models.RecordPatch{ActualQty: &negative})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_CommentsFollowRecordIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	_, err = svc.SaveComment(ctx, rec.ID, models.ColumnDowntimeDuration, "conveyor jam")
	require.NoError(t, err)

	// editing a key field does not detach the note
	newDate := "2025-03-15"
	process := "threading"
	_, err = svc.Update(ctx, rec.ID, models.RecordPatch{Date: &newDate, Process: &process})
	require.NoError(t, err)

	got, err := svc.GetComment(ctx, rec.ID, models.ColumnDowntimeDuration)
	require.NoError(t, err)
	assert.Equal(t, "conveyor jam", got.Text)

	empty, err := svc.GetComment(ctx, rec.ID, models.ColumnAdjustmentTime)
	require.NoError(t, err)
	assert.Empty(t, empty.Text)
}

func TestService_SaveCommentUpsertAndClear(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	first, err := svc.SaveComment(ctx, rec.ID, models.ColumnAdjustmentTime, "die change")
	require.NoError(t, err)
	second, err := svc.SaveComment(ctx, rec.ID, models.ColumnAdjustmentTime, "die change, long")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = svc.SaveComment(ctx, rec.ID, models.ColumnAdjustmentTime, "   ")
	require.NoError(t, err)
	_, err = store.GetComment(ctx, rec.ID, models.ColumnAdjustmentTime)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_CommentErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	_, err = svc.SaveComment(ctx, rec.ID, "single_time", "x")
	assert.ErrorIs(t, err, ErrUnsupportedColumn)

	_, err = svc.SaveComment(ctx, "missing", models.ColumnDowntimeDuration, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetComment(ctx, "missing", models.ColumnDowntimeDuration)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_DeleteRemovesComments(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)
	_, err = svc.SaveComment(ctx, rec.ID, models.ColumnDowntimeDuration, "jam")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rec.ID))

	_, err = store.GetComment(ctx, rec.ID, models.ColumnDowntimeDuration)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, rec.ID), repository.ErrNotFound)
}

func TestService_ListValidatesFilter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.List(context.Background(), models.RecordFilter{StartDate: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_RecomputeAllRewritesStaleRecords(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	fresh, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	stale := models.ProductionRecord{
		ID:               "legacy",
		Date:             "2024-12-01",
		AdjustmentTime:   "0",
		DowntimeDuration: "0",
		SingleTime:       "60",
		ActualQty:        "240",
		ActualQtySource:  models.QtySourceManual,
	}
	require.NoError(t, store.CreateRecord(ctx, stale))

	n, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetRecord(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "480", got.TheoreticalQty)
	assert.Equal(t, "240", got.ActualQty)
	assert.Equal(t, "50.0%", got.CapacityRate)

	unchanged, err := store.GetRecord(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh, unchanged)

	n, err = svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_RecomputeAllKeepsUntaggedQuantity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRecord(ctx, models.ProductionRecord{
		ID:          "untagged",
		Date:        "2024-11-20",
		SingleTime:  "60",
		TotalWeight: "1000",
		UnitWeight:  "1.2",
		TareWeight:  "50",
		ActualQty:   "300",
	}))

	n, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetRecord(ctx, "untagged")
	require.NoError(t, err)
	assert.Equal(t, "300", got.ActualQty)
	assert.Equal(t, models.QtySourceManual, got.ActualQtySource)
	assert.Equal(t, "62.5%", got.CapacityRate)
}

func TestService_Statistics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, referenceInput())
	require.NoError(t, err)

	second := referenceInput()
	second.Date = "2025-03-15"
	second.DowntimeDuration = "50"
	_, err = svc.Create(ctx, second)
	require.NoError(t, err)

	other := referenceInput()
	other.Date = "2025-03-16"
	other.Process = "threading"
	other.SingleTime = "0"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx, models.RecordFilter{Process: "stamping"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, int64(1584), stats.TotalActualQty)
	// (92.09 + 99.0) / 2 = 95.545 -> 95.54 under half-even
	assert.Equal(t, 95.54, stats.AvgCapacityRate)
	// (95.56 + 88.89) / 2 = 92.225 -> 92.22
	assert.Equal(t, 92.22, stats.AvgTimeRate)

	all, err := svc.Statistics(ctx, models.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalRecords)
	assert.Equal(t, int64(2376), all.TotalActualQty)
	// the zero-cycle record has a blank capacity rate and is left out
	assert.Equal(t, 95.54, all.AvgCapacityRate)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, models.Statistics{}, stats)
}
