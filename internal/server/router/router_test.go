package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
	"github.com/mamadbah2/shiftlog/internal/repository/memory"
	"github.com/mamadbah2/shiftlog/internal/server/handlers"
	"github.com/mamadbah2/shiftlog/internal/service/catalog"
	"github.com/mamadbah2/shiftlog/internal/service/exchange"
	"github.com/mamadbah2/shiftlog/internal/service/notify"
	"github.com/mamadbah2/shiftlog/internal/service/planning"
	"github.com/mamadbah2/shiftlog/internal/service/records"
	"github.com/mamadbah2/shiftlog/internal/service/reporting"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()

	recordSvc := records.NewService(store, store, m, nil)
	exchangeSvc := exchange.NewService(recordSvc, m, nil)
	catalogSvc := catalog.NewService(store, store, store, store, nil)
	planningSvc := planning.NewService(store, store, nil)
	reportingSvc := reporting.NewService(store, nil, nil)
	notifier := notify.NewWhatsAppNotifier(config.WhatsAppConfig{}, nil, nil)

	engine, err := New(Handlers{
		Records: handlers.NewRecordHandler(recordSvc, exchangeSvc, nil),
		Catalog: handlers.NewCatalogHandler(catalogSvc, planningSvc, nil),
		Reports: handlers.NewReportHandler(reportingSvc, notifier, nil),
	}, config.ServerConfig{AllowedOrigins: []string{"*"}}, m, nil)
	require.NoError(t, err)
	return engine
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func shift() map[string]string {
	return map[string]string{
		"date":              "2025-03-14",
		"name":              "Li Wei",
		"position":          "operator",
		"product":           "M8 bolt",
		"process":           "stamping",
		"adjustment_time":   "30",
		"downtime_duration": "20",
		"single_time":       "30",
		"total_weight":      "1000",
		"unit_weight":       "1.2",
		"tare_weight":       "50",
	}
}

func TestRouter_RecordLifecycle(t *testing.T) {
	r := newTestEngine(t)

	w := do(t, r, http.MethodPost, "/api/records", shift())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[models.ProductionRecord](t, w)
	assert.Equal(t, "792", rec.ActualQty)
	assert.Equal(t, "450", rec.TheoreticalRuntime)

	w = do(t, r, http.MethodGet, "/api/records/"+rec.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPut, "/api/records/"+rec.ID, map[string]string{"actual_qty": "800"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.ProductionRecord](t, w)
	assert.Equal(t, "800", updated.ActualQty)
	assert.Equal(t, models.QtySourceManual, updated.ActualQtySource)

	w = do(t, r, http.MethodGet, "/api/records?process=stamping&start_date=2025-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.ProductionRecord](t, w), 1)

	w = do(t, r, http.MethodPost, "/api/comments/"+rec.ID+"/downtime_duration", map[string]string{"comment": "die change"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/comments/"+rec.ID+"/downtime_duration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "die change", decode[models.Comment](t, w).Text)

	w = do(t, r, http.MethodPost, "/api/records/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode[map[string]float64](t, w)["updated"])

	w = do(t, r, http.MethodDelete, "/api/records/"+rec.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, "/api/records/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_StatusMapping(t *testing.T) {
	r := newTestEngine(t)

	bad := shift()
	bad["date"] = "14/03/2025"
	w := do(t, r, http.MethodPost, "/api/records", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w), "error")

	w = do(t, r, http.MethodGet, "/api/statistics?end_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/records/missing", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/records", shift())
	rec := decode[models.ProductionRecord](t, w)

	w = do(t, r, http.MethodPut, "/api/records/"+rec.ID, map[string]string{"actual_qty": "-3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/comments/"+rec.ID+"/name", map[string]string{"comment": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/send-message", map[string]string{"to": "1", "message": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodPost, "/api/reports/mirror?date=2025-03-14", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodPost, "/api/reports/mirror?date=today", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CatalogAndPlans(t *testing.T) {
	r := newTestEngine(t)

	w := do(t, r, http.MethodPost, "/api/employees", map[string]string{"name": "Li Wei", "position": "operator"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, r, http.MethodPost, "/api/employees", map[string]string{"name": "Li Wei", "position": "setter"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, r, http.MethodPost, "/api/employees", map[string]string{"name": "Li Wei"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/products", map[string]string{"name": "M8 bolt"})
	require.Equal(t, http.StatusCreated, w.Code)
	product := decode[models.CatalogEntry](t, w)
	assert.Equal(t, models.CatalogProduct, product.Kind)

	w = do(t, r, http.MethodGet, "/api/processes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.CatalogEntry](t, w))

	w = do(t, r, http.MethodPost, "/api/records", shift())
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodDelete, "/api/products/"+product.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/production-plans", map[string]any{
		"product": "M8 bolt",
		"steps":   []map[string]any{{"process": "stamping", "qty": 1000}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decode[models.PlanProgress](t, w)
	require.Len(t, plan.Completion, 1)
	assert.Equal(t, int64(792), plan.Completion[0].ActualQty)
	assert.Equal(t, 79.2, plan.Completion[0].CompletionRate)

	w = do(t, r, http.MethodDelete, "/api/production-plans/"+plan.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_ExportAndImport(t *testing.T) {
	r := newTestEngine(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/records", shift()).Code)

	w := do(t, r, http.MethodGet, "/api/records/export.csv?start_date=2025-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "production_records_2025-03-01.csv")
	exported := w.Body.String()
	assert.True(t, strings.HasPrefix(exported, "date,name,position"))

	w = do(t, r, http.MethodGet, "/api/records/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotZero(t, w.Body.Len())

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "records.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(exported))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/records/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[exchange.ImportResult](t, w)
	assert.Equal(t, 1, result.Imported)

	w = do(t, r, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.Statistics](t, w)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, int64(1584), stats.TotalActualQty)

	w = do(t, r, http.MethodPost, "/api/records/import", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestEngine(t)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/reports/weekly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "no records yet")

	w = do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shiftlog_api_requests_total{method="GET",route="/api/reports/weekly",status="200"} 1`)
}
