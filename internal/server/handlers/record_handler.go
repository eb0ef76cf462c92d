package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/service/exchange"
	"github.com/mamadbah2/shiftlog/internal/service/records"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportBaseName  = "production_records"
)

// RecordHandler serves production records, their comments and file exchange.
type RecordHandler struct {
	records  *records.Service
	exchange *exchange.Service
	logger   *zap.Logger
}

// NewRecordHandler constructs the HTTP handler adapter.
func NewRecordHandler(recordSvc *records.Service, exchangeSvc *exchange.Service, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{records: recordSvc, exchange: exchangeSvc, logger: orNop(logger)}
}

// List returns the records matching the query filter, newest first.
func (h *RecordHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	recs, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Create logs a new shift and returns it with derived fields filled.
func (h *RecordHandler) Create(c *gin.Context) {
	var input models.RecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, "invalid record payload", err)
		return
	}

	rec, err := h.records.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Get returns one record.
func (h *RecordHandler) Get(c *gin.Context) {
	rec, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update applies a partial edit. Absent fields are kept.
func (h *RecordHandler) Update(c *gin.Context) {
	var patch models.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, "invalid record patch", err)
		return
	}

	rec, err := h.records.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Delete removes a record together with its comments.
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Recompute re-derives every stored record.
func (h *RecordHandler) Recompute(c *gin.Context) {
	n, err := h.records.RecomputeAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Statistics aggregates the records matching the query filter.
func (h *RecordHandler) Statistics(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	stats, err := h.records.Statistics(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetComment returns the note of a record column; an absent note is empty.
func (h *RecordHandler) GetComment(c *gin.Context) {
	comment, err := h.records.GetComment(c.Request.Context(), c.Param("record_id"), c.Param("column_key"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// SaveComment stores the note of a record column. Blank text clears it.
func (h *RecordHandler) SaveComment(c *gin.Context) {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid comment payload", err)
		return
	}

	comment, err := h.records.SaveComment(c.Request.Context(), c.Param("record_id"), c.Param("column_key"), req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// ExportCSV streams the filtered records as a CSV attachment.
func (h *RecordHandler) ExportCSV(c *gin.Context) {
	h.export(c, csvContentType, ".csv", h.exchange.WriteCSV)
}

// ExportXLSX streams the filtered records as an Excel workbook.
func (h *RecordHandler) ExportXLSX(c *gin.Context) {
	h.export(c, xlsxContentType, ".xlsx", h.exchange.WriteXLSX)
}

// Import loads records from the multipart "file" field.
func (h *RecordHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, h.logger, "missing import file", err)
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer file.Close()

	result, err := h.exchange.ImportCSV(c.Request.Context(), file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("records imported",
		zap.String("file", header.Filename),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	c.JSON(http.StatusOK, result)
}

func (h *RecordHandler) export(c *gin.Context, contentType, ext string, write func(w io.Writer, recs []models.ProductionRecord) error) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	recs, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+exportName(filter)+ext+`"`)
	c.Status(http.StatusOK)
	if err := write(c.Writer, recs); err != nil {
		// headers are already out; the client sees a truncated file
		h.logger.Error("export failed", zap.String("format", ext), zap.Error(err))
	}
}

func (h *RecordHandler) bindFilter(c *gin.Context) (models.RecordFilter, bool) {
	var filter models.RecordFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, h.logger, "invalid record filter", err)
		return filter, false
	}
	return filter, true
}

// exportName suffixes the base name with the filtered date range.
func exportName(filter models.RecordFilter) string {
	parts := []string{exportBaseName}
	if filter.StartDate != "" {
		parts = append(parts, filter.StartDate)
	}
	if filter.EndDate != "" {
		parts = append(parts, filter.EndDate)
	}
	return strings.Join(parts, "_")
}
