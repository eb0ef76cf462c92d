package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/service/notify"
	"github.com/mamadbah2/shiftlog/internal/service/reporting"
)

// ReportHandler exposes the weekly digest, the Sheets mirror and manual
// WhatsApp messages.
type ReportHandler struct {
	reporting *reporting.Service
	sender    notify.Sender
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(reportingSvc *reporting.Service, sender notify.Sender, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reporting: reportingSvc, sender: sender, logger: orNop(logger), now: time.Now}
}

// WeeklySummary returns the current week's digest and its rendered text.
func (h *ReportHandler) WeeklySummary(c *gin.Context) {
	now := h.now()
	summary, err := h.reporting.WeeklySummary(c.Request.Context(), now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	text, err := h.reporting.GenerateWeeklyReport(c.Request.Context(), now)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "text": text})
}

// SendWeeklyReport pushes the current digest to the report recipient.
func (h *ReportHandler) SendWeeklyReport(c *gin.Context) {
	text, err := h.reporting.GenerateWeeklyReport(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	id, err := h.sender.SendOutbound(c.Request.Context(), models.OutboundMessageRequest{Message: text})
	if err != nil {
		h.sendFailed(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": id})
}

// SendMessage allows sending manual messages to supervisors.
func (h *ReportHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid outbound payload", err)
		return
	}

	id, err := h.sender.SendOutbound(c.Request.Context(), req)
	if err != nil {
		h.sendFailed(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": id})
}

// MirrorToSheet appends the records of ?date= (today by default) to the sheet.
func (h *ReportHandler) MirrorToSheet(c *gin.Context) {
	day := h.now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("date %q must be YYYY-MM-DD", raw)})
			return
		}
		day = parsed
	}

	n, err := h.reporting.MirrorToSheet(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(models.DateLayout), "appended": n})
}

// sendFailed answers 502 when the WhatsApp API itself rejected the message.
func (h *ReportHandler) sendFailed(c *gin.Context, err error) {
	if statusFor(err) != http.StatusInternalServerError {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Error("failed sending outbound", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
}
