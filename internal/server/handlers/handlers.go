package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
	"github.com/mamadbah2/shiftlog/internal/service/catalog"
	"github.com/mamadbah2/shiftlog/internal/service/exchange"
	"github.com/mamadbah2/shiftlog/internal/service/notify"
	"github.com/mamadbah2/shiftlog/internal/service/planning"
	"github.com/mamadbah2/shiftlog/internal/service/records"
	"github.com/mamadbah2/shiftlog/internal/service/reporting"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the custom binding tags to gin's validator.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerOn(binding.Validator.Engine())
	})
	return registerErr
}

func registerOn(engine any) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", engine)
	}
	if err := v.RegisterValidation("isodate", isISODate); err != nil {
		return fmt.Errorf("register isodate: %w", err)
	}
	return nil
}

// isISODate accepts calendar dates in YYYY-MM-DD form.
func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}

// statusFor maps service sentinels to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, catalog.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, records.ErrInvalidInput),
		errors.Is(err, records.ErrUnsupportedColumn),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, planning.ErrInvalidInput),
		errors.Is(err, exchange.ErrMissingHeader),
		errors.Is(err, notify.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, notify.ErrDisabled),
		errors.Is(err, reporting.ErrSheetsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal failures are logged and
// answered with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
