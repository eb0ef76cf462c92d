package router

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/config"
	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
	"github.com/mamadbah2/shiftlog/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Records *handlers.RecordHandler
	Catalog *handlers.CatalogHandler
	Reports *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, cfg config.ServerConfig, m *metrics.Metrics, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(m))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")

	rec := api.Group("/records")
	rec.GET("", h.Records.List)
	rec.POST("", h.Records.Create)
	rec.POST("/recompute", h.Records.Recompute)
	rec.POST("/import", h.Records.Import)
	rec.GET("/export.csv", h.Records.ExportCSV)
	rec.GET("/export.xlsx", h.Records.ExportXLSX)
	rec.GET("/:id", h.Records.Get)
	rec.PUT("/:id", h.Records.Update)
	rec.DELETE("/:id", h.Records.Delete)

	api.GET("/comments/:record_id/:column_key", h.Records.GetComment)
	api.POST("/comments/:record_id/:column_key", h.Records.SaveComment)
	api.GET("/statistics", h.Records.Statistics)

	api.GET("/employees", h.Catalog.ListEmployees)
	api.POST("/employees", h.Catalog.CreateEmployee)
	api.DELETE("/employees/:id", h.Catalog.DeleteEmployee)

	for path, kind := range map[string]models.CatalogKind{
		"/products":  models.CatalogProduct,
		"/processes": models.CatalogProcess,
	} {
		api.GET(path, h.Catalog.ListEntries(kind))
		api.POST(path, h.Catalog.CreateEntry(kind))
		api.DELETE(path+"/:id", h.Catalog.DeleteEntry(kind))
	}

	api.GET("/production-plans", h.Catalog.ListPlans)
	api.POST("/production-plans", h.Catalog.SavePlan)
	api.DELETE("/production-plans/:id", h.Catalog.DeletePlan)

	api.GET("/reports/weekly", h.Reports.WeeklySummary)
	api.POST("/reports/weekly/send", h.Reports.SendWeeklyReport)
	api.POST("/reports/mirror", h.Reports.MirrorToSheet)
	api.POST("/send-message", h.Reports.SendMessage)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r, nil
}

// corsConfig allows every origin when the list is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowMethods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions)
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition")
	return cfg
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// metricsMiddleware labels requests by route template to keep cardinality bounded.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveAPI(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
