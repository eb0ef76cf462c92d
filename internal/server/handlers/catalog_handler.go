package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/service/catalog"
	"github.com/mamadbah2/shiftlog/internal/service/planning"
)

// CatalogHandler serves the employee roster, the product and process lists
// and the production plans.
type CatalogHandler struct {
	catalog  *catalog.Service
	planning *planning.Service
	logger   *zap.Logger
}

// NewCatalogHandler constructs the HTTP handler adapter.
func NewCatalogHandler(catalogSvc *catalog.Service, planningSvc *planning.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc, planning: planningSvc, logger: orNop(logger)}
}

func (h *CatalogHandler) ListEmployees(c *gin.Context) {
	employees, err := h.catalog.ListEmployees(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *CatalogHandler) CreateEmployee(c *gin.Context) {
	var req models.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid employee payload", err)
		return
	}

	employee, err := h.catalog.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (h *CatalogHandler) DeleteEmployee(c *gin.Context) {
	if err := h.catalog.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEntries returns the product or process names.
func (h *CatalogHandler) ListEntries(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.catalog.List(c.Request.Context(), kind)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// CreateEntry adds a product or process name.
func (h *CatalogHandler) CreateEntry(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CatalogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.logger, "invalid catalog payload", err)
			return
		}

		entry, err := h.catalog.Create(c.Request.Context(), kind, req)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

// DeleteEntry removes a product or process name that nothing references.
func (h *CatalogHandler) DeleteEntry(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.catalog.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListPlans returns every plan with its completion against logged output.
func (h *CatalogHandler) ListPlans(c *gin.Context) {
	plans, err := h.planning.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// SavePlan creates or replaces the plan of a product.
func (h *CatalogHandler) SavePlan(c *gin.Context) {
	var req models.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid plan payload", err)
		return
	}

	plan, err := h.planning.Save(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *CatalogHandler) DeletePlan(c *gin.Context) {
	if err := h.planning.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
