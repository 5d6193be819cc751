package analysis

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helioslend/helios/internal/pagination"
	"github.com/helioslend/helios/internal/validation"
	"github.com/helioslend/helios/internal/waterfall"
)

// Handler provides HTTP endpoints for running and reading analyses.
type Handler struct {
	service *Service
}

// NewHandler creates a new analysis handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up analysis routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/analyses", h.CreateAnalysis)
	r.GET("/analyses/:id", h.GetAnalysis)
	r.GET("/analyses", h.ListAnalyses)
}

// CreateAnalysis handles POST /v1/analyses
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	if errs := validation.Validate(
		validation.ValidTaxID("taxId", req.TaxID),
		validation.ValidState("state", req.State),
		validation.MaxLength("businessName", req.BusinessName, 255),
		validation.MaxLength("accountId", req.AccountID, 255),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": errs.Error(),
			"details": errs,
		})
		return
	}

	rec, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, waterfall.ErrNoTransactions):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "no_transactions",
				"message": "Analysis requires at least one parseable transaction",
			})
		case errors.Is(err, ErrInvalidOpeningBalance), errors.Is(err, ErrInvalidTransaction):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_statement",
				"message": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "analysis_failed",
				"message": "Failed to run analysis",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"analysis": rec})
}

// GetAnalysis handles GET /v1/analyses/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Analysis not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "lookup_failed",
			"message": "Failed to load analysis",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": rec})
}

// ListAnalyses handles GET /v1/analyses?accountId=...&limit=...
func (h *Handler) ListAnalyses(c *gin.Context) {
	accountID := c.Query("accountId")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_account_id",
			"message": "accountId query parameter is required",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be between 1 and 200",
			})
			return
		}
		limit = n
	}

	var opts []ListOption
	if cursor := c.Query("cursor"); cursor != "" {
		opts = append(opts, WithCursor(cursor))
	}

	// Fetch one extra row to detect whether another page exists.
	recs, err := h.service.ListByAccount(c.Request.Context(), accountID, limit+1, opts...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "lookup_failed",
			"message": "Failed to list analyses",
		})
		return
	}

	recs, nextCursor, hasMore := pagination.ComputePage(recs, limit, func(r *Record) (time.Time, string) {
		return r.CreatedAt, r.ID
	})
	if recs == nil {
		recs = []*Record{}
	}

	resp := gin.H{
		"analyses": recs,
		"count":    len(recs),
		"has_more": hasMore,
	}
	if nextCursor != "" {
		resp["next_cursor"] = nextCursor
	}
	c.JSON(http.StatusOK, resp)
}
