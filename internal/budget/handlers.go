package budget

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes the daily verification-spend ledger.
type Handler struct {
	accountant Accountant
}

// NewHandler creates a budget handler over the given accountant.
func NewHandler(accountant Accountant) *Handler {
	return &Handler{accountant: accountant}
}

// RegisterRoutes sets up budget routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/budget", h.GetBudget)
}

// GetBudget handles GET /v1/budget
func (h *Handler) GetBudget(c *gin.Context) {
	usage, err := h.accountant.Usage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "budget_unavailable",
			"message": "Failed to read budget ledger",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": usage})
}
