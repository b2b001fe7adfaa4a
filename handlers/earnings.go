package handlers

import (
	"net/http"

	"ecocycle/services/ledger"

	"github.com/gin-gonic/gin"
)

// EarningsHandler serves a collector's commission history and totals.
type EarningsHandler struct {
	View *ledger.EarningsView
}

func NewEarningsHandler(view *ledger.EarningsView) *EarningsHandler {
	return &EarningsHandler{View: view}
}

// GetEarnings returns the authenticated collector's earnings summary.
func (h *EarningsHandler) GetEarnings(c *gin.Context) {
	summary, err := h.View.GetEarnings(c, c.GetString("actorID"))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to load earnings, retry shortly"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": summary})
}
