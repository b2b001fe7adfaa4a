package handlers

import (
	"errors"
	"net/http"

	"ecocycle/services/collection"
	"ecocycle/services/ledger"

	"github.com/gin-gonic/gin"
)

// respondError translates domain errors into HTTP responses. Conflicts are
// 409 so clients know to re-fetch and retry against fresh state; transient
// storage failures are 503 so clients know retrying the same call is safe.
func respondError(c *gin.Context, err error) {
	var transient *collection.TransientError

	switch {
	case errors.Is(err, collection.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, collection.ErrValidation),
		errors.Is(err, collection.ErrEvidenceRequired),
		errors.Is(err, collection.ErrCenterRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, collection.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, collection.ErrAlreadyClaimed),
		errors.Is(err, collection.ErrCollectorBusy),
		errors.Is(err, collection.ErrAlreadyModified),
		errors.Is(err, collection.ErrInvalidTransition),
		errors.Is(err, collection.ErrCenterNotEligible),
		errors.Is(err, collection.ErrCenterUnavailable),
		errors.Is(err, collection.ErrNoEligibleCenter):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInconsistency):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger inconsistency detected; flagged for reconciliation"})
	case errors.As(err, &transient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary storage failure, retry shortly"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
