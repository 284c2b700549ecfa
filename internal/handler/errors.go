package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// respondError maps subsystem sentinel errors onto HTTP status codes. The
// true state of money movement is always surfaced; ambiguous outcomes get a
// 409 telling the operator to verify manually.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateBatch),
		errors.Is(err, models.ErrAlreadySubmitted),
		errors.Is(err, models.ErrSubmissionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAmbiguousSubmission):
		c.JSON(http.StatusConflict, gin.H{
			"error":  err.Error(),
			"action": "verify with processor before retrying",
		})
	case errors.Is(err, models.ErrNoEligibleMembers),
		errors.Is(err, models.ErrPastCutoff):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrInvalidRefundAmount),
		errors.Is(err, models.ErrRefundSourceNotSettled):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
