package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"splat-service/internal/domain"
)

// mapDomainError translates the error taxonomy into caller-facing statuses.
// Every failure carries a single descriptive detail; internal stack detail
// never leaks past this point.
func mapDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})

	case errors.Is(err, domain.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})

	case errors.Is(err, domain.ErrInferenceResourceExhausted),
		errors.Is(err, domain.ErrInferenceFailed),
		errors.Is(err, domain.ErrPublishFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}
