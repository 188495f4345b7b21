package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimit bounds the number of in-flight requests on this compute
// unit. Load above the bound is the platform's to queue via scale-out; the
// gate only has to hold the line locally, so it waits on the semaphore while
// the request context is alive instead of rejecting outright.
func ConcurrencyLimit(maxInFlight int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(maxInFlight)

	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			// Context canceled or deadline hit while waiting for a slot.
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"detail": "request canceled while waiting for capacity"})
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
