package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splat-service/internal/domain"
)

// Health reports the compute-device binding and storage configuration. The
// unit is "healthy" whenever it can serve; an unreachable runtime degrades
// the device fields rather than failing the probe.
func (h *Handler) Health(c *gin.Context) {
	info := &domain.DeviceInfo{Device: "unknown"}
	if di, err := h.runtime.Info(c.Request.Context()); err == nil {
		info = di
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"cuda_available": info.CUDAAvailable,
		"device":         info.Device,
		"aws_configured": h.awsConfigured,
	})
}

// Root serves the static service-info payload.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "SHARP View Synthesis Web API",
		"version": serviceVersion,
		"endpoints": gin.H{
			"/splat":  "POST - Upload image, generate 3D Gaussian PLY, return public URL",
			"/health": "GET - Health check",
		},
		"usage": "POST image file to /splat with multipart/form-data field 'file'",
	})
}
