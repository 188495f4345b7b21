package handler

import (
	"github.com/gin-gonic/gin"

	"splat-service/internal/domain"
	"splat-service/internal/usecase"
)

const serviceVersion = "1.0.0"

type Handler struct {
	splat         *usecase.SplatUseCase
	runtime       domain.ModelRuntime
	awsConfigured bool
}

func New(splat *usecase.SplatUseCase, runtime domain.ModelRuntime, awsConfigured bool) *Handler {
	return &Handler{splat: splat, runtime: runtime, awsConfigured: awsConfigured}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/splat", h.CreateSplat)
}
