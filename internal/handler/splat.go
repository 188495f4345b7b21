package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"splat-service/internal/domain"
)

type splatResponse struct {
	PLYURL   string                `json:"ply_url"`
	Metadata domain.ResultMetadata `json:"metadata"`
}

// CreateSplat handles POST /splat: multipart form with a required image
// `file`, optional `f_px` focal length, optional `format` selector. Input is
// rejected here, before any model or GPU work happens.
func (h *Handler) CreateSplat(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing file field in multipart form"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid file type: " + contentType + ", must be an image"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "unreadable file upload"})
		return
	}
	defer f.Close()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "unreadable file upload"})
		return
	}
	if len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "empty file uploaded"})
		return
	}

	opts := domain.SplatOptions{Format: domain.ArtifactFormat(c.PostForm("format"))}
	if raw := c.PostForm("f_px"); raw != "" {
		fPx, err := strconv.ParseFloat(raw, 64)
		if err != nil || fPx <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "f_px must be a positive number"})
			return
		}
		opts.FocalLengthPx = &fPx
	}

	req := &domain.SplatRequest{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Image:       imageBytes,
		Options:     opts,
	}

	log.WithFields(log.Fields{
		"filename":     req.Filename,
		"content_type": contentType,
		"size_bytes":   len(imageBytes),
	}).Info("splat request received")

	result, err := h.splat.Process(c.Request.Context(), req)
	if err != nil {
		log.WithError(err).WithField("filename", req.Filename).Warn("splat request failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, splatResponse{PLYURL: result.URL, Metadata: result.Metadata})
}
