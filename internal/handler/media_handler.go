package handler

import (
	"net/http"

	"github.com/Baaaki/pet-adoption/internal/service"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaService  *service.MediaService
	maxImageBytes int64
}

func NewMediaHandler(mediaService *service.MediaService, maxImageBytes int64) *MediaHandler {
	return &MediaHandler{
		mediaService:  mediaService,
		maxImageBytes: maxImageBytes,
	}
}

// UploadAndAnalyze stores the image and returns its URL with detected labels.
// A labeling failure fails the request.
func (h *MediaHandler) UploadAndAnalyze(c *gin.Context) {
	if !isMultipart(c) {
		respondError(c, errNoImage)
		return
	}
	limitBody(c, h.maxImageBytes)

	image, err := readImage(c, "image", h.maxImageBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	stored, labels, err := h.mediaService.UploadAndAnalyze(c.Request.Context(), *image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imageUrl": stored.URL,
		"labels":   labels,
	})
}
