package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/models"
)

// imageFormField is the multipart field carrying the file.
const imageFormField = "image"

// ImageHandler uploads images and resolves their download URLs.
type ImageHandler struct {
	images core.ImageStore
	logger *zap.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images core.ImageStore, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// respond replies 201 with the new image id. A missing URL is not fatal: the
// upload succeeded and the client can ask for the URL again later.
func (h *ImageHandler) respond(c *gin.Context, id string) {
	url, err := h.images.URL(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Uploaded image has no URL yet", zap.String("id", id), zap.Error(err))
		url = ""
	}
	c.JSON(http.StatusCreated, ImageResponse{ID: id, URL: url})
}

// Upload handles POST /images with a multipart "image" file.
// The part's own Content-Type must be image/*; the store enforces the size cap
// while streaming, so the file is never buffered whole in memory.
func (h *ImageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile(imageFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "An image file is required", Details: err.Error()})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read the uploaded file", Details: err.Error()})
		return
	}
	defer f.Close()

	id, err := h.images.Upload(c.Request.Context(), f, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	h.respond(c, id)
}

// UploadFromURL handles POST /images/from-url with {"url": "..."}.
// Hosts on private or loopback networks are refused with 400, and a failed
// fetch is reported without the upstream status.
func (h *ImageHandler) UploadFromURL(c *gin.Context) {
	var req models.UploadFromURLRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.images.UploadFromURL(c.Request.Context(), req.URL)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	h.respond(c, id)
}

// GetURL handles GET /images/:id/url.
func (h *ImageHandler) GetURL(c *gin.Context) {
	id := c.Param("id")
	url, err := h.images.URL(c.Request.Context(), id)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ImageResponse{ID: id, URL: url})
}
