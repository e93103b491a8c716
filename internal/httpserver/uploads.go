package httpserver

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/media"
)

const maxUploadFiles = 10

// upload stores images sent as "image" (single) or "images" (multiple)
// multipart fields and answers with their public URLs.
func (h *handlers) upload(c *gin.Context) {
	if h.deps.Uploader == nil {
		abortError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "image storage not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadFiles*media.MaxImageSize+1<<20)

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err)
		return
	}
	files := append(form.File["image"], form.File["images"]...)
	switch {
	case len(files) == 0:
		badRequest(c, fmt.Errorf("no image or images field"))
		return
	case len(files) > maxUploadFiles:
		badRequest(c, fmt.Errorf("at most %d images per request", maxUploadFiles))
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.store(c, fh)
		if err != nil {
			writeError(c, err)
			return
		}
		urls = append(urls, url)
	}

	if len(form.File["images"]) == 0 && len(urls) == 1 {
		c.JSON(http.StatusCreated, gin.H{"imageUrl": urls[0]})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imageUrls": urls})
}

func (h *handlers) store(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	url, err := h.deps.Uploader.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		h.logger.Warn("image upload failed", zap.String("filename", fh.Filename), zap.Error(err))
		return "", err
	}
	return url, nil
}
