package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/internal/storage"
	"github.com/roamerhq/roamer-api/pkg/response"
)

// stageUpload reads the multipart "image" part and stages it in the
// artifact store. Writes the error response itself when it fails; the
// returned reference belongs to the caller from here on.
func stageUpload(c *gin.Context, store storage.ArtifactStore, logger *logrus.Logger, maxUpload int64) (string, bool) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "image is required", nil))
		return "", false
	}
	if maxUpload > 0 && file.Size > maxUpload {
		c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "image too large", nil))
		return "", false
	}

	f, err := file.Open()
	if err != nil {
		logger.WithError(err).Error("open upload failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "upload failed", nil))
		return "", false
	}
	defer func() { _ = f.Close() }()

	ref, err := store.Stage(c.Request.Context(), f, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			c.JSON(http.StatusBadRequest, response.Error[any](c, http.StatusBadRequest, "invalid image format", nil))
			return "", false
		}
		logger.WithError(err).Error("stage upload failed")
		c.JSON(http.StatusInternalServerError, response.Error[any](c, http.StatusInternalServerError, "upload failed", nil))
		return "", false
	}
	return ref, true
}
