package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"docdash-backend/internal/shared/server/respond"
	"docdash-backend/internal/shared/storage/object"
)

func serveBlob(store object.ObjectStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		obj, err := store.Open(c.Request.Context(), key)
		if err != nil {
			switch {
			case errors.Is(err, object.ErrNotFound), errors.Is(err, object.ErrInvalidKey):
				respond.Error(c, http.StatusNotFound, "Not found", nil)
			default:
				respond.Error(c, http.StatusInternalServerError, "Failed to read file", err)
			}
			return
		}
		defer obj.Close()

		contentType := obj.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(path.Ext(key))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Type", contentType)
		c.Header("X-Content-Type-Options", "nosniff")
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, obj)
	}
}
