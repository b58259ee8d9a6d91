package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backoffice/internal/interfaces/http/dto"
)

// BodyLimit rejects form submissions larger than maxBytes
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", requestID(c)))
			return
		}

		// Bodies without a declared length are capped while streaming
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
