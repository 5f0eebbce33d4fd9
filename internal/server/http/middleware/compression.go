package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestBody caps receipt payloads after decompression.
const MaxRequestBody int64 = 4 << 20

// DecompressRequest inflates gzip encoded bodies and bounds every body to MaxRequestBody.
func DecompressRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil {
			c.Next()
			return
		}
		if !strings.Contains(strings.ToLower(c.GetHeader("Content-Encoding")), "gzip") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBody)
			c.Next()
			return
		}

		compressed := c.Request.Body
		reader, err := gzip.NewReader(compressed)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed gzip body"})
			return
		}
		defer compressed.Close()
		defer reader.Close()

		c.Request.Body = http.MaxBytesReader(c.Writer, io.NopCloser(reader), MaxRequestBody)
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}
