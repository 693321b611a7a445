package middleware

import (
	"fmt"
	"net/http"

	"dining-ranker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BodySizeLimit 拒絕宣告長度超過上限的請求；未宣告長度的請求在讀取時截斷
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	tooLarge := common.ErrBodyTooLarge.WithMessage(fmt.Sprintf("Request body exceeds %d bytes", maxSize))

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			common.LogWarn("請求體過大",
				zap.Int64("content_length", c.Request.ContentLength),
				zap.Int64("max_size", maxSize),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.Abort()
			common.WriteError(c, tooLarge, false)
			return
		}

		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
