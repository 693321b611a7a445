package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 將錯誤轉為統一格式的 JSON 響應
func WriteError(c *gin.Context, err error, debug bool) {
	ce := AsCustomError(err)
	status := ce.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": ce.ToResponse(debug)})
}
