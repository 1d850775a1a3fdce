package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader — заголовок, в котором клиенту возвращается идентификатор запроса
const RequestIDHeader = "X-Request-ID"

// ContextRequestIDKey — ключ идентификатора запроса в контексте Gin
const ContextRequestIDKey = "request_id"

// RequestID присваивает каждому запросу уникальный идентификатор для
// корреляции записей в логах. Переданный клиентом идентификатор сохраняется.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
