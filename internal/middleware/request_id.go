package middleware

import (
	"flowmaster/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID 请求ID请求头
const HeaderRequestID = "X-Request-ID"

// requestIDGinKey Gin 上下文键
const requestIDGinKey = "request_id"

// RequestIDMiddleware 请求 ID 中间件
// 为每个请求生成唯一的请求 ID，支持上游传递
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置到 Gin 上下文并注入标准 context，日志按请求ID关联
		c.Set(requestIDGinKey, requestID)
		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// GetRequestIDFromGin 从 Gin 上下文获取请求 ID
func GetRequestIDFromGin(c *gin.Context) string {
	if id, exists := c.Get(requestIDGinKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
