package common

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"pseudoenzymes-backend/logging"
	"time"
)

// LogRequest 每个请求结束后记录一行访问日志
func LogRequest(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()

	logging.Default().WithFields(logrus.Fields{
		"method":  ctx.Request.Method,
		"path":    ctx.Request.URL.Path,
		"query":   ctx.Request.URL.RawQuery,
		"status":  ctx.Writer.Status(),
		"elapsed": time.Since(start).String(),
	}).Info("request")
}
