package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/passpilot-api/pkg/config"
	"github.com/noah-isme/passpilot-api/pkg/middleware/requestid"
)

// Context keys other middleware use to expose the caller identity to the access log.
const (
	ContextUserIDKey   = "log_user_id"
	ContextSchoolIDKey = "log_school_id"

	maxLoggedBody = 2048
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// GinMiddleware writes one access line per request. Server errors are logged at
// error level with the attached causes, the caller identity, and a bounded copy
// of the request body.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var body []byte
		if c.Request.Body != nil && c.Request.Method != http.MethodGet {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if userID, ok := c.Get(ContextUserIDKey); ok {
			fields = append(fields, zap.Any("user_id", userID))
		}
		if schoolID, ok := c.Get(ContextSchoolIDKey); ok {
			fields = append(fields, zap.Any("school_id", schoolID))
		}

		if status >= http.StatusInternalServerError {
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("error", c.Errors.String()))
			}
			if len(body) > 0 {
				fields = append(fields, zap.ByteString("body", redact(body)))
			}
			l.Error("http_request", fields...)
			return
		}

		l.Info("http_request", fields...)
	}
}

var secretKeys = [][]byte{[]byte(`"password"`), []byte(`"newPassword"`), []byte(`"currentPassword"`), []byte(`"pin"`), []byte(`"code"`)}

// redact drops bodies that may carry credentials.
func redact(body []byte) []byte {
	for _, key := range secretKeys {
		if bytes.Contains(body, key) {
			return []byte("[redacted]")
		}
	}
	return body
}
