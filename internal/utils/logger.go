package utils

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging facade used across handlers and bootstrap code.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

// SlogLogger backs Logger with a structured slog handler.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(level slog.Level, environment string) *SlogLogger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

func NewSlogLoggerFrom(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}

type contextLoggerKey struct{}

// ContextLogger attaches a request-scoped logger (with request_id) to the
// request context.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLogger = logger.With("request_id", requestID)
		}
		ctx := context.WithValue(c.Request.Context(), contextLoggerKey{}, requestLogger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromContext returns the request-scoped logger, falling back to fallback.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(contextLoggerKey{}).(Logger); ok {
		return l
	}
	return fallback
}

// LoggerMiddleware logs one structured line per request.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
			"client_ip", c.ClientIP())
	}
}
