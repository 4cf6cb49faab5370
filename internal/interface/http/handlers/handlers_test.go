package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkglogger "github.com/servicehours/hours-hub/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func TestCompositeHealthChecker_NoChecks(t *testing.T) {
	status := NewCompositeHealthChecker("1.2.3").Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Equal(t, "No health checks registered", status.Message)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestCompositeHealthChecker_AggregatesFailures(t *testing.T) {
	hc := NewCompositeHealthChecker("v1")
	hc.AddCheck("store", NewPingCheck(pingerFunc(func(context.Context) error { return nil })))
	hc.AddCheck("redis", NewPingCheck(pingerFunc(func(context.Context) error { return errors.New("connection refused") })))
	hc.AddCheck("broker", func(context.Context) error { return errors.New("down") })

	status := hc.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: broker, redis", status.Message)
	require.Len(t, status.Checks, 3)
	assert.True(t, status.Checks["store"].Healthy)
	assert.Equal(t, "OK", status.Checks["store"].Message)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	hc := NewCompositeHealthChecker("v1")
	hc.SetTimeout(10 * time.Millisecond)
	hc.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := hc.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"].Message)
}

func TestCompositeHealthChecker_IgnoresNonPositiveTimeout(t *testing.T) {
	hc := NewCompositeHealthChecker("v1")
	hc.SetTimeout(0)

	var remaining time.Duration
	hc.AddCheck("store", func(ctx context.Context) error {
		if deadline, ok := ctx.Deadline(); ok {
			remaining = time.Until(deadline)
		}
		return nil
	})

	assert.True(t, hc.Check(context.Background()).Healthy)
	assert.Greater(t, remaining, time.Second)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

func newRouter(logger *slog.Logger, register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(logger), RequestLogger(logger, "/skip"), SecurityHeaders())
	register(r)
	return r
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	r := newRouter(slog.Default(), func(r *gin.Engine) {
		r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_AttachesLoggerToContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := newRouter(logger, func(r *gin.Engine) {
		r.GET("/work", func(c *gin.Context) {
			pkglogger.FromContext(c.Request.Context()).Info("inside handler")
			c.Status(http.StatusNoContent)
		})
		r.GET("/skip", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `msg="inside handler" request_id=req-7`)
	assert.Contains(t, out, `msg="http request"`)
	assert.Contains(t, out, "status=204")

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/skip", nil))
	assert.NotContains(t, buf.String(), `msg="http request"`)
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := newRouter(logger, func(r *gin.Engine) {
		r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error","message":"internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}
