package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/n-kyan/microsoft-auth/pkg/config"
)

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "console"}})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestFingerprintHidesSecret(t *testing.T) {
	field := Fingerprint("token", "super-secret-token")
	assert.Len(t, field.String, 8)
	assert.NotContains(t, field.String, "secret")
	assert.Equal(t, Fingerprint("token", "super-secret-token").String, field.String)
	assert.Empty(t, Fingerprint("token", "").String)
}

func TestGinMiddlewareOmitsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.POST("/auth/complete", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	req := httptest.NewRequest(http.MethodPost, "/auth/complete?device_code=secret-code", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/auth/complete", ctx["path"])
	for _, v := range ctx {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret-code")
		}
	}
}
