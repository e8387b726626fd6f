package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReportLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewHandlers(nil, nil, nil, nil, nil, zap.New(core))

	router := gin.New()
	router.POST("/api/logs", h.ReportLogs)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"entries":[
		{"level":"error","message":"Cover request failed","window":"record-list","context":{"title":"Dune","attempt":2}},
		{"level":"debug","message":"Window focused"}
	]}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	entries := logs.FilterLoggerName("desktop-ui").AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Cover request failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "record-list", fields["window"])
	assert.Equal(t, "Dune", fields["ctx.title"])
	assert.Equal(t, float64(2), fields["ctx.attempt"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)

	assert.Equal(t, http.StatusBadRequest, post(`{"entries":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)

	many := strings.Repeat(`{"level":"info","message":"x"},`, maxClientLogEntries) + `{"level":"info","message":"x"}`
	assert.Equal(t, http.StatusBadRequest, post(`{"entries":[`+many+`]}`).Code)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
}
