package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_LogsLevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
		msg    string
	}{
		{name: "ok", status: http.StatusOK, level: "info", msg: "request served"},
		{name: "client error", status: http.StatusNotFound, level: "warn", msg: "request rejected"},
		{name: "server error", status: http.StatusBadGateway, level: "error", msg: "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			log := NewZapAdapter(zap.New(core))

			h := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/listings/search", nil))

			entries := logs.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.msg, entries[0].Message)
				assert.Equal(t, tt.level, entries[0].Level.String())
				assert.Equal(t, "/listings/search", entries[0].ContextMap()["path"])
			}
		})
	}
}
