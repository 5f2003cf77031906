package accesslog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"wikidot-gateway/middleware/requestid"
)

func TestMiddleware_LogsStatusAndSize(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := requestid.Middleware(Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("nope"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	req.Header.Set(requestid.Header, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/pages", fields["path"])
	assert.EqualValues(t, http.StatusTooManyRequests, fields["status"])
	assert.EqualValues(t, 4, fields["response_size"])
	assert.Equal(t, "req-1", fields["request_id"])
}
