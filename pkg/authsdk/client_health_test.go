package authsdk

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReadinessDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/livez" {
			_, _ = w.Write([]byte(`{"status":"ok","uptime":"1s","version":"test"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","uptime":"1s","version":"test","checks":{"database":"unreachable","tickets":"ok"}}`))
	}))
	defer srv.Close()

	c := NewSDKClient(srv.URL)

	live, err := c.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.GetReadiness(t.Context())
	require.ErrorIs(t, err, ErrDegraded)
	require.NotNil(t, ready)
	require.Equal(t, "degraded", ready.Status)
}
