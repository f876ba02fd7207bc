package hub

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSunClient_Sunset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "17.97787", r.URL.Query().Get("lat"))
		assert.Equal(t, "-76.77339", r.URL.Query().Get("lng"))
		assert.Equal(t, "0", r.URL.Query().Get("formatted"))
		_, _ = io.WriteString(w, `{"results":{"sunrise":"2024-03-01T11:20:01+00:00","sunset":"2024-03-01T23:05:44+00:00"},"status":"OK"}`) //nolint:errcheck // test helper
	}))
	defer server.Close()

	client := &SunClient{Client: server.Client(), URL: server.URL, Latitude: 17.97787, Longitude: -76.77339}
	sunset, err := client.Sunset(context.Background())
	require.NoError(t, err)
	assert.True(t, sunset.Equal(time.Date(2024, 3, 1, 23, 5, 44, 0, time.UTC)))
}

func TestSunClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Server error", `oops`, http.StatusInternalServerError},
		{"Bad status field", `{"results":{},"status":"INVALID_REQUEST"}`, http.StatusOK},
		{"Bad JSON", `{`, http.StatusOK},
		{"Bad timestamp", `{"results":{"sunset":"7:05:44 PM"},"status":"OK"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body) //nolint:errcheck // test helper
			}))
			defer server.Close()

			client := &SunClient{Client: server.Client(), URL: server.URL}
			_, err := client.Sunset(context.Background())
			assert.Error(t, err)
		})
	}
}
