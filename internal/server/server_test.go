package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/callwriter/internal/config"
)

func newTestServer(cfg *config.Config) *Server {
	return New(Config{
		Log:    zerolog.New(nil).Level(zerolog.Disabled),
		Config: cfg,
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&config.Config{Port: 8001, DevMode: true})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "callwriter", response["service"])
	assert.Equal(t, Version, response["version"])
	assert.Equal(t, "unavailable", response["analysis"])
	assert.NotEmpty(t, w.Header().Get("Content-Type"))
}

// Routes are registered even when the analysis service is absent; a
// missing dependency may fail the request but never 404s it.
func TestRoutesRegistered(t *testing.T) {
	s := newTestServer(&config.Config{Port: 8001, DevMode: true})

	routes := []struct {
		method string
		path   string
		body   []byte
	}{
		{"GET", "/api/system/status", nil},
		{"GET", "/api/calls/XYZ", nil},
		{"GET", "/api/calls/XYZ/curve?strike=100&expiration=2030-01-18", nil},
		{"GET", "/api/calls/XYZ/distribution?expiration=2030-01-18", nil},
		{"POST", "/api/returns", []byte(`{"num_shares":100,"initial_price":100,"strike_price":105,"premium":2,"days_to_expiry":27}`)},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, bytes.NewReader(rt.body))
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestCORSOrigins(t *testing.T) {
	s := newTestServer(&config.Config{Port: 8001, DevMode: true, CORSOrigins: []string{"https://calls.example.com"}})

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://calls.example.com", true},
		{"https://elsewhere.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
