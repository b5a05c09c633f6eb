package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, body := getJSON(t, env.ts.URL+"/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthReady(t *testing.T) {
	t.Run("healthy store", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		code, body := getJSON(t, env.ts.URL+"/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("store unavailable", func(t *testing.T) {
		env := newTestEnv(t, nil, errors.New("mongo down"))

		code, body := getJSON(t, env.ts.URL+"/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "mongodb", body["failed_check"])
	})
}

func TestDiagnosticsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	token := signToken(t, testSecret, "admin-1", time.Now().Add(time.Hour))
	conn := env.dial(t, token)
	readEvent(t, conn) // connected

	require.Eventually(t, func() bool {
		return env.registry.ConnectionCount() == 1
	}, time.Second, 5*time.Millisecond)

	code, body := getJSON(t, env.ts.URL+"/diagnostics/online")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["onlineUsers"])
	assert.EqualValues(t, 1, body["connections"])

	code, body = getJSON(t, env.ts.URL+"/diagnostics/connections")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	conns, ok := body["connections"].([]any)
	require.True(t, ok)
	require.Len(t, conns, 1)
	first, ok := conns[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin-1", first["userId"])
}
