// Package testserver runs the full HTTP stack over an in-memory database.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/context-keeper/internal/app"
	"github.com/rpggio/context-keeper/internal/config"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

// New starts a server on a fresh in-memory database. configure, when set,
// adjusts the default config before the app is built.
func New(t *testing.T, configure func(*config.Config), opts ...app.Option) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Workspace.Root = "/workspace"
	if configure != nil {
		configure(&cfg)
	}

	a, err := app.New(cfg, nil, opts...)
	require.NoError(t, err)
	server := httptest.NewServer(a.Handler())

	t.Cleanup(func() {
		server.Close()
		_ = a.Stop(context.Background())
	})

	return &TestServer{Server: server, App: a}
}

// Do sends a JSON request and decodes the JSON response into out, when
// out is non-nil. It returns the status code.
func (ts *TestServer) Do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "decoding %s %s", method, path)
	}
	return resp.StatusCode
}

// Post is Do with POST.
func (ts *TestServer) Post(t *testing.T, path string, body, out any) int {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, body, out)
}

// Get is Do with GET.
func (ts *TestServer) Get(t *testing.T, path string, out any) int {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, nil, out)
}

// CreateSession creates a session and returns its id.
func (ts *TestServer) CreateSession(t *testing.T) string {
	t.Helper()
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	require.Equal(t, http.StatusOK, ts.Post(t, "/session/create", map[string]any{}, &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}
