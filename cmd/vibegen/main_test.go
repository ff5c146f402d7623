package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"vibegen/pkg/completion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VIBEGEN_PROVIDER",
		"VIBEGEN_API_KEY",
		"VIBEGEN_MODEL",
		"VIBEGEN_ENDPOINT_URL",
		"VIBEGEN_SERVER_ADDR",
		"VIBEGEN_PARSER",
		"VIBEGEN_LOG_LEVEL",
		"VIBEGEN_STREAM_THROTTLE_MS",
	} {
		t.Setenv(key, "")
	}
}

// endpointConfig writes a config that points the endpoint provider at url.
func endpointConfig(t *testing.T, url string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := map[string]any{
		"llm_provider": "endpoint",
		"endpoint":     map[string]any{"url": url, "api_timeout_seconds": 5},
		"log_file":     filepath.Join(dir, "vibegen.log"),
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// fakeEndpoint streams chunks and records the last request.
func fakeEndpoint(t *testing.T, status int, chunks ...string) (*httptest.Server, func() completion.Request) {
	t.Helper()
	var (
		mu  sync.Mutex
		got completion.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completion.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		got = req
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		for _, chunk := range chunks {
			_, _ = w.Write([]byte(chunk))
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() completion.Request {
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateStreamsAndReports(t *testing.T) {
	clearEnv(t)
	srv, got := fakeEndpoint(t, http.StatusOK, "1. Espresso yourself, Aditi. ", "2. You're brew-tiful.")
	cfgPath := endpointConfig(t, srv.URL)

	out, err := execute(t, "", "--config", cfgPath, "generate",
		"--name", "Aditi", "--vibe", "funny", "--bio", "Loves coffee")
	require.NoError(t, err)

	assert.Equal(t, completion.Request{Name: "Aditi", Vibe: "Funny", Bio: "Loves coffee"}, got())
	assert.True(t, strings.HasPrefix(out, "1. Espresso yourself, Aditi. 2. You're brew-tiful.\n\n"), out)
	assert.True(t, strings.HasSuffix(out, "1. Espresso yourself, Aditi.\n\n2. You're brew-tiful.\n"), out)
}

func TestGenerateReadsBioFromStdin(t *testing.T) {
	clearEnv(t)
	srv, got := fakeEndpoint(t, http.StatusOK, "1. a 2. b")
	cfgPath := endpointConfig(t, srv.URL)

	_, err := execute(t, "Liverpool fan, collects vinyl\n", "--config", cfgPath, "generate", "--no-report")
	require.NoError(t, err)

	req := got()
	assert.Equal(t, "Liverpool fan, collects vinyl", req.Bio)
	assert.Equal(t, "Pun", string(req.Vibe), "default vibe comes from config")
}

func TestGenerateNoReport(t *testing.T) {
	clearEnv(t)
	srv, _ := fakeEndpoint(t, http.StatusOK, "1. a ", "2. b")
	cfgPath := endpointConfig(t, srv.URL)

	out, err := execute(t, "", "--config", cfgPath, "generate", "--bio", "x", "--no-report")
	require.NoError(t, err)
	assert.Equal(t, "1. a 2. b\n", out)
}

func TestGenerateNumberedParser(t *testing.T) {
	clearEnv(t)
	srv, _ := fakeEndpoint(t, http.StatusOK, "Here you go:\n1. Formula 1 fan?\n2. Pit stop at my heart.")
	cfgPath := endpointConfig(t, srv.URL)

	out, err := execute(t, "", "--config", cfgPath, "generate", "--bio", "x", "--parser", "numbered")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "1. Formula 1 fan?\n\n2. Pit stop at my heart.\n"), out)
}

func TestGenerateUnknownVibe(t *testing.T) {
	clearEnv(t)
	srv, _ := fakeEndpoint(t, http.StatusOK, "unused")
	cfgPath := endpointConfig(t, srv.URL)

	_, err := execute(t, "", "--config", cfgPath, "generate", "--bio", "x", "--vibe", "sarcastic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vibe")
}

func TestGenerateEndpointFailure(t *testing.T) {
	clearEnv(t)
	srv, _ := fakeEndpoint(t, http.StatusTooManyRequests, "slow down")
	cfgPath := endpointConfig(t, srv.URL)

	_, err := execute(t, "", "--config", cfgPath, "generate", "--bio", "x")
	require.Error(t, err)

	var statusErr *completion.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestServeRejectsEndpointProvider(t *testing.T) {
	clearEnv(t)
	cfgPath := endpointConfig(t, "http://127.0.0.1:1/api/generate")

	_, err := execute(t, "", "--config", cfgPath, "serve", "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve needs a model provider")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vibegen version")
	assert.Contains(t, out, "platform:")
}

func TestInvalidConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid"), 0600))

	_, err := execute(t, "", "--config", path, "generate", "--bio", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
