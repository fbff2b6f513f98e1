package root

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeSearchResponse = `{
  "total_count": 1,
  "incomplete_results": false,
  "items": [
    {
      "name": "tokio",
      "full_name": "tokio-rs/tokio",
      "description": "A runtime for writing reliable asynchronous applications",
      "html_url": "https://github.com/tokio-rs/tokio",
      "stargazers_count": 27000
    }
  ]
}`

// isolate clears the configuration environment and moves to an empty
// directory so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"GITHUB_PERSONAL_ACCESS_TOKEN",
		"GITHUB_API_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"LOG_FILE",
		"GHSEARCH_REQUEST_TIMEOUT",
		"GHSEARCH_RATE_LIMIT",
		"GHSEARCH_RATE_BURST",
		"GHSEARCH_MAX_REQUEST_BYTES",
		"GHSEARCH_WS_ADDR",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		q := r.URL.Query()
		if q.Get("q") != "tokio" || q.Get("page") != "1" || q.Get("per_page") != "30" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = fmt.Fprintf(w, `{"message":"unexpected query %s"}`, r.URL.RawQuery)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fakeSearchResponse))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewCommand()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_ServesStdio(t *testing.T) {
	isolate(t)
	gh := fakeGitHub(t)
	t.Setenv("GITHUB_PERSONAL_ACCESS_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", gh.URL)

	stdin := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"listTools"}`,
		`{"jsonrpc":"2.0","id":2,"method":"callTool","params":{"name":"search_repositories","params":{"query":"tokio"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"frobnicate"}`,
	}, "\n") + "\n"

	stdout, stderr, err := execute(t, stdin, "--log-level", "debug")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 3, stdout)

	var list struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &list))
	require.Len(t, list.Result.Tools, 1)
	assert.Equal(t, "search_repositories", list.Result.Tools[0].Name)

	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"id": 2,
		"result": {
			"total_count": 1,
			"items": [{
				"name": "tokio",
				"full_name": "tokio-rs/tokio",
				"description": "A runtime for writing reliable asynchronous applications",
				"url": "https://github.com/tokio-rs/tokio",
				"star_count": 27000
			}]
		}
	}`, lines[1])

	var failed struct {
		ID    int `json:"id"`
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &failed))
	assert.Equal(t, 3, failed.ID)
	assert.Equal(t, -32601, failed.Error.Code)

	assert.Contains(t, stderr, "server starting")
	assert.Contains(t, stderr, "configuration loaded")
	assert.Contains(t, stderr, "shutdown complete")
}

func TestRoot_BackendFailureKeepsServing(t *testing.T) {
	isolate(t)
	gh := fakeGitHub(t)
	t.Setenv("GITHUB_PERSONAL_ACCESS_TOKEN", "wrong-token")
	t.Setenv("GITHUB_API_URL", gh.URL)

	stdin := `{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"search_repositories","params":{"query":"tokio"}}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"listTools"}` + "\n"

	stdout, _, err := execute(t, stdin)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"code":-32000`)
	assert.Contains(t, lines[0], "Bad credentials")
	assert.Contains(t, lines[1], `"tools"`)
}

func TestRoot_RequiresToken(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_PERSONAL_ACCESS_TOKEN")
}

func TestRoot_EnvFile(t *testing.T) {
	isolate(t)
	gh := fakeGitHub(t)

	envFile := filepath.Join(t.TempDir(), "ghsearch.env")
	contents := fmt.Sprintf("GITHUB_PERSONAL_ACCESS_TOKEN=test-token\nGITHUB_API_URL=%s\n", gh.URL)
	require.NoError(t, os.WriteFile(envFile, []byte(contents), 0o600))

	stdin := `{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"search_repositories","params":{"query":"tokio"}}}` + "\n"
	stdout, _, err := execute(t, stdin, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"total_count":1`)

	_, _, err = execute(t, "", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_PERSONAL_ACCESS_TOKEN", "test-token")

	_, _, err := execute(t, "", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestToolsCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "tools")
	require.NoError(t, err)

	var result struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"input_schema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "search_repositories", result.Tools[0].Name)
	assert.Contains(t, string(result.Tools[0].InputSchema), `"per_page"`)
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ghsearch-mcp 1.2.3\n", stdout)

	stdout, _, err = execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "ghsearch-mcp 1.2.3\n", stdout)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeWS(t *testing.T) {
	isolate(t)
	gh := fakeGitHub(t)
	t.Setenv("GITHUB_PERSONAL_ACCESS_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", gh.URL)

	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewCommand()
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"serve-ws", "--addr", addr})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	conn := dialWithRetry(t, "ws://"+addr+"/")
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"jsonrpc":"2.0","id":"a","method":"callTool","params":{"name":"search_repositories","params":{"query":"tokio"}}}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"id":"a"`)
	assert.Contains(t, string(msg), `"full_name":"tokio-rs/tokio"`)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{broken`)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"id":null`)

	_ = conn.Close()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve-ws did not stop after cancellation")
	}
	assert.Contains(t, stderr.String(), "shutdown complete")
}

func dialWithRetry(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
