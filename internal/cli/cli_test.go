package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/pedrito/internal/briefing"
	"github.com/tOgg1/pedrito/internal/testutil"
)

func testEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("PEDRITO_GLOBAL_DATA_DIR", filepath.Join(home, "data"))
	for _, key := range []string{"WHATSAPP_BASE_URL", "WHATSAPP_API_KEY", "INTEL_BASE_URL", "INTEL_API_KEY"} {
		t.Setenv(key, "")
	}
	return home
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd("test", &out, io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type fakeUpstream struct {
	mu        sync.Mutex
	resolved  []string
	loopsBody string
}

func (f *fakeUpstream) setLoopsBody(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loopsBody = body
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"CONNECTED"}`)
	})
	mux.HandleFunc("/open-loops/active", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		body := f.loopsBody
		f.mu.Unlock()
		if body != "" {
			_, _ = io.WriteString(w, body)
			return
		}
		_, _ = io.WriteString(w, `{"openLoops":{"active":[
			{"id":"a","summary":"Send the lease","lane":"now","chatId":"c1","createdAt":1741600000000},
			{"id":"b","summary":"Call the plumber","lane":"backlog","category":"promise"}
		]}}`)
	})
	mux.HandleFunc("/relationships/people", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"people":[{"chatId":"c1","displayName":"Ana"}]}`)
	})
	mux.HandleFunc("/digest/today", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"narrativeSummary":"Two things are waiting on you.","keyPeople":["Ana"]}`)
	})
	mux.HandleFunc("/open-loops/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		f.mu.Lock()
		f.resolved = append(f.resolved, strings.TrimPrefix(r.URL.Path, "/open-loops/"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	return mux
}

func startUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	testutil.SkipIfNoNetwork(t)
	f := &fakeUpstream{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	t.Setenv("PEDRITO_UPSTREAM_WHATSAPP_BASE_URL", srv.URL)
	t.Setenv("PEDRITO_UPSTREAM_INTEL_BASE_URL", srv.URL)
	return f
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd("dev", io.Discard, io.Discard)
	for _, name := range []string{"ui", "serve", "status", "loops", "digest", "dismissed", "onboard", "config"} {
		found, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, found.Name())
	}
	found, _, err := root.Find([]string{"loop", "dismiss"})
	require.NoError(t, err)
	require.Equal(t, "dismiss", found.Name())
}

func TestConfigShowMasksKeys(t *testing.T) {
	testEnv(t)
	t.Setenv("PEDRITO_UPSTREAM_INTEL_API_KEY", "very-secret")

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "status_interval: 5s")
	require.NotContains(t, out, "very-secret")

	out, err = run(t, "config", "show", "--reveal")
	require.NoError(t, err)
	require.Contains(t, out, "very-secret")
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	home := testEnv(t)
	path := filepath.Join(home, "custom", "config.yaml")

	_, err := run(t, "config", "init", "--path", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)

	_, err = run(t, "config", "init", "--path", path)
	require.Error(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	testEnv(t)
	t.Setenv("PEDRITO_SESSION_BACKEND", "redis")
	_, err := run(t, "dismissed", "list")
	require.ErrorContains(t, err, "session.backend")
}

func TestOnboardPersists(t *testing.T) {
	testEnv(t)
	startUpstream(t)

	out, err := run(t, "status", "--json")
	require.NoError(t, err)
	var before statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &before))
	require.False(t, before.Onboarded)
	require.Equal(t, "onboarding", string(before.View))

	out, err = run(t, "onboard")
	require.NoError(t, err)
	require.Contains(t, out, "Onboarding complete")

	out, err = run(t, "status", "--json")
	require.NoError(t, err)
	var after statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &after))
	require.True(t, after.Onboarded)
	require.Equal(t, "connected", string(after.State))
	require.Equal(t, "digest", string(after.View))
	require.Equal(t, "Linked to WhatsApp", after.Label)
}

func TestLoopsHonorDismissals(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			testEnv(t)
			t.Setenv("PEDRITO_SESSION_BACKEND", backend)
			up := startUpstream(t)

			out, err := run(t, "loops", "--json")
			require.NoError(t, err)
			var groups briefing.Groups
			require.NoError(t, json.Unmarshal([]byte(out), &groups))
			require.Equal(t, 2, groups.Total())
			require.Equal(t, "Ana", groups.Now[0].DisplayName)

			_, err = run(t, "loops", "dismiss", "b")
			require.NoError(t, err)
			require.Equal(t, []string{"b/dismiss"}, up.resolved)

			out, err = run(t, "loops", "--json")
			require.NoError(t, err)
			groups = briefing.Groups{}
			require.NoError(t, json.Unmarshal([]byte(out), &groups))
			require.Equal(t, 1, groups.Total())
			require.Equal(t, "a", groups.Now[0].ID)

			out, err = run(t, "dismissed", "list", "--json")
			require.NoError(t, err)
			require.JSONEq(t, `["b"]`, out)

			out, err = run(t, "dismissed", "clear")
			require.NoError(t, err)
			require.Contains(t, out, "Cleared 1")

			out, err = run(t, "dismissed", "list")
			require.NoError(t, err)
			require.Contains(t, out, "No resolved loops")
		})
	}
}

func TestLoopsMalformedBodyKeepsDismissals(t *testing.T) {
	testEnv(t)
	up := startUpstream(t)

	_, err := run(t, "loops", "dismiss", "b")
	require.NoError(t, err)

	up.setLoopsBody(`<html>502 Bad Gateway</html>`)
	_, err = run(t, "loops")
	require.ErrorContains(t, err, "fetch loops")

	out, err := run(t, "dismissed", "list", "--json")
	require.NoError(t, err)
	require.JSONEq(t, `["b"]`, out)
}

func TestStatusMalformedBody(t *testing.T) {
	testEnv(t)
	testutil.SkipIfNoNetwork(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>gateway</html>")
	}))
	t.Cleanup(srv.Close)
	t.Setenv("PEDRITO_UPSTREAM_WHATSAPP_BASE_URL", srv.URL)

	_, err := run(t, "status")
	require.ErrorContains(t, err, "fetch status")
}

func TestLoopsTable(t *testing.T) {
	testEnv(t)
	startUpstream(t)

	out, err := run(t, "loops")
	require.NoError(t, err)
	require.Contains(t, out, "LANE")
	require.Contains(t, out, "Send the lease")
	require.Contains(t, out, "Backlog")
}

func TestDigestCommand(t *testing.T) {
	testEnv(t)
	startUpstream(t)

	out, err := run(t, "digest")
	require.NoError(t, err)
	require.Contains(t, out, "Two things are waiting on you.")
	require.Contains(t, out, "People: Ana")
	require.Contains(t, out, "Promises 1")
}

func TestUpstreamNotConfigured(t *testing.T) {
	testEnv(t)
	_, err := run(t, "loops")
	require.ErrorContains(t, err, "fetch loops")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"ID", "WHAT"}, [][]string{
		{"a", "short"},
		{"long-id", "\x1b[1mbold\x1b[0m"},
	}))
	require.Equal(t, "ID       WHAT\na        short\nlong-id  \x1b[1mbold\x1b[0m\n", buf.String())
}
