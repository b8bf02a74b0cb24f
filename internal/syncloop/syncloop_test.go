package syncloop

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cuemby/articlesync/internal/config"
	"github.com/cuemby/articlesync/internal/events"
	"github.com/cuemby/articlesync/internal/sourceapi"
	"github.com/cuemby/articlesync/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, remoteURL, storeURL, redisAddr string) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.SourceAPIURL = remoteURL
	cfg.VectorStoreBaseURL = storeURL
	cfg.RedisHost, cfg.RedisPort = splitAddr(t, redisAddr)
	cfg.OutputDir = t.TempDir()
	cfg.TickInterval = 20 * time.Millisecond
	cfg.TickErrorBackoff = time.Millisecond
	cfg.HarvestConcurrency = 2
	cfg.UploadConcurrency = 2
	return cfg
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/en-us/categories.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"next_page":  nil,
				"categories": []sourceapi.Category{{ID: 1, Name: "Cat"}},
			})
		case "/en-us/categories/1/sections.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"next_page": nil,
				"sections":  []sourceapi.Section{{ID: 10, CategoryID: 1, Name: "Sec"}},
			})
		case "/en-us/sections/10/articles.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"next_page": nil,
				"articles":  []sourceapi.RemoteArticle{{ID: 100, SectionID: 10, Name: "Doc", Body: "<p>hi</p>"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fakeVectorStore(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/files" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-1"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunOnceSucceeds(t *testing.T) {
	remote := fakeRemote(t)
	store := fakeVectorStore(t)
	mr := miniredis.RunT(t)

	cfg := newTestConfig(t, remote.URL, store.URL, mr.Addr())
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	loop := New(cfg, telemetry.New("", time.Second), broker)
	err := loop.RunOnce(context.Background())
	require.NoError(t, err)
}

func TestRunRebuildsOrchestratorAfterFailure(t *testing.T) {
	attempt := 0
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt++
		if attempt == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/en-us/categories.json":
			_ = json.NewEncoder(w).Encode(map[string]any{"next_page": nil, "categories": []sourceapi.Category{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer remote.Close()

	store := fakeVectorStore(t)
	mr := miniredis.RunT(t)

	cfg := newTestConfig(t, remote.URL, store.URL, mr.Addr())
	cfg.TickInterval = 10 * time.Millisecond

	sub := events.NewBroker()
	sub.Start()
	defer sub.Stop()
	ch := sub.Subscribe()

	loop := New(cfg, telemetry.New("", time.Second), sub)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	// At least one tick.failed event should have been published for the
	// first (failing) attempt.
	sawFailure := false
	for {
		select {
		case ev := <-ch:
			if ev.Type == events.TickFailed {
				sawFailure = true
			}
		default:
			assert.True(t, sawFailure)
			return
		}
	}
}
