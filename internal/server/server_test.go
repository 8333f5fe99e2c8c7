package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	tu "github.com/desertthunder/djay/internal/testing"
)

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func quietLogger() *bytes.Buffer { return &bytes.Buffer{} }

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/x", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("HEAD should be accepted for GET routes, got %d", rec.Code)
		}
	})
}

func TestCatalogHandler(t *testing.T) {
	logger := shared.NewLogger(quietLogger())

	t.Run("serves the file", func(t *testing.T) {
		h, err := NewCatalogHandler(writeCatalog(t, t.TempDir(), tu.ScenarioCatalogJSON), logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, services.CatalogPath, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if rec.Body.String() != tu.ScenarioCatalogJSON {
			t.Errorf("body should be the file as written")
		}
	})

	t.Run("rejects invalid files", func(t *testing.T) {
		if _, err := NewCatalogHandler(writeCatalog(t, t.TempDir(), "{"), logger); !errors.Is(err, shared.ErrInvalidCatalog) {
			t.Errorf("expected ErrInvalidCatalog, got %v", err)
		}

		dup := `{"playlists":[{"id":"a","name":"A"},{"id":"a","name":"B"}]}`
		if _, err := NewCatalogHandler(writeCatalog(t, t.TempDir(), dup), logger); !errors.Is(err, shared.ErrInvalidCatalog) {
			t.Errorf("expected ErrInvalidCatalog for duplicates, got %v", err)
		}

		if _, err := NewCatalogHandler(filepath.Join(t.TempDir(), "missing.json"), logger); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("failed reload keeps previous catalog", func(t *testing.T) {
		dir := t.TempDir()
		path := writeCatalog(t, dir, tu.ScenarioCatalogJSON)
		h, err := NewCatalogHandler(path, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		writeCatalog(t, dir, "not json")
		if err := h.Load(); err == nil {
			t.Fatal("expected load error")
		}

		c, version := h.Catalog()
		if version != 1 || len(c.Playlists) != 2 {
			t.Errorf("expected original catalog, got version %d", version)
		}
	})

	t.Run("non-GET", func(t *testing.T) {
		h, _ := NewCatalogHandler(writeCatalog(t, t.TempDir(), tu.ScenarioCatalogJSON), logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, services.CatalogPath, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("empty handler answers 503", func(t *testing.T) {
		h := &CatalogHandler{logger: logger}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, services.CatalogPath, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestCatalogHandlerWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, tu.ScenarioCatalogJSON)

	h, err := NewCatalogHandler(path, shared.NewLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	updated := `{"playlists":[{"id":"p3","name":"New","tracks":[]}]}`
	deadline := time.Now().Add(5 * time.Second)
	for {
		writeCatalog(t, dir, updated)
		time.Sleep(50 * time.Millisecond)
		if c, _ := h.Catalog(); len(c.Playlists) == 1 && c.Playlists[0].ID == "p3" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("catalog was not reloaded")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected watch error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watch did not stop")
	}
}

func TestFixtureRouter(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "media")
	if err := os.MkdirAll(media, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(media, "a.mp3"), []byte("ID3"), 0644); err != nil {
		t.Fatal(err)
	}

	logger := shared.NewLogger(quietLogger())
	catalog, err := NewCatalogHandler(writeCatalog(t, dir, tu.ScenarioCatalogJSON), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	server := httptest.NewServer(NewFixtureRouter(catalog, NewMediaHandler(media), logger))
	defer server.Close()

	t.Run("catalog through the fetcher", func(t *testing.T) {
		api := services.NewAPIService(server.URL, server.Client())
		svc := services.NewCatalogService(api, services.CatalogOpts{Logger: logger})

		c, err := svc.FetchCatalog(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.Playlists) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(c.Playlists))
		}
	})

	t.Run("media files", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/a.mp3")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || string(body) != "ID3" {
			t.Errorf("unexpected response %d %q", resp.StatusCode, body)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS header")
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, server.URL+services.CatalogPath, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected 204, got %d", resp.StatusCode)
		}
	})
}

func TestLogging(t *testing.T) {
	logs := quietLogger()
	handler := Logging(shared.NewLogger(logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	out := logs.String()
	for _, want := range []string{"path=/pot", "status=418", "bytes=15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	go func() {
		done <- ListenAndServe(ctx, "127.0.0.1:0", handler, shared.NewLogger(quietLogger()), ready)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Error("server did not shut down")
	}
}
