package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/liangyou/seed/pkg/models"
)

const sampleCatalog = `{
  "versions": [
    {
      "name": "Flax 1.9",
      "version": "1.9.6605",
      "packages": [
        {"name": "Editor", "required": true, "targetPath": "", "url": "https://cdn.example.com/1.9/FlaxEditor.msi"},
        {"name": "Windows", "default": true, "targetPath": "Source/Platforms/Windows", "url": "https://cdn.example.com/1.9/Windows.zip"},
        {"name": "Linux", "targetPath": "Source/Platforms/Linux", "url": "https://cdn.example.com/1.9/Linux.zip"},
        {"name": "Samples", "targetPath": "Samples", "url": "https://cdn.example.com/1.9/Samples.zip"}
      ]
    },
    {
      "name": "Flax 1.10",
      "version": "1.10.6700",
      "packages": [
        {"name": "Editor", "targetPath": "", "url": "https://cdn.example.com/1.10/FlaxEditor.msi"}
      ]
    },
    {
      "name": "Flax 1.8",
      "version": "1.8",
      "packages": []
    }
  ]
}`

func newCatalogServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected accept header %q", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchEnginesParsesAndSorts(t *testing.T) {
	t.Parallel()

	server := newCatalogServer(t, http.StatusOK, sampleCatalog)
	client := NewClient(
		WithSource(models.RemoteCatalog(server.URL)),
		WithHTTPClient(server.Client()),
	)

	engines, err := client.FetchEngines(context.Background())
	if err != nil {
		t.Fatalf("FetchEngines error: %v", err)
	}

	wantOrder := []string{"Flax 1.10", "Flax 1.9", "Flax 1.8"}
	if len(engines) != len(wantOrder) {
		t.Fatalf("expected %d engines, got %d", len(wantOrder), len(engines))
	}
	for i, name := range wantOrder {
		if engines[i].Name != name {
			t.Fatalf("unexpected order at %d: got %s want %s", i, engines[i].Name, name)
		}
	}

	flax19 := engines[1]
	if flax19.Version.String() != "1.9.6605" {
		t.Fatalf("unexpected version %s", flax19.Version)
	}
	if len(flax19.Packages) != 4 {
		t.Fatalf("expected 4 packages, got %d", len(flax19.Packages))
	}

	editor := flax19.Packages[0]
	if !editor.IsBase() || !editor.IsRequired() {
		t.Fatalf("editor not classified as required base: %+v", editor)
	}
	windows := flax19.Packages[1]
	if windows.Class.Kind != models.PackageTools || windows.Class.Platform != models.PlatformWindows || !windows.IsDefault() {
		t.Fatalf("unexpected windows classification: %+v", windows)
	}
	if windows.Required != nil {
		t.Fatalf("absent required flag should stay nil")
	}
	if flax19.Packages[3].Class.Kind != models.PackageOther {
		t.Fatalf("samples should be classified as other: %+v", flax19.Packages[3])
	}
}

func TestFetchEnginesDoesNotCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	defer server.Close()

	client := NewClient(WithSource(models.RemoteCatalog(server.URL)), WithHTTPClient(server.Client()))
	for i := 0; i < 2; i++ {
		if _, err := client.FetchEngines(context.Background()); err != nil {
			t.Fatalf("FetchEngines error: %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestFetchEnginesParseFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":           `<html>`,
		"missing versions":   `{"engines": []}`,
		"missing name":       `{"versions":[{"version":"1.0","packages":[]}]}`,
		"missing version":    `{"versions":[{"name":"a","packages":[]}]}`,
		"missing packages":   `{"versions":[{"name":"a","version":"1.0"}]}`,
		"bad version":        `{"versions":[{"name":"a","version":"1.x","packages":[]}]}`,
		"missing url":        `{"versions":[{"name":"a","version":"1.0","packages":[{"name":"Editor","targetPath":""}]}]}`,
		"missing targetPath": `{"versions":[{"name":"a","version":"1.0","packages":[{"name":"Editor","url":"u"}]}]}`,
		"wrong type":         `{"versions":[{"name":1,"version":"1.0","packages":[]}]}`,
		"one bad element":    `{"versions":[{"name":"ok","version":"1.0","packages":[]},{"name":"bad"}]}`,
		"trailing data":      `{"versions":[]} {}`,
	}

	for name, body := range cases {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := newCatalogServer(t, http.StatusOK, body)
			client := NewClient(WithSource(models.RemoteCatalog(server.URL)), WithHTTPClient(server.Client()))

			engines, err := client.FetchEngines(context.Background())
			if engines != nil {
				t.Fatalf("expected no partial result, got %v", engines)
			}
			if !errors.Is(err, &CatalogError{Kind: ParseFailure}) {
				t.Fatalf("expected ParseFailure, got %v", err)
			}
		})
	}
}

func TestFetchEnginesTransportFailures(t *testing.T) {
	t.Parallel()

	t.Run("status", func(t *testing.T) {
		t.Parallel()
		server := newCatalogServer(t, http.StatusServiceUnavailable, "")
		client := NewClient(WithSource(models.RemoteCatalog(server.URL)), WithHTTPClient(server.Client()))

		_, err := client.FetchEngines(context.Background())
		if !errors.Is(err, &CatalogError{Kind: TransportFailure}) {
			t.Fatalf("expected TransportFailure, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewClient(WithSource(models.RemoteCatalog(url))).FetchEngines(context.Background())
		var catalogErr *CatalogError
		if !errors.As(err, &catalogErr) || catalogErr.Kind != TransportFailure {
			t.Fatalf("expected TransportFailure, got %v", err)
		}
	})

	t.Run("missing local file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing.json")

		_, err := NewClient(WithSource(models.LocalCatalog(path))).FetchEngines(context.Background())
		if !errors.Is(err, &CatalogError{Kind: TransportFailure}) {
			t.Fatalf("expected TransportFailure, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected cause to be os.ErrNotExist, got %v", err)
		}
	})
}

func TestFetchEnginesFromLocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engines.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	engines, err := NewClient(WithSource(models.LocalCatalog(path))).FetchEngines(context.Background())
	if err != nil {
		t.Fatalf("FetchEngines error: %v", err)
	}
	if len(engines) != 3 || engines[0].Version.String() != "1.10.6700" {
		t.Fatalf("unexpected engines: %+v", engines)
	}
}
