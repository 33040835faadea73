package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// catalogServer imitates the mod database API and file host
type catalogServer struct {
	mu       sync.Mutex
	releases map[int][]string // newest first
	names    map[int]string
	failDL   bool
	server   *httptest.Server
}

func newCatalogServer(t *testing.T) *catalogServer {
	t.Helper()
	c := &catalogServer{
		releases: map[int][]string{1: {"1.1", "1.0"}, 2: {"2.0"}},
		names:    map[int]string{1: "Alpha", 2: "Beta"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/mods", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		mods := []map[string]any{}
		for _, id := range []int{1, 2} {
			mods = append(mods, map[string]any{
				"modid": id, "assetid": id * 10, "name": c.names[id], "author": "tester",
				"side": "both", "tags": []string{"QoL"}, "downloads": 1500 * id,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"statuscode": "200", "mods": mods})
	})
	mux.HandleFunc("/api/mod/", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		var id int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/api/mod/"), "%d", &id)
		versions, ok := c.releases[id]
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{"statuscode": "404"})
			return
		}
		releases := []map[string]any{}
		for i, v := range versions {
			releases = append(releases, map[string]any{
				"modversion": v,
				"mainfile":   fmt.Sprintf("files/asset/%d/%s_%s.zip", id, c.names[id], v),
				"filename":   fmt.Sprintf("%s_%s.zip", c.names[id], v),
				"created":    fmt.Sprintf("2024-0%d-01 10:00:00", 9-i),
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"statuscode": "200", "mod": map[string]any{
			"modid": id, "assetid": id * 10, "name": c.names[id], "author": "tester",
			"side": "both", "tags": []string{"QoL"}, "releases": releases,
		}})
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		fail := c.failDL
		c.mu.Unlock()
		if fail {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Write(zipFile(t, filepath.Base(r.URL.Path)))
	})

	c.server = httptest.NewServer(mux)
	t.Cleanup(c.server.Close)
	return c
}

func zipFile(t *testing.T, name string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("modinfo.json")
	require.NoError(t, err)
	fmt.Fprintf(f, `{"name":%q}`, name)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type cliEnv struct {
	catalog *catalogServer
	gameDir string
}

func (e *cliEnv) modsDir() string {
	return filepath.Join(e.gameDir, "Mods")
}

func (e *cliEnv) deployed(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.modsDir())
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// setupCLI points the global flags at temp dirs and a fake catalog
func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	catalog := newCatalogServer(t)

	configDir = t.TempDir()
	dataDir = t.TempDir()
	gameDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(gameDir, "Mods"), 0755))

	cfg := fmt.Sprintf("game_dir: %s\napi_url: %s/api\nfiles_url: %s\n", gameDir, catalog.server.URL, catalog.server.URL)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(cfg), 0644))

	t.Cleanup(func() {
		configDir, dataDir = "", ""
	})
	return &cliEnv{catalog: catalog, gameDir: gameDir}
}

// execute runs the root command with args and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single Execute
	jsonOutput, verbose, noColor = false, false, true
	profileForce, profileOutput, profileDescription = false, "", ""
	cacheSearch, cacheTag = "", ""
	historyLimit = 20

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
