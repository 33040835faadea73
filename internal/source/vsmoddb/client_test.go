package vsmoddb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"vsmm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listBody = `<!-- debug: rendered in 3ms -->{
	"statuscode": "200",
	"mods": [
		{"modid": 12, "assetid": 1200, "downloads": 5000, "name": "Carry On", "author": "copygirl",
		 "side": "both", "logo": "https://mods.vintagestory.at/files/logo.png",
		 "tags": ["Utility", "QoL", "Utility"], "lastreleased": "2024-03-01 12:00:00"},
		{"modid": 0, "name": "Broken"},
		{"modid": 13, "name": "Sided", "side": "sideways"},
		{"modid": "not-a-number", "name": "Bad type"},
		{"modid": 14, "name": "Server Thing", "side": "server", "logo": ""}
	]
}`

const detailBody = `{
	"statuscode": "200",
	"mod": {
		"modid": 12, "assetid": 1200, "name": "Carry On", "author": "copygirl",
		"text": "<p>Carry chests</p>", "homepageurl": "https://example.com/carryon",
		"side": "both", "tags": ["QoL"],
		"releases": [
			{"releaseid": 2, "mainfile": "https://mods.vintagestory.at/files/asset/2/carryon_1.1.0.zip", "filename": "carryon_1.1.0.zip", "modversion": "1.1.0", "created": "2024-03-01 12:00:00"},
			{"releaseid": 1, "mainfile": "files/asset/1/carryon_1.0.0.zip", "filename": "carryon_1.0.0.zip", "modversion": "1.0.0", "created": "2023-11-20 08:30:00"},
			{"releaseid": 0, "mainfile": "", "modversion": "0.9.0"}
		],
		"screenshots": [{"fileid": 5, "mainfile": "https://mods.vintagestory.at/files/shot.png"}]
	}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Options{
		APIURL:     server.URL + "/api",
		FilesURL:   server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestClient_ListMods(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mods", r.URL.Path)
		assert.Equal(t, "Vintage Story Mod Manager", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(listBody))
	}))

	mods, report, err := client.ListModsReport(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, mods, 2)

	assert.Equal(t, 12, mods[0].ModID)
	assert.Equal(t, 1200, mods[0].AssetID)
	assert.Equal(t, "Carry On", mods[0].Name)
	assert.Equal(t, []string{"QoL", "Utility"}, mods[0].Tags)
	assert.Equal(t, domain.SideBoth, mods[0].Side)
	require.NotNil(t, mods[0].Downloads)
	assert.Equal(t, 5000, *mods[0].Downloads)
	require.NotNil(t, mods[0].Logo)

	assert.Equal(t, domain.SideServer, mods[1].Side)
	assert.Nil(t, mods[1].Logo, "empty logo is treated as absent")
	assert.Nil(t, mods[1].Downloads)

	assert.Equal(t, 2, report.Accepted)
	require.Len(t, report.Quarantined, 3)
	assert.Equal(t, 1, report.Quarantined[0].Index)
	assert.Equal(t, 13, report.Quarantined[1].ModID)
	assert.Equal(t, 3, report.Quarantined[2].Index)
}

func TestClient_ListMods_FilterQuery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"3", "7"}, q["tagids[]"])
		assert.Equal(t, "1.19.4", q.Get("gameversion"))
		assert.Equal(t, []string{"1.19.3", "1.19.4"}, q["gameversions[]"])
		assert.Equal(t, "42", q.Get("author"))
		assert.Equal(t, "carry", q.Get("text"))
		assert.Equal(t, "downloads", q.Get("orderby"))
		assert.Equal(t, "desc", q.Get("orderdirection"))
		_, _ = w.Write([]byte(`{"statuscode":"200","mods":[]}`))
	}))

	mods, err := client.ListMods(context.Background(), &domain.ModFilter{
		Text:           "carry",
		TagIDs:         []int{3, 7},
		GameVersion:    "1.19.4",
		GameVersions:   []string{"1.19.3", "1.19.4"},
		Author:         42,
		OrderBy:        "downloads",
		OrderDirection: "desc",
	})
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestClient_ListMods_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}},
		{"status field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"statuscode":"500"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.ListMods(context.Background(), nil)
			assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
		})
	}
}

func TestClient_ListMods_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := New(Options{APIURL: server.URL, FilesURL: server.URL})
	require.NoError(t, err)

	_, err = client.ListMods(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestClient_GetModDetail(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/mod/12", r.URL.Path)
		_, _ = w.Write([]byte(detailBody))
	}))

	detail, err := client.GetModDetail(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, "Carry On", detail.Name)
	assert.Equal(t, "https://example.com/carryon", detail.HomepageURL)
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, detail.Versions())
	latest, ok := detail.Latest()
	require.True(t, ok)
	assert.Equal(t, "carryon_1.1.0.zip", latest.FileName)
	require.NotNil(t, detail.LastReleased)
	assert.Equal(t, "2024-03-01", *detail.LastReleased)
	assert.Len(t, detail.Screenshots, 1)

	// Served from the LRU, and mutations by the caller do not leak into it
	detail.Releases = nil
	again, err := client.GetModDetail(context.Background(), 12)
	require.NoError(t, err)
	assert.Len(t, again.Releases, 2)
	assert.Equal(t, int32(1), calls.Load())

	client.Invalidate()
	_, err = client.GetModDetail(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_GetModDetail_NotFound(t *testing.T) {
	t.Run("http 404", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())
		_, err := client.GetModDetail(context.Background(), 99)
		assert.ErrorIs(t, err, domain.ErrModNotFound)
	})
	t.Run("statuscode 404", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"statuscode":"404"}`))
		}))
		_, err := client.GetModDetail(context.Background(), 99)
		assert.ErrorIs(t, err, domain.ErrModNotFound)
	})
}

func TestClient_GetModDetail_Malformed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statuscode":"200","mod":{"modid":12,"name":"","releases":[]}}`))
	}))

	_, err := client.GetModDetail(context.Background(), 12)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestClient_ContextCanceled(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listBody))
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListMods(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCleanBody(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(cleanBody([]byte(`<!-- x -->{"a":1}`))))
	assert.Equal(t, `{"a":1}`, string(cleanBody([]byte("<!--\nmulti\nline-->{\"a\":<!-- y -->1}"))))
	assert.Equal(t, `{"a":1}`, string(cleanBody([]byte(`{"a":1}`))))
}
