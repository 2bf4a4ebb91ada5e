package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `organizations:
  - https://chat.example.com
  - https://eng.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	urls, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://chat.example.com", "https://eng.example.com"}, urls)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	_, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBootstrapKeepsSuccessesAndReportsFailures(t *testing.T) {
	var good *httptest.Server
	good = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settingsHandler(map[string]interface{}{
			"realm_icon": "/icon.png",
			"realm_uri":  good.URL,
			"realm_name": "Example",
		}).ServeHTTP(w, r)
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	badURL := bad.URL
	bad.Close()

	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	added, err := reg.Bootstrap(ctx, []string{good.URL, badURL})
	assert.Equal(t, 1, added)

	var bootErr *BootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Contains(t, bootErr.Failures, badURL)
	assert.Contains(t, bootErr.Error(), badURL)

	require.Len(t, reg.List(), 1)
	assert.True(t, reg.DuplicateExists(good.URL))
}

func TestBootstrapSkipsAlreadyRegistered(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settingsHandler(map[string]interface{}{
			"realm_icon": "/icon.png",
			"realm_uri":  server.URL,
			"realm_name": "Example",
		}).ServeHTTP(w, r)
	}))
	defer server.Close()

	reg := newTestRegistry(t, nil)
	ctx := context.Background()

	added, err := reg.Bootstrap(ctx, []string{server.URL})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = reg.Bootstrap(ctx, []string{server.URL})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Len(t, reg.List(), 1)
}
