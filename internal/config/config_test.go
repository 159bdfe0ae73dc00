package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Downloader.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Downloader.SearchTimeout)
	assert.Equal(t, 3, cfg.Downloader.Retries)
	assert.Equal(t, 300*time.Second, cfg.Downloader.CacheTTL)
	assert.Equal(t, []string{"en", "zh"}, cfg.PreferredLanguages)
	assert.Equal(t, 2*time.Second, cfg.Federation.PeerTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	content := `
server:
  port: 9090
downloader:
  retries: 5
  search_timeout: 3s
federation:
  site_domains: [folio.example]
  peers: [peer.example]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FOLIO_SITES_TMDB_API_KEY", "from-env")
	t.Setenv("FOLIO_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Downloader.Retries)
	assert.Equal(t, 3*time.Second, cfg.Downloader.SearchTimeout)
	assert.Equal(t, "from-env", cfg.Sites.TMDB.APIKey)
	assert.Equal(t, []string{"folio.example"}, cfg.Federation.SiteDomains)
	assert.Equal(t, []string{"peer.example"}, cfg.Federation.Peers)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", c.Address())
}
