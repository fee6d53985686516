package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"pre-treino", "snacks", "proteinas", "creatinas"}, cfg.CategoryNames())
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "json/produtos_urls.json", cfg.URLMapPath)
	assert.Equal(t, "dados_extraidos/produtos_nutricionais.csv", cfg.DatasetPath)

	proteinas := cfg.Categories[2]
	assert.True(t, proteinas.Paginated)
	assert.Equal(t, "https://adaptogen.com.br/proteinas/?sf_paged=3", proteinas.URLForPage(3))
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BASE_URL", "http://localhost:8080/")
	t.Setenv("REQUEST_DELAY", "500ms")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RESPECT_ROBOTS", "true")
	t.Setenv("URL_MAP_PATH", "out/urls.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "http://localhost:8080/creatina/", cfg.Categories[3].SeedURL)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.RespectRobots)
	assert.Equal(t, "out/urls.json", cfg.URLMapPath)
}

func TestLoadInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REQUEST_DELAY", "soon")
	t.Setenv("WORKER_COUNT", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DELAY")
	assert.Contains(t, err.Error(), "WORKER_COUNT")
}

func TestLoadSiteFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	site := `
base_url: https://example.com
categories:
  - name: creatinas
    seed_url: https://example.com/creatina/
  - name: proteinas
    paginated: true
    page_url: https://example.com/proteinas/page/%d/
`
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(site), 0o644))
	t.Setenv("SITE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.BaseURL)
	assert.Equal(t, []string{"creatinas", "proteinas"}, cfg.CategoryNames())
	assert.Equal(t, "https://example.com/proteinas/page/2/", cfg.Categories[1].URLForPage(2))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"no categories", func(c *Config) { c.Categories = nil }, "no categories"},
		{"duplicate category", func(c *Config) { c.Categories = append(c.Categories, c.Categories[0]) }, "duplicate"},
		{"page template without verb", func(c *Config) { c.Categories[2].PageURL = "https://x/proteinas/" }, "%d"},
		{"zero delay", func(c *Config) { c.RequestDelay = 0 }, "REQUEST_DELAY"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "RETRY_MAX_ATTEMPTS"},
		{"backoff inverted", func(c *Config) { c.Retry.MaxBackoff = time.Millisecond }, "RETRY_MAX_BACKOFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
