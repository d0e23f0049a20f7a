package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, Init(viper.New(), ""))
	assert.Equal(t, "./repo", RepoPath)
	assert.Equal(t, "content", ContentDir)
	assert.Equal(t, ":8080", ListenAddr)
	assert.Empty(t, CORSOrigins)
	assert.Equal(t, 20, CacheConcurrency)
	assert.Equal(t, filepath.Join("repo", "content"), ContentRoot())
	assert.Equal(t, "http://localhost:8080/auth/callback", OauthConf.RedirectURL)
}

func TestInitEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPO_PATH", "/srv/blog")
	t.Setenv("CORS_ORIGINS", "https://editor.example.com, https://preview.example.com,")
	t.Setenv("APP_URL", "https://cms.example.com/")
	t.Setenv("CACHE_CONCURRENCY", "4")
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("GITHUB_CLIENT_ID", "client-id")

	require.NoError(t, Init(viper.New(), ""))
	assert.Equal(t, "/srv/blog", RepoPath)
	assert.Equal(t, []string{"https://editor.example.com", "https://preview.example.com"}, CORSOrigins)
	assert.Equal(t, "https://cms.example.com", AppURL)
	assert.Equal(t, 4, CacheConcurrency)
	assert.True(t, AuthDisabled)
	assert.Equal(t, "client-id", OauthConf.ClientID)
	assert.Equal(t, "https://cms.example.com/auth/callback", OauthConf.RedirectURL)
}

func TestInitConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("content_dir: posts\nlog_format: json\nrender_cache_size: 32\n"), 0o644))

	require.NoError(t, Init(viper.New(), cfgFile))
	assert.Equal(t, "posts", ContentDir)
	assert.Equal(t, "json", LogFormat)
	assert.Equal(t, 32, RenderCacheSize)

	assert.Error(t, Init(viper.New(), filepath.Join(dir, "missing.yaml")))
}

func TestInitDiscoversDefaultConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".article-cms.yaml"), []byte("listen_addr: \":9090\"\n"), 0o644))

	require.NoError(t, Init(viper.New(), ""))
	assert.Equal(t, ":9090", ListenAddr)
}

func TestInitDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GIT_BRANCH=drafts\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GIT_BRANCH") })

	require.NoError(t, Init(viper.New(), ""))
	assert.Equal(t, "drafts", GitBranch)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
