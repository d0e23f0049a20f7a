package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	RepoPath      = "./repo"
	ContentDir    = "content"
	CMSConfigPath = "static/admin/config.yml"

	// Server settings
	ListenAddr    = ":8080"
	AppURL        = "http://localhost:8080"
	CORSOrigins   []string
	SessionSecret = ""
	AuthDisabled  = false
	WatchContent  = true

	// Cache settings
	CacheConcurrency = 20
	RenderCacheSize  = 256

	// Logging settings
	LogLevel  = "info"
	LogFormat = "console"

	// Git settings
	GitUserEmail = "bot@article-cms.local"
	GitUserName  = "Article CMS Bot"
	GitBranch    = "main"
	GitRemote    = "origin"
)

var OauthConf *oauth2.Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("REPO_PATH", "./repo")
	v.SetDefault("CONTENT_DIR", "content")
	v.SetDefault("CMS_CONFIG_PATH", "static/admin/config.yml")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("AUTH_DISABLED", false)
	v.SetDefault("WATCH_CONTENT", true)
	v.SetDefault("CACHE_CONCURRENCY", 20)
	v.SetDefault("RENDER_CACHE_SIZE", 256)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("GIT_USER_EMAIL", "bot@article-cms.local")
	v.SetDefault("GIT_USER_NAME", "Article CMS Bot")
	v.SetDefault("GIT_BRANCH", "main")
	v.SetDefault("GIT_REMOTE", "origin")
}

// Init loads .env, the optional config file and the environment into the
// package settings. Flags bound on v take precedence over everything else.
func Init(v *viper.Viper, cfgFile string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".article-cms")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	RepoPath = v.GetString("REPO_PATH")
	ContentDir = v.GetString("CONTENT_DIR")
	CMSConfigPath = v.GetString("CMS_CONFIG_PATH")

	ListenAddr = v.GetString("LISTEN_ADDR")
	AppURL = strings.TrimRight(v.GetString("APP_URL"), "/")
	CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	SessionSecret = v.GetString("SESSION_SECRET")
	AuthDisabled = v.GetBool("AUTH_DISABLED")
	WatchContent = v.GetBool("WATCH_CONTENT")

	if cc := v.GetInt("CACHE_CONCURRENCY"); cc > 0 {
		CacheConcurrency = cc
	}
	if size := v.GetInt("RENDER_CACHE_SIZE"); size > 0 {
		RenderCacheSize = size
	}

	LogLevel = v.GetString("LOG_LEVEL")
	LogFormat = v.GetString("LOG_FORMAT")

	GitUserEmail = v.GetString("GIT_USER_EMAIL")
	GitUserName = v.GetString("GIT_USER_NAME")
	GitBranch = v.GetString("GIT_BRANCH")
	GitRemote = v.GetString("GIT_REMOTE")

	redirectURL := os.Getenv("GITHUB_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = AppURL + "/auth/callback"
	}
	OauthConf = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"repo"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
	return nil
}

// ContentRoot is the directory holding the article collection.
func ContentRoot() string {
	return filepath.Join(RepoPath, ContentDir)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
