// Package cli contains the article-cms commands.
package cli

import (
	"context"
	"fmt"

	"article-cms/pkg/config"
	"article-cms/pkg/logging"
	"article-cms/pkg/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
	v       = viper.New()
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "article-cms",
	Short: "Load, check and render a collection of Markdown articles",
	Long: `article-cms manages a repository of Markdown articles with YAML, TOML or
JSON front matter (title, description, date).

Example usage:
  article-cms check               # structural checks for every article
  article-cms render posts/cors.md
  article-cms list
  article-cms new posts/preflight.md --title "Preflight requests"
  article-cms serve               # editor API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .article-cms.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.String("repo", "./repo", "repository holding the content directory")
	flags.String("content-dir", "content", "content directory inside the repository")
	flags.String("log-format", "console", "log format: console or json")

	_ = v.BindPFlag("REPO_PATH", flags.Lookup("repo"))
	_ = v.BindPFlag("CONTENT_DIR", flags.Lookup("content-dir"))
	_ = v.BindPFlag("LOG_FORMAT", flags.Lookup("log-format"))
}

func initConfig() error {
	if err := config.Init(v, cfgFile); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := config.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.New(level, config.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("configuration loaded",
		zap.String("repo", config.RepoPath),
		zap.String("content_dir", config.ContentDir),
		zap.Int("concurrency", config.CacheConcurrency),
	)
	return nil
}

type components struct {
	store    *services.Store
	renderer *services.Renderer
	checker  *services.Checker
	git      *services.Git
}

func newComponents() (*components, error) {
	renderer, err := services.NewRenderer(config.RenderCacheSize)
	if err != nil {
		return nil, err
	}
	git := &services.Git{
		Dir:       config.RepoPath,
		Remote:    config.GitRemote,
		Branch:    config.GitBranch,
		UserName:  config.GitUserName,
		UserEmail: config.GitUserEmail,
		Logger:    logger.Named("git"),
	}
	return &components{
		store:    services.NewStore(config.RepoPath, config.ContentDir, config.CacheConcurrency, git, logger.Named("store")),
		renderer: renderer,
		checker:  services.NewChecker(renderer, config.CacheConcurrency, logger.Named("checker")),
		git:      git,
	}, nil
}
