package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"article-cms/pkg/config"
	"article-cms/pkg/handlers"
	"article-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		comps, err := newComponents()
		if err != nil {
			return err
		}

		if config.WatchContent {
			w, err := services.WatchContent(ctx, comps.store, comps.renderer, logger.Named("watcher"))
			if err != nil {
				logger.Warn("content watcher disabled", zap.Error(err))
			} else {
				defer w.Close()
			}
		}

		gin.SetMode(gin.ReleaseMode)
		api := &handlers.API{
			Store:         comps.store,
			Renderer:      comps.renderer,
			Checker:       comps.checker,
			Git:           comps.git,
			ContentDir:    config.ContentDir,
			RepoPath:      config.RepoPath,
			CMSConfigPath: config.CMSConfigPath,
			Logger:        logger.Named("api"),
		}
		router, err := handlers.NewRouter(api, handlers.RouterOptions{
			SessionSecret: config.SessionSecret,
			CORSOrigins:   config.CORSOrigins,
			AuthDisabled:  config.AuthDisabled,
			Logger:        logger.Named("http"),
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              config.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("editor API listening", zap.String("addr", config.ListenAddr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Bool("no-auth", false, "serve the API without GitHub login")
	_ = v.BindPFlag("LISTEN_ADDR", flags.Lookup("addr"))
	_ = v.BindPFlag("AUTH_DISABLED", flags.Lookup("no-auth"))
	rootCmd.AddCommand(serveCmd)
}
