package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"videofetch/config"
	controllers "videofetch/controller"
	"videofetch/logging"
	"videofetch/router"
	"videofetch/selector"
	"videofetch/services"
	"videofetch/sse"
	ytdlp "videofetch/yt-dlp"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "videofetch",
		Short:         "Look up video stream variants and proxy their download",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	cmd.AddCommand(newServeCommand(opts), newLookupCommand(opts))
	return cmd
}

// app is everything a command needs, built once from configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	lookup   *services.LookupService
	download *services.DownloadService
	hub      *sse.Hub
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(afero.NewOsFs(), opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	extractor := ytdlp.NewRunner(cfg.YTDLP.Binary, cfg.YTDLP.Retries, cfg.YTDLP.Timeout, logger)
	proxy := services.NewProxy(&http.Client{}, cfg.Proxy.UserAgent, logger)
	hub := sse.NewHub(0)
	options := selector.DefaultOptions()

	return &app{
		cfg:      cfg,
		logger:   logger,
		lookup:   services.NewLookupService(extractor, options, logger),
		download: services.NewDownloadService(extractor, proxy, options, hub, logger),
		hub:      hub,
	}, nil
}

func (a *app) handler() http.Handler {
	h := controllers.NewHandler(a.lookup, a.download, a.hub, a.logger)
	return router.WithCORS(router.SetupRouter(h, a.logger), a.cfg.CORS.AllowedOrigins)
}
