package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/loom-ui/loom"
	"github.com/loom-ui/loom/internal/config"
	"github.com/loom-ui/loom/internal/errors"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Start the preview server for the project in the working directory.

Every template with the configured extension becomes a page: about.html
is served at /about, index templates map to their directory path. Static
files are served from the static directory, and each page gets a live
WebSocket session in the browser.

Examples:
  loom serve
  loom serve --port=8080
  loom serve --dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from loom.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from loom.json)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Re-read templates per request and accept any origin")

	return cmd
}

func runServe(port int, host string, dev bool) error {
	// Load config
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if dev {
		cfg.Server.DevMode = true
	}

	store, source, err := buildStore(cfg)
	if err != nil {
		return err
	}

	appCfg := loom.Config{
		Templates: loom.TemplatesConfig{
			Store: store,
			Ext:   cfg.Templates.Ext,
		},
		DevMode: cfg.Server.DevMode,
		Logger:  buildLogger(cfg),
	}
	appCfg.Server.MaxSessions = cfg.Server.MaxSessions

	if dir := cfg.StaticPath(); dirExists(dir) {
		appCfg.Static.Dir = dir
		appCfg.Static.Prefix = cfg.StaticPrefix()
		if !cfg.Server.DevMode {
			appCfg.Static.CacheControl = loom.CacheControlProduction
		}
	} else if cfg.Static.Dir != "" {
		warn("Static directory %s not found, skipping", dir)
	}

	app := loom.New(appCfg)

	pages, err := app.Pages(context.Background())
	if err != nil {
		return errors.FromError(err, "E004")
	}

	// Print banner
	printBanner()
	fmt.Println("  serve")
	fmt.Println()

	info("Templates: %s", source)
	if len(pages) == 0 {
		warn("No %s templates found", cfg.Templates.Ext)
	}
	for _, p := range pages {
		info("  %s", p)
	}
	fmt.Println()
	success("Listening on %s", cfg.URL())
	fmt.Println()

	return app.Run(cfg.Address())
}

// buildStore assembles the template store named by the config: S3 when a
// bucket is set, the template directory otherwise. The second return is a
// human-readable description of the source.
func buildStore(cfg *config.Config) (loom.Store, string, error) {
	if cfg.HasS3() {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Templates.S3.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Templates.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, "", errors.FromError(err, "E004").
				WithSuggestion("Check AWS credentials and the templates.s3.region setting")
		}

		var opts []loom.StoreOption
		if cfg.Templates.S3.Prefix != "" {
			opts = append(opts, loom.WithPrefix(cfg.Templates.S3.Prefix))
		}
		if !cfg.Templates.Cache {
			opts = append(opts, loom.WithoutCache())
		}

		store := loom.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Templates.S3.Bucket, opts...)
		return store, "s3://" + cfg.Templates.S3.Bucket + "/" + cfg.Templates.S3.Prefix, nil
	}

	dir := cfg.TemplatesPath()
	if !dirExists(dir) {
		return nil, "", errors.New("E064").
			WithDetail("Template directory " + dir + " does not exist").
			WithSuggestion("Create the directory or change templates.dir in " + config.ConfigFileName)
	}

	var opts []loom.StoreOption
	if !cfg.Templates.Cache || cfg.Server.DevMode {
		opts = append(opts, loom.WithoutCache())
	}
	return loom.NewDirStore(dir, opts...), dir, nil
}

// buildLogger builds the app logger from the config's log section.
func buildLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
