package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/bookmark-engine/api"
	"github.com/gcbaptista/bookmark-engine/config"
	"github.com/gcbaptista/bookmark-engine/internal/engine"
	"github.com/gcbaptista/bookmark-engine/internal/logging"
	"github.com/gcbaptista/bookmark-engine/internal/mcp"
	"github.com/gcbaptista/bookmark-engine/services"
)

const shutdownTimeout = 10 * time.Second

// newCLIApp creates the CLI application with all commands. JSON output goes to out.
func newCLIApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:    "bookmark_engine",
		Usage:   "Organize bookmarks into similarity clusters and search them",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "Directory for persisted state (default $BOOKMARK_DATA_DIR or ./bookmark_data)"},
			&cli.StringFlag{Name: "storage", Usage: "Storage backend: memory|gob|sqlite"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error"},
			&cli.BoolFlag{Name: "no-metadata", Usage: "Do not fetch page metadata"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			mcpCmd(),
			addCmd(),
			searchCmd(),
			statsCmd(),
			clustersCmd(),
			resetCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// settingsFrom layers the global flags over the environment settings.
func settingsFrom(c *cli.Context) config.Settings {
	settings := config.Load()
	if c.IsSet("data-dir") {
		settings.Storage.DataDir = c.String("data-dir")
	}
	if c.IsSet("storage") {
		settings.Storage.Backend = c.String("storage")
	}
	if c.IsSet("log-level") {
		settings.Log.Level = c.String("log-level")
	}
	if c.Bool("no-metadata") {
		settings.Metadata.Enabled = false
	}
	return settings
}

// withLibrary opens the library described by the global flags, runs fn and
// closes the library.
func withLibrary(c *cli.Context, fn func(settings config.Settings, lib *engine.Library, logger logrus.FieldLogger) error) error {
	settings := settingsFrom(c)
	logger, err := logging.New(settings.Log.Level, settings.Log.Format)
	if err != nil {
		return outputError(err)
	}

	lib, err := engine.Build(c.Context, settings, logger)
	if err != nil {
		return outputError(err)
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close library")
		}
	}()

	return fn(settings, lib, logger)
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default $BOOKMARK_PORT or 8080)"},
		},
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(settings config.Settings, lib *engine.Library, logger logrus.FieldLogger) error {
				port := settings.Server.Port
				if c.IsSet("port") {
					port = c.String("port")
				}

				var jobManager services.JobManager
				if jm := lib.Jobs(); jm != nil {
					jobManager = jm
				}

				gin.SetMode(gin.ReleaseMode)
				router := gin.New()
				router.Use(gin.Recovery())
				api.SetupRoutes(router, lib, jobManager, logger)

				ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return serve(ctx, &http.Server{Addr: ":" + port, Handler: router}, logger)
			})
		},
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return cli.Exit(fmt.Sprintf("server failed: %v", err), 1)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return cli.Exit(fmt.Sprintf("shutdown failed: %v", err), 1)
	}
	return nil
}

// mcpCmd creates the mcp command.
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the bookmark tools over MCP stdio",
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, logger logrus.FieldLogger) error {
				return mcp.Run(lib, Version, logger)
			})
		},
	}
}

// addCmd creates the add command.
func addCmd() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a bookmark and organize it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Required: true, Usage: "Bookmark URL"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title (defaults to the hostname)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "folder", Usage: "Folder ID to file into"},
			&cli.BoolFlag{Name: "no-organize", Usage: "Do not cluster the bookmark"},
		},
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, _ logrus.FieldLogger) error {
				input := services.AddBookmarkInput{
					URL:         c.String("url"),
					Title:       c.String("title"),
					Description: c.String("description"),
					Tags:        parseTags(c.String("tags")),
					FolderID:    c.String("folder"),
				}
				if c.Bool("no-organize") {
					organize := false
					input.AutoOrganize = &organize
				}

				result, err := lib.AddBookmark(c.Context, input)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(c, result)
			})
		},
	}
}

// searchCmd creates the search command.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search bookmarks and folders",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("search query is required", 1)
			}
			query := strings.Join(c.Args().Slice(), " ")
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, _ logrus.FieldLogger) error {
				return outputJSON(c, lib.Search(query))
			})
		},
	}
}

// statsCmd creates the stats command.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show clustering statistics",
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, _ logrus.FieldLogger) error {
				return outputJSON(c, lib.ClusterStats())
			})
		},
	}
}

// clustersCmd creates the clusters command.
func clustersCmd() *cli.Command {
	return &cli.Command{
		Name:  "clusters",
		Usage: "List clusters",
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, _ logrus.FieldLogger) error {
				clusters := lib.Clusters()
				return outputJSON(c, map[string]any{
					"clusters": clusters,
					"total":    len(clusters),
				})
			})
		},
	}
}

// resetCmd creates the reset command.
func resetCmd() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Discard all clusters and move their bookmarks to the root",
		Action: func(c *cli.Context) error {
			return withLibrary(c, func(_ config.Settings, lib *engine.Library, _ logrus.FieldLogger) error {
				if err := lib.ResetClustering(c.Context); err != nil {
					return outputError(err)
				}
				return outputJSON(c, map[string]any{"reset": true})
			})
		},
	}
}

// outputJSON writes v as indented JSON to the app writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}

// parseTags splits a comma-separated tag list.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
