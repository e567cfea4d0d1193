package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robertmeta/badge-cli/badge"
	"github.com/robertmeta/badge-cli/booster"
	"github.com/robertmeta/badge-cli/config"
	"github.com/robertmeta/badge-cli/logger"
	"github.com/robertmeta/badge-cli/model"
	"github.com/robertmeta/badge-cli/steamsets"
	"github.com/robertmeta/badge-cli/store"
	"github.com/urfave/cli/v2"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

const storageNotice = "Badge storage is unavailable; favorites and the badge cache cannot be used."

func main() {
	app := &cli.App{
		Name:    "badge-cli",
		Usage:   "Steam badge progress and favorites for the booster creator",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   getDefaultDBPath(),
				Usage:   "Database file path",
				EnvVars: []string{"BADGE_DB"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Load settings from this dotenv file",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Steam profile id or vanity name (overrides BADGE_OWNER_ID)",
			},
			&cli.BoolFlag{
				Name:  "steamid64",
				Usage: "Treat the owner id as a SteamID64 (overrides BADGE_OWNER_IS_STEAMID64)",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "SteamSets API key (overrides BADGE_API_KEY)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show badge progress, the badge list and favorites for an app",
				ArgsUsage: "<app-id|booster-creator-url>",
				Action:    showApp,
			},
			{
				Name:      "badges",
				Usage:     "List every badge of an app from the SteamSets API",
				ArgsUsage: "<app-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "refresh",
						Aliases: []string{"r"},
						Usage:   "Bypass the cache",
					},
				},
				Action: listBadges,
			},
			{
				Name:  "favorites",
				Usage: "Manage favorite badges",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List favorites",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "sort",
								Aliases: []string{"s"},
								Usage:   "Sort order for this listing only (appid_asc, appid_desc, foil_first, foil_last)",
							},
						},
						Action: listFavorites,
					},
					{
						Name:  "toggle",
						Usage: "Add a favorite, or remove it if present",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "app-id",
								Aliases:  []string{"a"},
								Usage:    "App ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:    "name",
								Aliases: []string{"n"},
								Usage:   "Badge name",
							},
							&cli.StringFlag{
								Name:    "image-url",
								Aliases: []string{"i"},
								Usage:   "Badge image URL",
							},
							&cli.BoolFlag{
								Name:    "foil",
								Aliases: []string{"f"},
								Usage:   "Foil badge",
							},
						},
						Action: toggleFavorite,
					},
					{
						Name:      "import",
						Usage:     "Import favorites from a JSON file",
						ArgsUsage: "<json-file>",
						Action:    importFavorites,
					},
					{
						Name:  "export",
						Usage: "Export favorites to a JSON file",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (default: stdout)",
							},
						},
						Action: exportFavorites,
					},
				},
			},
			{
				Name:      "sort-order",
				Usage:     "Show or set the favorites sort order",
				ArgsUsage: "[appid_asc|appid_desc|foil_first|foil_last]",
				Action:    sortOrder,
			},
			{
				Name:  "cache",
				Usage: "Manage the badge list cache",
				Subcommands: []*cli.Command{
					{
						Name:   "evict",
						Usage:  "Remove expired cache entries",
						Action: evictCache,
					},
				},
			},
			{
				Name:  "watch",
				Usage: "Read app ids or URLs from stdin and print a JSON report per refresh",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"t"},
						Usage:   "Refresh the current app on this interval (0 disables)",
					},
				},
				Action: watch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "badge-cli.db"
	}
	return filepath.Join(home, ".config", "badge-cli", "badge-cli.db")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("env-file"), c.IsSet("env-file"))
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg = applyFlagOverrides(cfg, c)
	return cfg, logger.Init(cfg.LogEnabled, cfg.LogLevel), nil
}

// applyFlagOverrides replaces config values with explicitly set flags.
func applyFlagOverrides(cfg config.Config, c *cli.Context) config.Config {
	if c.IsSet("owner") {
		cfg.OwnerID = c.String("owner")
	}
	if c.IsSet("steamid64") {
		cfg.OwnerIsSteamID64 = c.Bool("steamid64")
	}
	if c.IsSet("api-key") {
		cfg.APIKey = c.String("api-key")
	}
	return cfg
}

func getStore(c *cli.Context, cfg config.Config, log *slog.Logger) (*store.Store, error) {
	dbPath := c.String("db")
	if !c.IsSet("db") && cfg.DBPath != "" {
		dbPath = cfg.DBPath
	}

	ttl, err := store.ParseTTL(cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %v", store.ErrStorageUnavailable, err)
	}

	return store.New(dbPath, store.WithTTL(ttl), store.WithLogger(log))
}

// storeExit maps a store opening error to an exit.
func storeExit(err error) error {
	if errors.Is(err, store.ErrStorageUnavailable) {
		return cli.Exit(fmt.Sprintf("%s\n%v", storageNotice, err), ExitDataError)
	}
	return cli.Exit(err.Error(), ExitUsageError)
}

// newService wires the service. The caller closes the returned store.
func newService(c *cli.Context) (*booster.Service, *store.Store, *slog.Logger, error) {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, cli.Exit(err.Error(), ExitUsageError)
	}

	s, err := getStore(c, cfg, log)
	if err != nil {
		return nil, nil, nil, storeExit(err)
	}

	parser := badge.NewParser(cfg.CommunityURL, log)
	svc := booster.NewService(cfg, booster.Deps{
		Pages:     badge.NewFetcher(parser, cfg.HTTPTimeout, log),
		Lister:    steamsets.NewClient(cfg.APIURL, cfg.APIKey, cfg.HTTPTimeout, log),
		Cache:     s,
		Favorites: s,
		Settings:  s,
		Logger:    log,
	})
	return svc, s, log, nil
}

func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeFavoritesView prints view and turns a failed favorites write into
// a data-error exit.
func writeFavoritesView(w io.Writer, view *booster.FavoritesView) error {
	if err := writeJSON(w, view); err != nil {
		return err
	}
	if view.Error != "" {
		return cli.Exit(view.Error, ExitDataError)
	}
	return nil
}

// appIDArg accepts a bare app id or a booster creator URL.
func appIDArg(arg string) string {
	return badge.AppIDFromURL(strings.TrimRight(strings.TrimSpace(arg), "/"))
}

func showApp(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: badge-cli show <app-id|booster-creator-url>", ExitUsageError)
	}

	appID := appIDArg(c.Args().Get(0))
	if appID == "" {
		return cli.Exit("Invalid app ID or URL", ExitUsageError)
	}

	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	return outputJSON(svc.Refresh(c.Context, appID))
}

func listBadges(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: badge-cli badges <app-id>", ExitUsageError)
	}

	appID, err := strconv.ParseInt(appIDArg(c.Args().Get(0)), 10, 64)
	if err != nil {
		return cli.Exit("Invalid app ID", ExitUsageError)
	}

	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	return outputJSON(svc.BadgeList(c.Context, appID, c.Bool("refresh")))
}

func listFavorites(c *cli.Context) error {
	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.IsSet("sort") {
		order, err := model.ParseSortOrder(c.String("sort"))
		if err != nil {
			return cli.Exit(err.Error(), ExitUsageError)
		}
		return outputJSON(svc.FavoritesSorted(c.Context, order))
	}

	return outputJSON(svc.Favorites(c.Context))
}

func toggleFavorite(c *cli.Context) error {
	appID := appIDArg(c.String("app-id"))
	if appID == "" {
		return cli.Exit("Invalid app ID", ExitUsageError)
	}

	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	fav := model.Favorite{
		AppID:    appID,
		Name:     c.String("name"),
		ImageURL: c.String("image-url"),
		IsFoil:   c.Bool("foil"),
	}
	fav.Normalize()

	added, view := svc.ToggleFavorite(c.Context, fav)
	if view.Error != "" {
		return writeFavoritesView(os.Stdout, view)
	}

	return outputJSON(map[string]interface{}{
		"success":   true,
		"id":        fav.ID,
		"added":     added,
		"favorites": view,
	})
}

func importFavorites(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: badge-cli favorites import <json-file>", ExitUsageError)
	}

	path := c.Args().Get(0)

	file, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to open favorites file: %v", err), ExitDataError)
	}
	defer file.Close()

	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	result, view, err := svc.ImportFavorites(c.Context, file)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to parse favorites: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success":   view.Error == "",
		"processed": result.Processed,
		"errors":    result.Errors,
		"favorites": view,
	})
}

func exportFavorites(c *cli.Context) error {
	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	outputPath := c.String("output")
	var writer io.Writer

	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	count, err := svc.ExportFavorites(c.Context, writer)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to export favorites: %v", err), ExitDataError)
	}

	// If outputting to file, also return JSON status
	if outputPath != "" {
		return outputJSON(map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"count":   count,
		})
	}

	return nil
}

func sortOrder(c *cli.Context) error {
	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.NArg() < 1 {
		return outputJSON(map[string]interface{}{
			"order": svc.SortOrder(c.Context),
		})
	}

	order, err := model.ParseSortOrder(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	return writeFavoritesView(os.Stdout, svc.SetSortOrder(c.Context, order))
}

func evictCache(c *cli.Context) error {
	svc, s, _, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	return outputJSON(map[string]interface{}{
		"evicted": svc.EvictStale(c.Context),
		"ttl":     s.TTL().String(),
	})
}

func watch(c *cli.Context) error {
	svc, s, log, err := newService(c)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	triggers := make(chan booster.Trigger)
	go readTriggers(ctx, os.Stdin, c.Duration("interval"), triggers, log)

	encoder := json.NewEncoder(os.Stdout)
	dispatcher := booster.NewDispatcher(svc, log)
	err = dispatcher.Run(ctx, triggers, func(r *booster.Report) {
		if err := encoder.Encode(r); err != nil {
			log.Error("failed to write report", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(err.Error(), ExitGeneralError)
	}
	return nil
}

// readTriggers turns stdin lines into navigation triggers, "refresh" into
// a user trigger, and interval ticks into timer triggers. It closes out
// when stdin ends.
func readTriggers(ctx context.Context, in io.Reader, interval time.Duration, out chan<- booster.Trigger, log *slog.Logger) {
	defer close(out)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Error("failed to read input", "error", err)
		}
	}()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		var t booster.Trigger
		select {
		case <-ctx.Done():
			return
		case <-tick:
			t = booster.Trigger{Kind: booster.TriggerTimer}
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == "refresh":
				t = booster.Trigger{Kind: booster.TriggerUser}
			default:
				appID := appIDArg(line)
				if appID == "" {
					log.Warn("ignoring input without an app id", "input", line)
					continue
				}
				t = booster.Trigger{Kind: booster.TriggerNavigation, AppID: appID}
			}
		}

		select {
		case out <- t:
		case <-ctx.Done():
			return
		}
	}
}
