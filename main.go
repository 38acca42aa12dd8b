package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/tabshell/config"
	"github.com/chrisuehlinger/tabshell/engine"
	"github.com/chrisuehlinger/tabshell/logging"
	"github.com/chrisuehlinger/tabshell/network"
	"github.com/chrisuehlinger/tabshell/store"
	"github.com/chrisuehlinger/tabshell/ui"
)

const appID = "io.github.chrisuehlinger.tabshell"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tabshell:", err)
		os.Exit(1)
	}
}

func run() error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, err := logging.New(loggerConfig(cfg.Log))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to open store", zap.String("path", cfg.Database), zap.Error(err))
		return err
	}
	defer st.Close()

	client, err := network.NewClient(
		network.WithTimeout(cfg.Network.Timeout.Duration),
		network.WithUserAgent(cfg.Network.UserAgent),
	)
	if err != nil {
		log.Error("failed to create HTTP client", zap.Error(err))
		return err
	}

	var cache *network.Cache
	if cfg.Network.CacheEntries > 0 {
		cache = network.NewCache(cfg.Network.CacheEntries)
	}
	pipeline := &engine.Pipeline{
		Fetcher:       network.NewFetcher(client, network.WithCache(cache)),
		Scripts:       cfg.Scripts.Enabled,
		ScriptTimeout: cfg.Scripts.Timeout.Duration,
		Logger:        logging.Component(log, "script"),
	}

	browser := ui.NewBrowserUI(app.NewWithID(appID), pipeline, st, ui.Config{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Home:   cfg.HomePage,
	}, log)

	// Storage failures here were already shown in a dialog; the window still opens.
	if err := browser.Start(ctx); err != nil {
		log.Warn("startup incomplete", zap.Error(err))
	}

	log.Info("browser started", zap.String("home", cfg.HomePage), zap.String("database", cfg.Database))
	browser.Run()
	return nil
}

// loggerConfig overlays the [log] table on the logging defaults.
func loggerConfig(l config.Log) logging.Config {
	lc := logging.DefaultConfig()
	if l.Level != "" {
		lc.Level = strings.ToLower(l.Level)
	}
	lc.Development = l.Development
	return lc
}
