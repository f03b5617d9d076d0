package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"markestedt/cliphoard/app"
	"markestedt/cliphoard/config"
	"markestedt/cliphoard/platform"
	"markestedt/cliphoard/platform/keybind"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/storage"
	"markestedt/cliphoard/systray"
	"markestedt/cliphoard/web"
)

func main() {
	// Setup logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		slog.Warn("Unknown log level, using info", "level", cfg.Log.Level)
	}

	configPath, _ := config.ConfigPath()
	slog.Info("Configuration loaded", "path", configPath)

	// macOS delivers hotkey events on the main thread
	keybind.Run(func() {
		err = run(cfg)
	})
	if err != nil {
		slog.Error("ClipHoard error", "error", err)
		os.Exit(1)
	}

	slog.Info("ClipHoard stopped")
}

func run(cfg *config.Config) error {
	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var db *storage.DB
	if cfg.Storage.Enabled {
		var err error
		db, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			slog.Warn("Usage log disabled", "path", cfg.Storage.Path, "error", err)
			db = nil
		} else {
			defer db.Close()
			if n, err := db.Prune(cfg.Storage.RetentionDays); err != nil {
				slog.Warn("Failed to prune usage log", "error", err)
			} else if n > 0 {
				slog.Info("Pruned usage log", "removed", n, "retention_days", cfg.Storage.RetentionDays)
			}
		}
	}

	// Copying still works without a keystroke injector; each auto-paste
	// then fails with a notice
	paster, err := newPaster(cfg.Paste)
	if err != nil {
		slog.Warn("Auto-paste unavailable", "error", err)
		paster = platform.NoPaster(err)
	}

	host := popup.NewHost(nil)
	opts := app.Options{
		SettingsPath: cfg.Settings.Path,
		Autosave:     cfg.Settings.Autosave,
		Registrar:    keybind.NewRegistrar(),
		Clipboard:    platform.NewClipboard(),
		Paster:       paster,
		Popups:       host,
		Autostart:    platform.NewAutostart("ClipHoard"),
	}
	if db != nil {
		opts.Usage = db
	}
	controller := app.New(opts)

	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(controller, host, db, cfg.Web.Port)
		controller.AddListener(server)
	}

	view, err := newView(cfg.Popup.View, host, server)
	if err != nil {
		return err
	}
	host.SetView(view)

	var tray *systray.Tray
	if cfg.Tray.Enabled {
		if runtime.GOOS == "darwin" {
			slog.Warn("System tray is not available on macOS")
		} else {
			dashboard := ""
			if server != nil {
				dashboard = server.URL()
			}
			tray = systray.New(controller, dashboard)
			controller.AddListener(tray)
		}
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- controller.Run(ctx)
	}()

	// The web server outlives the signal context until the controller has
	// saved and stopped
	webCtx, stopWeb := context.WithCancel(context.Background())
	webDone := make(chan struct{})
	if server != nil {
		go func() {
			defer close(webDone)
			if err := server.Start(webCtx); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
		if cfg.Web.OpenOnStart {
			systray.OpenBrowser(server.URL())
		}
	} else {
		close(webDone)
	}

	if tray != nil {
		go func() {
			<-controller.Done()
			tray.Quit()
		}()
		tray.Run()
		// the tray can also end on its own, e.g. at logoff
		cancel()
	}

	err = <-runErr
	stopWeb()

	select {
	case <-webDone:
	case <-time.After(10 * time.Second):
		slog.Warn("Timed out waiting for web server to stop")
	}

	return err
}

// newPaster builds the keystroke injector from the [paste] section
func newPaster(cfg config.PasteConfig) (platform.Paster, error) {
	combo, err := config.ParseHotkey(cfg.Combo)
	if err != nil {
		return nil, fmt.Errorf("failed to parse paste combo: %w", err)
	}

	paster, err := platform.NewPaster(platform.KeyCombo{
		Ctrl:  combo.Ctrl,
		Shift: combo.Shift,
		Alt:   combo.Alt,
		Win:   combo.Win,
		Key:   combo.Key,
	}, time.Duration(cfg.SettleMs)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to create paster: %w", err)
	}
	return paster, nil
}

// newView picks the popup renderer. The native menu falls back to the
// dashboard when it is unavailable.
func newView(kind string, host *popup.Host, server *web.Server) (popup.View, error) {
	if kind == config.ViewMenu {
		menu, err := platform.NewPopupMenu(host)
		if err == nil {
			slog.Info("Using native popup menu")
			return menu, nil
		}
		if !errors.Is(err, platform.ErrNoPopupMenu) {
			slog.Warn("Failed to create popup menu", "error", err)
		}
		slog.Info("Falling back to dashboard popups")
	}

	if server == nil {
		return nil, fmt.Errorf("popup view %q needs the web dashboard; enable [web]", kind)
	}
	return server, nil
}
