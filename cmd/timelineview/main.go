package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"timelineview/internal/capture"
	"timelineview/internal/config"
	appLog "timelineview/internal/log"
	"timelineview/internal/render"
	"timelineview/internal/source"
	"timelineview/internal/vault"
	"timelineview/internal/view"
	"timelineview/internal/web"
)

const version = "0.2.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dump       bool
}

func main() {
	appLog.Info("timelineview starting", "version", version)

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"docs_dir", conf.DocsDir,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"once", flags.once,
		"dump", flags.dump,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loc := resolveLocationOrLocal(conf.Timezone)

	engine := source.NewICSEngine(subscriptions(conf), conf.CacheDir, loc)
	pipeline := render.NewPipeline(engine)
	registry := view.NewRegistry(engine, pipeline)
	defer registry.Close()

	docs := vault.New(conf.DocsDir)

	rescan := func() {
		blocks, err := docs.Scan()
		if err != nil {
			appLog.Error("vault scan failed", err, "dir", conf.DocsDir)
			return
		}
		appLog.Info("vault scanned", "blocks", len(blocks))
		registry.Apply(ctx, blocks)
	}
	rescan()

	if flags.once {
		if flags.dump {
			if err := dumpViews(registry); err != nil {
				appLog.Error("dump failed", err)
				os.Exit(1)
			}
		}
		appLog.Info("single-shot run complete", "views", len(registry.List()))
		return
	}

	// Periodic data refresh: warm the ICS cache and notify every mounted
	// view through the engine's refresh bus.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		appLog.Info("scheduled refresh")
		engine.Refresh(ctx)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Structural changes: document edits remount affected views.
	go func() {
		if err := docs.Watch(ctx, rescan); err != nil && ctx.Err() == nil {
			appLog.Error("vault watch stopped", err)
		}
	}()

	if conf.Preview != nil {
		setupPreview(ctx, conf, engine)
	}

	if err := web.NewServer(conf, registry, pipeline).Start(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("timelineview exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/timelineview/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Scan and render all views once, then exit")
	flag.BoolVar(&cfg.dump, "dump", false, "With -once: write rendered HTML fragments to ./dump")

	flag.Parse()

	return cfg
}

// subscriptions converts config entries into engine subscriptions, deriving
// missing IDs from name or URL.
func subscriptions(conf *config.Config) []source.Subscription {
	subs := make([]source.Subscription, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		subs = append(subs, source.Subscription{
			ID:   id,
			Name: c.Name,
			URL:  c.URL,
		})
	}
	return subs
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

// dumpViews writes each mounted view's HTML fragment to ./dump.
func dumpViews(registry *view.Registry) error {
	const dir = "./dump"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, v := range registry.List() {
		html := v.HTML()
		if html == nil {
			continue
		}
		name := strings.NewReplacer("/", "_", "#", "_").Replace(v.ID()) + ".html"
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, html, 0o644); err != nil {
			return err
		}
		appLog.Info("dumped view", "view", v.ID(), "path", path)
	}
	return nil
}

// setupPreview subscribes a PNG capture of the configured view to the
// refresh bus. The capture is delayed slightly so the re-renders triggered
// by the same notification have settled.
func setupPreview(ctx context.Context, conf *config.Config, engine *source.ICSEngine) {
	pv := conf.Preview
	captureURL := fmt.Sprintf("http://%s/view/%s", conf.Listen, url.PathEscape(pv.View))

	engine.OnRefresh(func() {
		time.AfterFunc(2*time.Second, func() {
			err := capture.ViewPNG(ctx, capture.Options{
				URL:        captureURL,
				OutputPath: pv.Path,
				Width:      pv.Width,
				Height:     pv.Height,
			})
			if err != nil {
				appLog.Error("preview capture failed", err, "view", pv.View)
				return
			}
			appLog.Info("preview captured", "view", pv.View, "path", pv.Path)
		})
	})
}
