package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/control"
	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/metrics"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/util"
	"github.com/rotkonetworks/bspwm/internal/x11"
)

const (
	reloadConfig = "config"
	reloadState  = "state"
)

type options struct {
	configPath string
	logLevel   string
	statePath  string
	socketPath string
}

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "bspwmd", "config.yaml")

	var opts options
	flag.StringVar(&opts.configPath, "config", defaultConfig, "path to YAML config")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error), overrides the config")
	flag.StringVar(&opts.statePath, "state", "", "JSON state snapshot to load and watch, overrides the config")
	flag.StringVar(&opts.socketPath, "socket", "", "control socket path, overrides the config")
	flag.Parse()

	if err := run(opts); err != nil {
		exitErr(err)
	}
}

func run(opts options) error {
	raw, err := os.ReadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := util.NewLogger(util.ParseLogLevel(level))

	statePath := cfg.StateFile
	if opts.statePath != "" {
		statePath = opts.statePath
	}
	socketPath := cfg.Socket
	if opts.socketPath != "" {
		socketPath = opts.socketPath
	}

	var pointer selector.Pointer
	if cfg.Pointer.Enabled {
		p, err := x11.Dial(cfg.Pointer.Display)
		if err != nil {
			logger.Warnf("pointer queries disabled: %v", err)
		} else {
			defer p.Close()
			pointer = p
		}
	}

	eng := engine.New(logger, nil, nil, pointer, metrics.NewCollector(false))
	if err := eng.Configure(cfg); err != nil {
		return fmt.Errorf("compile rules: %w", err)
	}
	if statePath != "" {
		if err := loadState(eng, statePath); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	targets := map[string]string{}
	cfgFull, err := addWatch(logger, watcher, opts.configPath)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	targets[cfgFull] = reloadConfig
	if statePath != "" {
		stateFull, err := addWatch(logger, watcher, statePath)
		if err != nil {
			return fmt.Errorf("watch state: %w", err)
		}
		targets[stateFull] = reloadState
	}

	reloader := newConfigReloader(opts.configPath, logger, eng, cfg, raw)
	reloader.keepLevel = opts.logLevel != ""
	reloadAll := func(reason string) error {
		if err := reloader.Reload(reason); err != nil {
			return err
		}
		if statePath == "" {
			return nil
		}
		return loadState(eng, statePath)
	}

	srv, err := control.NewServer(eng, logger, reloadAll, socketPath)
	if err != nil {
		return fmt.Errorf("start control server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	requests := make(chan string, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})
	g.Go(func() error {
		return watchFiles(gctx, logger, watcher, targets, requests)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				logger.Infof("shutting down")
				return nil
			case what := <-requests:
				var err error
				switch what {
				case reloadConfig:
					err = reloader.Reload("config file updated")
				case reloadState:
					logger.Infof("state file updated, reloading state")
					err = loadState(eng, statePath)
				}
				if err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			case <-hup:
				if err := reloadAll("received SIGHUP"); err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			}
		}
	})
	return g.Wait()
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
