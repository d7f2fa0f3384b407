package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/util"
)

type configReloader struct {
	path   string
	logger *util.Logger
	engine *engine.Engine
	// keepLevel is set when the log level came from the command line.
	keepLevel bool

	mu             sync.Mutex
	lastConfig     *config.Config
	lastRaw        []byte
	lastSerialized []byte
}

func newConfigReloader(path string, logger *util.Logger, eng *engine.Engine, cfg *config.Config, raw []byte) *configReloader {
	serialized, err := config.Serialize(cfg)
	if err != nil {
		logger.Debugf("serialize initial config: %v", err)
	}
	return &configReloader{
		path:           path,
		logger:         logger,
		engine:         eng,
		lastConfig:     cfg,
		lastRaw:        append([]byte(nil), raw...),
		lastSerialized: serialized,
	}
}

// Reload re-reads the config file and installs it. A config that fails to parse,
// validate or compile is rejected and the previous one stays active.
func (r *configReloader) Reload(reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Infof("%s, reloading config", reason)
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		r.logRejected(raw)
		return err
	}
	if err := r.engine.Configure(cfg); err != nil {
		r.logRejected(raw)
		return fmt.Errorf("compile rules: %w", err)
	}

	serialized, err := config.Serialize(cfg)
	if err != nil {
		r.logger.Debugf("serialize config: %v", err)
	} else if diff := config.DiffSerialized(r.lastSerialized, serialized); diff != "" {
		r.logger.Infof("config changes:\n%s", diff)
	}
	if cfg.Socket != r.lastConfig.Socket || cfg.StateFile != r.lastConfig.StateFile || cfg.Pointer != r.lastConfig.Pointer {
		r.logger.Warnf("socket, stateFile and pointer changes take effect after a restart")
	}
	if !r.keepLevel {
		r.logger.SetLevel(util.ParseLogLevel(cfg.LogLevel))
	}

	r.lastConfig = cfg
	r.lastRaw = append([]byte(nil), raw...)
	r.lastSerialized = serialized
	return nil
}

// Config returns the config currently in effect.
func (r *configReloader) Config() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastConfig
}

func (r *configReloader) logRejected(current []byte) {
	diff := config.DiffSerialized(r.lastRaw, current)
	if diff == "" {
		r.logger.Warnf("config change rejected; unable to compute diff vs last valid config")
		return
	}
	r.logger.Warnf("config change rejected; diff vs last valid config:\n%s", diff)
}

// loadState replaces the engine's world with the snapshot stored at path.
func loadState(eng *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer f.Close()
	if err := eng.LoadState(f); err != nil {
		return fmt.Errorf("load state %s: %w", path, err)
	}
	return nil
}
