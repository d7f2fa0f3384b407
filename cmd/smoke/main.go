package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/util"
)

// smoke loads a config and a state snapshot without a daemon and shows where the
// rules would place each window given as Class[:instance].
func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "bspwmd", "config.yaml")

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	statePath := flag.String("state", "", "state snapshot to evaluate against (required)")
	logLevel := flag.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	explain := flag.Bool("explain", true, "print the match trace of every rule")
	flag.Parse()

	if *statePath == "" {
		exitErr(fmt.Errorf("-state is required"))
	}
	logger := util.NewLogger(util.ParseLogLevel(*logLevel))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("load config: %w", err))
	}
	f, err := os.Open(*statePath)
	if err != nil {
		exitErr(fmt.Errorf("open state: %w", err))
	}
	world, hist, err := state.DecodeSnapshot(f)
	f.Close()
	if err != nil {
		exitErr(fmt.Errorf("load state: %w", err))
	}

	eng := engine.New(logger, world, hist, nil, nil)
	if err := eng.Configure(cfg); err != nil {
		exitErr(fmt.Errorf("compile rules: %w", err))
	}

	fmt.Printf("Loaded config from %s\n", *cfgPath)
	fmt.Println("\n=== Configuration ===")
	if err := marshalYAML(os.Stdout, cfg); err != nil {
		logger.Warnf("failed to print config: %v", err)
	}

	fmt.Println("\n=== Focus ===")
	if err := marshalJSON(os.Stdout, eng.Focus()); err != nil {
		logger.Warnf("failed to print focus: %v", err)
	}

	if flag.NArg() == 0 {
		fmt.Println("\nNo windows given; pass Class[:instance] arguments to evaluate rules.")
		return
	}
	for _, arg := range flag.Args() {
		out := eng.ApplyRules(parseSubject(arg), *explain)
		printOutcome(os.Stdout, out, *explain, logger)
	}
}

// parseSubject splits Class[:instance]; the instance defaults to the class.
func parseSubject(arg string) rules.Subject {
	class, instance, ok := strings.Cut(arg, ":")
	if !ok {
		instance = class
	}
	return rules.Subject{Class: class, Instance: instance}
}

func printOutcome(w io.Writer, out rules.Outcome, explain bool, logger *util.Logger) {
	fmt.Fprintf(w, "\n=== %s:%s ===\n", out.Subject.Class, out.Subject.Instance)
	if len(out.Matched) == 0 {
		fmt.Fprintln(w, "matched: (none)")
	} else {
		fmt.Fprintf(w, "matched: %s\n", strings.Join(out.Matched, ", "))
	}
	fmt.Fprintf(w, "consequence: %s\n", out.Consequence.String())
	if !explain || len(out.Traces) == 0 {
		return
	}
	names := make([]string, 0, len(out.Traces))
	for name := range out.Traces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := "skipped"
		if out.Traces[name].Result {
			status = "matched"
		}
		fmt.Fprintf(w, "rule %s -> %s\n", name, status)
		if err := marshalJSON(w, out.Traces[name]); err != nil {
			logger.Warnf("failed to print match trace for %s: %v", name, err)
		}
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func marshalYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func marshalJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
