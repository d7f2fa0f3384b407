package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/control/client"
	"github.com/rotkonetworks/bspwm/internal/ui/tui"
)

func newFocusCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "focus <monitor|desktop|node> <descriptor>",
		Short: "Focus the designated object and print the new focus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			ids, err := cli.Focus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printCoordinate(opts, ids)
			return nil
		},
	}
}

func newRuleCmd(opts *cliOptions) *cobra.Command {
	rule := &cobra.Command{
		Use:   "rule",
		Short: "Inspect and edit placement rules",
	}

	var explain bool
	apply := &cobra.Command{
		Use:   "apply <class> [instance]",
		Short: "Show where the rules would place a new window",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			instance := ""
			if len(args) == 2 {
				instance = args[1]
			}
			out, err := cli.ApplyRules(ctx, args[0], instance, explain)
			if err != nil {
				return err
			}
			if explain {
				return opts.printJSON(out, true)
			}
			if len(out.Matched) > 0 {
				fmt.Fprintf(opts.stderr, "matched: %s\n", strings.Join(out.Matched, ", "))
			}
			fmt.Fprintln(opts.stdout, out.Consequence.String())
			return nil
		},
	}
	apply.Flags().BoolVar(&explain, "explain", false, "print the match trace of every rule as JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List active rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			names, err := cli.Rules(ctx)
			if err != nil {
				return err
			}
			opts.printLines(names)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove every rule with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			n, err := cli.RemoveRule(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "removed %d rule(s)\n", n)
			return nil
		},
	}

	rule.AddCommand(apply, list, remove)
	return rule
}

func newReloadCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon's config and state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			if err := cli.Reload(ctx); err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, "Reload requested")
			return nil
		},
	}
}

func newMetricsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print resolution and rule counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			snap, err := cli.Metrics(ctx)
			if err != nil {
				return err
			}
			if !snap.Enabled {
				fmt.Fprintln(opts.stdout, "Telemetry disabled")
				return nil
			}
			fmt.Fprintf(opts.stdout, "resolutions=%d failures=%d rule_matches=%d\n",
				snap.Totals.Resolutions, snap.Totals.Failures, snap.Totals.RuleMatches)
			for _, r := range snap.Resolutions {
				fmt.Fprintf(opts.stdout, "%s %s %d\n", r.Kind, r.Result, r.Count)
			}
			for _, r := range snap.Rules {
				fmt.Fprintf(opts.stdout, "rule %s %d\n", r.Rule, r.Matched)
			}
			return nil
		},
	}
}

func newInspectCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the focus, active rules and recent commands as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			snap, err := cli.Inspect(ctx)
			if err != nil {
				return err
			}
			return opts.printJSON(snap, true)
		},
	}
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var refresh time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render a live dashboard of monitors, desktops, windows and recent commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := client.New(opts.socket)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			r := tui.New(cli, opts.stdout)
			r.Refresh = refresh
			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 500*time.Millisecond, "dashboard refresh interval")
	return cmd
}

func newCheckCmd(opts *cliOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file without contacting the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return fmt.Errorf("check requires --config <path>")
			}
			if _, err := config.Load(path); err != nil {
				fmt.Fprintf(opts.stderr, "Configuration invalid: %v\n", err)
				return fmt.Errorf("configuration validation failed")
			}
			fmt.Fprintln(opts.stdout, "Configuration OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "path to configuration file")
	return cmd
}
