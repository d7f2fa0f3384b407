package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rotkonetworks/bspwm/internal/control/client"
	"github.com/rotkonetworks/bspwm/internal/selector"
)

type scopeFlags struct {
	monitor string
	desktop string
	node    string
}

func (s *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.monitor, "monitor", "m", "", "monitor descriptor or .modifier filter")
	cmd.Flags().StringVarP(&s.desktop, "desktop", "d", "", "desktop descriptor or .modifier filter")
	cmd.Flags().StringVarP(&s.node, "node", "n", "", "node descriptor or .modifier filter")
}

func (s *scopeFlags) scope() client.Scope {
	return client.Scope{Monitor: s.monitor, Desktop: s.desktop, Node: s.node}
}

func newQueryCmd(opts *cliOptions) *cobra.Command {
	query := &cobra.Command{
		Use:   "query",
		Short: "List ids or names, dump trees and resolve descriptors",
	}
	query.AddCommand(
		newListCmd(opts, "nodes", "List node ids within the scope"),
		newListCmd(opts, "desktops", "List desktops within the scope"),
		newListCmd(opts, "monitors", "List monitors within the scope"),
		newTreeCmd(opts),
		newStateCmd(opts),
		newResolveCmd(opts),
	)
	return query
}

func newListCmd(opts *cliOptions, what, short string) *cobra.Command {
	var (
		sf    scopeFlags
		names bool
	)
	cmd := &cobra.Command{
		Use:   what,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			var out []string
			switch what {
			case "nodes":
				out, err = cli.Nodes(ctx, sf.scope())
			case "desktops":
				out, err = cli.Desktops(ctx, sf.scope(), names)
			default:
				out, err = cli.Monitors(ctx, sf.scope(), names)
			}
			if err != nil {
				return err
			}
			opts.printLines(out)
			return nil
		},
	}
	sf.register(cmd)
	if what != "nodes" {
		cmd.Flags().BoolVar(&names, "names", false, "print names instead of ids")
	}
	return cmd
}

func newTreeCmd(opts *cliOptions) *cobra.Command {
	var sf scopeFlags
	cmd := &cobra.Command{
		Use:       "tree <monitor|desktop|node>",
		Short:     "Print the JSON tree of the designated object",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"monitor", "desktop", "node"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			raw, err := cli.Tree(ctx, args[0], sf.scope())
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, strings.TrimSpace(string(raw)))
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newStateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the whole state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			snap, err := cli.State(ctx)
			if err != nil {
				return err
			}
			return opts.printJSON(snap, false)
		},
	}
}

func newResolveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <monitor|desktop|node> <descriptor>",
		Short: "Resolve a descriptor and print the ids it designates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cancel()
			ids, err := cli.Resolve(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printCoordinate(opts, ids)
			return nil
		},
	}
}

func printCoordinate(opts *cliOptions, ids client.CoordinateIDs) {
	fmt.Fprintf(opts.stdout, "monitor=%s desktop=%s node=%s\n",
		selector.FormatID(ids.MonitorID), selector.FormatID(ids.DesktopID), selector.FormatID(ids.NodeID))
}
