package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotkonetworks/bspwm/internal/control/client"
)

type cliOptions struct {
	socket  string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "bspc",
		Short: "Query and steer the bspwm selector daemon",
		Long: `bspc talks to bspwmd over its control socket.

Descriptors follow the window manager's grammar: "focused", "east.!floating",
"@/first/second", "DP-1:^2", "%HDMI-0#next.occupied" or a 0xNNNNNNNN id.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.socket, "socket", "", "path to the control socket (default $BSPWM_SOCKET or the runtime dir)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 3*time.Second, "control request timeout")

	root.AddCommand(
		newQueryCmd(opts),
		newFocusCmd(opts),
		newRuleCmd(opts),
		newReloadCmd(opts),
		newMetricsCmd(opts),
		newInspectCmd(opts),
		newWatchCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

// connect returns a client and a context bounded by the request timeout.
func (o *cliOptions) connect(parent context.Context) (*client.Client, context.Context, context.CancelFunc, error) {
	cli, err := client.New(o.socket)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create client: %w", err)
	}
	if parent == nil {
		parent = context.Background()
	}
	if o.timeout <= 0 {
		ctx, cancel := context.WithCancel(parent)
		return cli, ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	return cli, ctx, cancel, nil
}

func (o *cliOptions) printLines(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(o.stdout, line)
	}
}

func (o *cliOptions) printJSON(v any, indent bool) error {
	enc := json.NewEncoder(o.stdout)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
