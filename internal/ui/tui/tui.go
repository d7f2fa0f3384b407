package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotkonetworks/bspwm/internal/control/client"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
)

const (
	defaultRefresh = 500 * time.Millisecond
	commandRows    = 10
)

// Source is the part of the control client the dashboard polls.
type Source interface {
	State(ctx context.Context) (client.Snapshot, error)
	Inspect(ctx context.Context) (client.InspectorState, error)
}

// Renderer periodically polls the daemon and renders a textual dashboard.
type Renderer struct {
	Source  Source
	Writer  io.Writer
	Refresh time.Duration
}

// New returns a renderer configured with sensible defaults.
func New(src Source, w io.Writer) *Renderer {
	return &Renderer{Source: src, Writer: w, Refresh: defaultRefresh}
}

// Run starts the render loop until the context is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Writer == nil {
		r.Writer = os.Stdout
	}
	if r.Source == nil {
		return fmt.Errorf("tui renderer requires a control client")
	}

	refresh := r.Refresh
	if refresh <= 0 {
		refresh = defaultRefresh
	}

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	fmt.Fprint(r.Writer, "\033[?25l")
	defer fmt.Fprint(r.Writer, "\033[?25h")

	r.render(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.render(ctx)
		}
	}
}

func (r *Renderer) render(ctx context.Context) {
	var buf bytes.Buffer
	buf.WriteString("\033[H\033[2J")
	buf.WriteString("bspwmd inspector (Ctrl+C to exit)\n")
	buf.WriteString(time.Now().Format(time.RFC1123))
	buf.WriteString("\n\n")

	snap, err := r.Source.State(ctx)
	if err != nil {
		fmt.Fprintf(&buf, "error: %v\n", err)
		fmt.Fprint(r.Writer, buf.String())
		return
	}
	insp, err := r.Source.Inspect(ctx)
	if err != nil {
		fmt.Fprintf(&buf, "error: %v\n", err)
		fmt.Fprint(r.Writer, buf.String())
		return
	}
	buf.WriteString(Render(snap, insp))
	fmt.Fprint(r.Writer, buf.String())
}

// Render draws one dashboard frame without terminal control sequences.
func Render(snap client.Snapshot, insp client.InspectorState) string {
	var b strings.Builder
	b.WriteString(formatFocus(insp.Focus))
	b.WriteString(formatRules(insp.Rules))
	b.WriteByte('\n')
	b.WriteString(renderMonitors(snap))
	b.WriteString(renderDesktops(snap))
	b.WriteString(renderNodes(snap, insp.Focus))
	b.WriteString(renderCommands(insp))
	return b.String()
}

func formatFocus(ids state.CoordinateIDs) string {
	return fmt.Sprintf("Focus: monitor %s, desktop %s, node %s\n",
		selector.FormatID(ids.MonitorID), selector.FormatID(ids.DesktopID), selector.FormatID(ids.NodeID))
}

func formatRules(names []string) string {
	if len(names) == 0 {
		return "Rules: (none)\n"
	}
	return "Rules: " + strings.Join(names, ", ") + "\n"
}

func renderMonitors(snap client.Snapshot) string {
	var b strings.Builder
	b.WriteString("Monitors:\n")
	if len(snap.Monitors) == 0 {
		b.WriteString("  (none)\n\n")
		return b.String()
	}
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tGeometry\tActive desktop\tFlags")
	for _, m := range snap.Monitors {
		var flags []string
		if m.ID == snap.FocusedMonitorID {
			flags = append(flags, "focused")
		}
		if m.ID == snap.PrimaryMonitorID {
			flags = append(flags, "primary")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", selector.FormatID(m.ID), m.Name, formatRect(m.Rectangle),
			desktopName(m, m.FocusedDesktopID), orDash(strings.Join(flags, ", ")))
	}
	tw.Flush()
	b.WriteByte('\n')
	return b.String()
}

func renderDesktops(snap client.Snapshot) string {
	var b strings.Builder
	b.WriteString("Desktops:\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tMonitor\tLayout\tWindows\tFocused node")
	rows := 0
	for _, m := range snap.Monitors {
		for _, d := range m.Desktops {
			id := selector.FormatID(d.ID)
			if d.ID == m.FocusedDesktopID {
				id += "*"
			}
			focused := "-"
			if d.FocusedNodeID != 0 {
				focused = selector.FormatID(d.FocusedNodeID)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", id, orDash(d.Name), m.Name, d.Layout, countWindows(d.Root), focused)
			rows++
		}
	}
	if rows == 0 {
		return "Desktops:\n  (none)\n\n"
	}
	tw.Flush()
	b.WriteByte('\n')
	return b.String()
}

func renderNodes(snap client.Snapshot, focus state.CoordinateIDs) string {
	var b strings.Builder
	b.WriteString("Windows:\n")
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tClass\tInstance\tDesktop\tState")
	rows := 0
	for _, m := range snap.Monitors {
		for _, d := range m.Desktops {
			walkWindows(d.Root, func(n *state.NodeTree) {
				id := selector.FormatID(n.ID)
				if n.ID == focus.NodeID {
					id = "*" + id
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, orDash(n.Client.ClassName), orDash(n.Client.InstanceName),
					m.Name+":"+d.Name, nodeState(n))
				rows++
			})
		}
	}
	if rows == 0 {
		return "Windows:\n  (none)\n\n"
	}
	tw.Flush()
	b.WriteByte('\n')
	return b.String()
}

func renderCommands(insp client.InspectorState) string {
	var b strings.Builder
	b.WriteString("Recent commands:\n")
	if len(insp.Commands) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	start := 0
	if len(insp.Commands) > commandRows {
		start = len(insp.Commands) - commandRows
	}
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, rec := range insp.Commands[start:] {
		line := fmt.Sprintf("%s\t%s %s\t%s", rec.Timestamp.Format(time.TimeOnly), rec.Command, strings.Join(rec.Args, " "), rec.Status)
		if rec.Error != "" {
			line += "\t" + rec.Error
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
	return b.String()
}

func walkWindows(n *state.NodeTree, fn func(*state.NodeTree)) {
	if n == nil {
		return
	}
	if n.Client != nil {
		fn(n)
	}
	walkWindows(n.FirstChild, fn)
	walkWindows(n.SecondChild, fn)
}

func countWindows(n *state.NodeTree) int {
	count := 0
	walkWindows(n, func(*state.NodeTree) { count++ })
	return count
}

func desktopName(m state.MonitorTree, id uint32) string {
	for _, d := range m.Desktops {
		if d.ID == id {
			return orDash(d.Name)
		}
	}
	return "-"
}

func nodeState(n *state.NodeTree) string {
	parts := []string{n.Client.State.String()}
	if n.Client.Urgent {
		parts = append(parts, "urgent")
	}
	if n.Hidden {
		parts = append(parts, "hidden")
	}
	if n.Sticky {
		parts = append(parts, "sticky")
	}
	if n.Marked {
		parts = append(parts, "marked")
	}
	return strings.Join(parts, ", ")
}

func formatRect(rect layout.Rect) string {
	return fmt.Sprintf("%dx%d @ %d,%d", rect.Width, rect.Height, rect.X, rect.Y)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
