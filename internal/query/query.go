// Package query answers listing requests: which nodes, desktops or monitors exist
// within a target and pass a modifier filter, and the JSON tree of one object.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// ErrNoTarget is returned by Tree when nothing was designated.
var ErrNoTarget = errors.New("no target")

// Scope narrows a listing. Each field is empty, a descriptor naming the target, or
// a modifier-only filter starting with '.'.
type Scope struct {
	Monitor string `json:"monitor,omitempty"`
	Desktop string `json:"desktop,omitempty"`
	Node    string `json:"node,omitempty"`
}

// Querier runs listings against one world.
type Querier struct {
	world    *state.World
	resolver *selector.Resolver
}

func New(world *state.World, resolver *selector.Resolver) *Querier {
	return &Querier{world: world, resolver: resolver}
}

type filter struct {
	ref     state.Coordinates
	trg     state.Coordinates
	monSel  selector.MonitorSelect
	deskSel selector.DesktopSelect
	nodeSel selector.NodeSelect
	// nodeTarget is set when a node descriptor was resolved, even to a
	// desktop-only coordinate.
	nodeTarget bool
}

func isFilter(s string) bool {
	return strings.HasPrefix(s, ".")
}

func (q *Querier) compile(sc Scope) (filter, error) {
	f := filter{ref: q.world.Focus()}
	if sc.Monitor != "" {
		if isFilter(sc.Monitor) {
			sel, err := selector.ParseMonitorSelect(sc.Monitor)
			if err != nil {
				return f, fmt.Errorf("monitor filter: %w", err)
			}
			f.monSel = sel
		} else {
			loc, res := q.resolver.Monitor(sc.Monitor, f.ref)
			if res != selector.OK {
				return f, res.Describe(selector.KindMonitor, sc.Monitor)
			}
			f.trg = loc
		}
	}
	if sc.Desktop != "" {
		if isFilter(sc.Desktop) {
			sel, err := selector.ParseDesktopSelect(sc.Desktop)
			if err != nil {
				return f, fmt.Errorf("desktop filter: %w", err)
			}
			f.deskSel = sel
		} else {
			loc, res := q.resolver.Desktop(sc.Desktop, f.ref)
			if res != selector.OK {
				return f, res.Describe(selector.KindDesktop, sc.Desktop)
			}
			f.trg = loc
		}
	}
	if sc.Node != "" {
		if isFilter(sc.Node) {
			sel, err := selector.ParseNodeSelect(sc.Node)
			if err != nil {
				return f, fmt.Errorf("node filter: %w", err)
			}
			f.nodeSel = sel
		} else {
			loc, res := q.resolver.Node(sc.Node, f.ref)
			if res != selector.OK {
				return f, res.Describe(selector.KindNode, sc.Node)
			}
			f.trg, f.nodeTarget = loc, true
		}
	}
	return f, nil
}

func (f filter) monitorOK(m *state.Monitor) bool {
	if f.trg.Monitor != nil && m != f.trg.Monitor {
		return false
	}
	return f.monSel.Matches(state.Coordinates{Monitor: m}, f.ref, f.ref)
}

func (f filter) desktopOK(m *state.Monitor, d *state.Desktop) bool {
	if f.trg.Desktop != nil && d != f.trg.Desktop {
		return false
	}
	return f.deskSel.Matches(state.Coordinates{Monitor: m, Desktop: d}, f.ref, f.ref)
}

// Nodes lists the nodes within the scope, each tree visited parent first.
func (q *Querier) Nodes(sc Scope) ([]state.Coordinates, error) {
	f, err := q.compile(sc)
	if err != nil {
		return nil, err
	}
	var out []state.Coordinates
	for _, m := range q.world.Monitors {
		if !f.monitorOK(m) {
			continue
		}
		for _, d := range m.Desktops {
			if !f.desktopOK(m, d) {
				continue
			}
			out = appendPreorder(out, f, m, d, d.Root)
		}
	}
	return out, nil
}

func appendPreorder(out []state.Coordinates, f filter, m *state.Monitor, d *state.Desktop, n *state.Node) []state.Coordinates {
	if n == nil {
		return out
	}
	loc := state.Coordinates{Monitor: m, Desktop: d, Node: n}
	if (f.trg.Node == nil || n == f.trg.Node) && f.nodeSel.Matches(loc, f.ref, f.ref) {
		out = append(out, loc)
	}
	out = appendPreorder(out, f, m, d, n.FirstChild)
	return appendPreorder(out, f, m, d, n.SecondChild)
}

// Desktops lists the desktops within the scope. A node target narrows the listing
// to its desktop; a node filter is ignored.
func (q *Querier) Desktops(sc Scope) ([]state.Coordinates, error) {
	f, err := q.compile(sc)
	if err != nil {
		return nil, err
	}
	var out []state.Coordinates
	for _, m := range q.world.Monitors {
		if !f.monitorOK(m) {
			continue
		}
		for _, d := range m.Desktops {
			if f.desktopOK(m, d) {
				out = append(out, state.Coordinates{Monitor: m, Desktop: d})
			}
		}
	}
	return out, nil
}

// Monitors lists the monitors within the scope.
func (q *Querier) Monitors(sc Scope) ([]state.Coordinates, error) {
	f, err := q.compile(sc)
	if err != nil {
		return nil, err
	}
	var out []state.Coordinates
	for _, m := range q.world.Monitors {
		if f.monitorOK(m) {
			out = append(out, state.Coordinates{Monitor: m})
		}
	}
	return out, nil
}

// Tree returns the JSON-ready tree of the object kind designates within the scope,
// defaulting to the focus. A coarser target stands for its active desktop or
// focused node.
func (q *Querier) Tree(kind selector.Kind, sc Scope) (any, error) {
	f, err := q.compile(sc)
	if err != nil {
		return nil, err
	}
	loc := f.trg
	if loc.IsZero() {
		loc = f.ref
	}
	if loc.Desktop == nil && loc.Monitor != nil {
		loc.Desktop = loc.Monitor.Active
	}
	if loc.Node == nil && loc.Desktop != nil && !f.nodeTarget {
		loc.Node = loc.Desktop.Focus
	}
	switch kind {
	case selector.KindMonitor:
		if loc.Monitor == nil {
			return nil, ErrNoTarget
		}
		return state.MonitorTreeOf(loc.Monitor), nil
	case selector.KindDesktop:
		if loc.Desktop == nil {
			return nil, ErrNoTarget
		}
		return state.DesktopTreeOf(loc.Desktop), nil
	}
	if loc.Node == nil {
		return nil, ErrNoTarget
	}
	return state.NodeTreeOf(loc.Node), nil
}

// IDs renders each coordinate's id for kind as 0xNNNNNNNN.
func IDs(kind selector.Kind, locs []state.Coordinates) []string {
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		switch kind {
		case selector.KindMonitor:
			out = append(out, selector.FormatID(loc.Monitor.ID))
		case selector.KindDesktop:
			out = append(out, selector.FormatID(loc.Desktop.ID))
		default:
			out = append(out, selector.FormatID(loc.Node.ID))
		}
	}
	return out
}

// Names renders each coordinate's monitor or desktop name. Nodes have no name and
// fall back to ids.
func Names(kind selector.Kind, locs []state.Coordinates) []string {
	if kind == selector.KindNode {
		return IDs(kind, locs)
	}
	out := make([]string, 0, len(locs))
	for _, loc := range locs {
		if kind == selector.KindMonitor {
			out = append(out, loc.Monitor.Name)
		} else {
			out = append(out, loc.Desktop.Name)
		}
	}
	return out
}
