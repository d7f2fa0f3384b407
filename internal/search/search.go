// Package search implements the geometric and order-based lookups used to pick a
// node, desktop or monitor relative to a reference coordinate.
package search

import (
	"math"

	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// Filter decides whether a candidate coordinate qualifies.
type Filter func(state.Coordinates) bool

// Ranker orders nodes by focus recency, lower meaning more recent.
type Ranker interface {
	Rank(n *state.Node) uint32
}

func accept(match Filter, c state.Coordinates) bool {
	return match == nil || match(c)
}

// NearestNeighbor looks at the visible windows of every monitor and returns the one
// closest to ref on the dir side. Ties go to the most recently focused window.
func NearestNeighbor(w *state.World, ranks Ranker, ref state.Coordinates, dir layout.Direction, tightness layout.Tightness, match Filter) (state.Coordinates, bool) {
	rect := ref.Rectangle()
	var (
		best     state.Coordinates
		found    bool
		bestDist uint32 = math.MaxUint32
		bestRank uint32 = math.MaxUint32
	)
	for _, m := range w.Monitors {
		d := m.Active
		if d == nil {
			continue
		}
		for _, leaf := range d.Root.Leaves() {
			loc := state.Coordinates{Monitor: m, Desktop: d, Node: leaf}
			if leaf == ref.Node || leaf.Client == nil || leaf.Hidden || leaf.IsDescendantOf(ref.Node) {
				continue
			}
			r := loc.Rectangle()
			if !accept(match, loc) || !layout.OnDirSide(rect, r, dir, tightness) {
				continue
			}
			dist := layout.BoundaryDistance(rect, r, dir)
			rank := uint32(math.MaxUint32)
			if ranks != nil {
				rank = ranks.Rank(leaf)
			}
			if !found || dist < bestDist || (dist == bestDist && rank < bestRank) {
				best, found, bestDist, bestRank = loc, true, dist, rank
			}
		}
	}
	return best, found
}

// ClosestNode walks every node in global order (monitor, desktop, in-order tree)
// starting after ref and wrapping around, and returns the first that qualifies.
// When ref has no node the walk starts at the desktop after ref's and skips ref's
// desktop entirely.
func ClosestNode(w *state.World, ref state.Coordinates, dir state.CycleDir, match Filter) (state.Coordinates, bool) {
	if ref.Desktop == nil {
		return state.Coordinates{}, false
	}
	nodes := w.Nodes()
	if len(nodes) == 0 {
		return state.Coordinates{}, false
	}
	step := 1
	if dir == state.CyclePrev {
		step = -1
	}
	start := -1
	if ref.Node != nil {
		for i, c := range nodes {
			if c.Node == ref.Node {
				start = i
				break
			}
		}
		if start < 0 {
			return state.Coordinates{}, false
		}
	} else {
		start = pivotForDesktop(w, nodes, ref.Desktop, step)
	}
	n := len(nodes)
	for i := 1; i <= n; i++ {
		c := nodes[((start+i*step)%n+n)%n]
		if c.Node == ref.Node || (ref.Node == nil && c.Desktop == ref.Desktop) {
			continue
		}
		if accept(match, c) {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

// pivotForDesktop finds a virtual position for an empty desktop inside the global
// node order so that stepping from it reaches the neighbouring desktops first.
func pivotForDesktop(w *state.World, nodes []state.Coordinates, d *state.Desktop, step int) int {
	order := map[*state.Desktop]int{}
	for i, dc := range w.Desktops() {
		order[dc.Desktop] = i
	}
	target := order[d]
	if step > 0 {
		for i, c := range nodes {
			if order[c.Desktop] > target {
				return i - 1
			}
		}
		return len(nodes) - 1
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if order[nodes[i].Desktop] < target {
			return i + 1
		}
	}
	return 0
}

// ClosestDesktop cycles through desktops in global order starting after ref's.
func ClosestDesktop(w *state.World, ref state.Coordinates, dir state.CycleDir, match Filter) (state.Coordinates, bool) {
	desks := w.Desktops()
	start := -1
	for i, c := range desks {
		if c.Desktop == ref.Desktop {
			start = i
			break
		}
	}
	if start < 0 {
		return state.Coordinates{}, false
	}
	step := 1
	if dir == state.CyclePrev {
		step = -1
	}
	n := len(desks)
	for i := 1; i < n; i++ {
		c := desks[((start+i*step)%n+n)%n]
		if accept(match, c) {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

// ClosestMonitor cycles through monitors starting after ref's.
func ClosestMonitor(w *state.World, ref state.Coordinates, dir state.CycleDir, match Filter) (state.Coordinates, bool) {
	start := -1
	for i, m := range w.Monitors {
		if m == ref.Monitor {
			start = i
			break
		}
	}
	if start < 0 {
		return state.Coordinates{}, false
	}
	step := 1
	if dir == state.CyclePrev {
		step = -1
	}
	n := len(w.Monitors)
	for i := 1; i < n; i++ {
		c := state.Coordinates{Monitor: w.Monitors[((start+i*step)%n+n)%n]}
		if accept(match, c) {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

// NearestMonitor returns the qualifying monitor closest to ref's on the dir side.
func NearestMonitor(w *state.World, ref state.Coordinates, dir layout.Direction, tightness layout.Tightness, match Filter) (state.Coordinates, bool) {
	if ref.Monitor == nil {
		return state.Coordinates{}, false
	}
	rect := ref.Monitor.Rectangle
	var (
		best  state.Coordinates
		found bool
		dmin  uint32 = math.MaxUint32
	)
	for _, m := range w.Monitors {
		c := state.Coordinates{Monitor: m}
		if m == ref.Monitor || !accept(match, c) || !layout.OnDirSide(rect, m.Rectangle, dir, tightness) {
			continue
		}
		if d := layout.BoundaryDistance(rect, m.Rectangle, dir); !found || d < dmin {
			best, found, dmin = c, true, d
		}
	}
	return best, found
}

// AnyNode returns the first qualifying node, visiting each tree parent before children.
func AnyNode(w *state.World, match Filter) (state.Coordinates, bool) {
	for _, dc := range w.Desktops() {
		if c, ok := anyNodeIn(dc, dc.Desktop.Root, match); ok {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

func anyNodeIn(dc state.Coordinates, n *state.Node, match Filter) (state.Coordinates, bool) {
	if n == nil {
		return state.Coordinates{}, false
	}
	c := state.Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: n}
	if accept(match, c) {
		return c, true
	}
	if c, ok := anyNodeIn(dc, n.FirstChild, match); ok {
		return c, true
	}
	return anyNodeIn(dc, n.SecondChild, match)
}

func AnyDesktop(w *state.World, match Filter) (state.Coordinates, bool) {
	for _, dc := range w.Desktops() {
		if accept(match, dc) {
			return dc, true
		}
	}
	return state.Coordinates{}, false
}

func AnyMonitor(w *state.World, match Filter) (state.Coordinates, bool) {
	for _, m := range w.Monitors {
		c := state.Coordinates{Monitor: m}
		if accept(match, c) {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

// FirstAncestor walks up from ref's node and returns the first qualifying ancestor.
func FirstAncestor(ref state.Coordinates, match Filter) (state.Coordinates, bool) {
	if ref.Node == nil {
		return state.Coordinates{}, false
	}
	for p := ref.Node.Parent; p != nil; p = p.Parent {
		c := state.Coordinates{Monitor: ref.Monitor, Desktop: ref.Desktop, Node: p}
		if accept(match, c) {
			return c, true
		}
	}
	return state.Coordinates{}, false
}

// Peak selects the extremum ByArea looks for.
type Peak int

const (
	Biggest Peak = iota
	Smallest
)

// ByArea returns the qualifying non-vacant leaf with the largest or smallest area.
// The first leaf in global order wins ties.
func ByArea(w *state.World, peak Peak, match Filter) (state.Coordinates, bool) {
	var (
		best  state.Coordinates
		found bool
		area  uint64
	)
	if peak == Smallest {
		area = math.MaxUint64
	}
	for _, dc := range w.Desktops() {
		for _, leaf := range dc.Desktop.Root.Leaves() {
			c := state.Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: leaf}
			if leaf.Vacant || !accept(match, c) {
				continue
			}
			a := layout.Area(c.Rectangle())
			if (peak == Biggest && a > area) || (peak == Smallest && a < area) {
				best, found, area = c, true, a
			}
		}
	}
	return best, found
}
