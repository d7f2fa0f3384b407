// Package history records the order in which coordinates received focus.
package history

import (
	"math"

	"github.com/rotkonetworks/bspwm/internal/state"
)

// Filter decides whether a candidate coordinate qualifies.
type Filter func(state.Coordinates) bool

// History is a focus stack, oldest entry first. Each node (or, for empty desktops,
// each desktop) appears at most once, at the position of its latest focus.
// Lookups never move any cursor.
type History struct {
	entries []state.Coordinates
}

// New seeds a history with entries ordered oldest first.
func New(entries []state.Coordinates) *History {
	h := &History{}
	for _, e := range entries {
		h.Add(e)
	}
	return h
}

// Add records loc as the most recent focus.
func (h *History) Add(loc state.Coordinates) {
	if loc.Monitor == nil {
		return
	}
	if n := len(h.entries); n > 0 && sameSubject(h.entries[n-1], loc) {
		h.entries[n-1] = loc
		return
	}
	kept := h.entries[:0]
	for _, e := range h.entries {
		if !sameSubject(e, loc) {
			kept = append(kept, e)
		}
	}
	h.entries = append(kept, loc)
}

// Prune drops every entry rejected by keep.
func (h *History) Prune(keep Filter) {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	h.entries = kept
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []state.Coordinates {
	return append([]state.Coordinates(nil), h.entries...)
}

func (h *History) Len() int {
	return len(h.entries)
}

func sameSubject(a, b state.Coordinates) bool {
	if b.Node != nil {
		return a.Node == b.Node
	}
	return a.Node == nil && a.Desktop == b.Desktop && a.Monitor == b.Monitor
}

type kind int

const (
	nodeKind kind = iota
	desktopKind
	monitorKind
)

func (k kind) present(c state.Coordinates) bool {
	switch k {
	case nodeKind:
		return c.Node != nil
	case desktopKind:
		return c.Desktop != nil
	}
	return c.Monitor != nil
}

func (k kind) same(a, b state.Coordinates) bool {
	switch k {
	case nodeKind:
		return a.Node == b.Node
	case desktopKind:
		return a.Desktop == b.Desktop
	}
	return a.Monitor == b.Monitor
}

// pivot is the position of ref's latest entry, or len(entries) when ref was never focused.
func (h *History) pivot(k kind, ref state.Coordinates) int {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if k.present(h.entries[i]) && k.same(h.entries[i], ref) {
			return i
		}
	}
	return len(h.entries)
}

func (h *History) find(k kind, dir state.HistoryDir, ref state.Coordinates, match Filter) (state.Coordinates, bool) {
	p := h.pivot(k, ref)
	step := -1
	if dir == state.HistoryNewer {
		step = 1
	}
	for i := p + step; i >= 0 && i < len(h.entries); i += step {
		e := h.entries[i]
		if !k.present(e) || k.same(e, ref) {
			continue
		}
		if match == nil || match(e) {
			return e, true
		}
	}
	return state.Coordinates{}, false
}

func (h *History) newest(k kind, match Filter) (state.Coordinates, bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		e := h.entries[i]
		if k.present(e) && (match == nil || match(e)) {
			return e, true
		}
	}
	return state.Coordinates{}, false
}

// FindNode returns the closest entry older or newer than ref's last focus whose node
// differs from ref's and passes match.
func (h *History) FindNode(dir state.HistoryDir, ref state.Coordinates, match Filter) (state.Coordinates, bool) {
	return h.find(nodeKind, dir, ref, match)
}

func (h *History) FindDesktop(dir state.HistoryDir, ref state.Coordinates, match Filter) (state.Coordinates, bool) {
	c, ok := h.find(desktopKind, dir, ref, match)
	c.Node = nil
	return c, ok
}

func (h *History) FindMonitor(dir state.HistoryDir, ref state.Coordinates, match Filter) (state.Coordinates, bool) {
	c, ok := h.find(monitorKind, dir, ref, match)
	return state.Coordinates{Monitor: c.Monitor}, ok
}

// NewestNode returns the most recently focused node that passes match.
func (h *History) NewestNode(match Filter) (state.Coordinates, bool) {
	return h.newest(nodeKind, match)
}

func (h *History) NewestDesktop(match Filter) (state.Coordinates, bool) {
	c, ok := h.newest(desktopKind, match)
	c.Node = nil
	return c, ok
}

func (h *History) NewestMonitor(match Filter) (state.Coordinates, bool) {
	c, ok := h.newest(monitorKind, match)
	return state.Coordinates{Monitor: c.Monitor}, ok
}

// Rank is 0 for the most recently focused node and grows with age. Nodes that were
// never focused rank last.
func (h *History) Rank(n *state.Node) uint32 {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Node == n && n != nil {
			return uint32(len(h.entries) - 1 - i)
		}
	}
	return math.MaxUint32
}
