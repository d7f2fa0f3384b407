// Package selector turns textual descriptors such as "east.!floating",
// "%HDMI-0#next.occupied" or "@^2:/first/second" into coordinates of the window
// hierarchy.
//
// Resolution reads the world, the focus history and the pointer but never changes
// them. The global focus is captured once per top-level call and used for every
// nested sub-resolution and predicate.
package selector

import (
	"strings"

	"github.com/rotkonetworks/bspwm/internal/history"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/search"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// Pointer reports where the pointer is and which window lies under it.
type Pointer interface {
	QueryPointer() (layout.Point, uint32, error)
}

// Resolver resolves descriptors against one world.
type Resolver struct {
	world     *state.World
	history   *history.History
	pointer   Pointer
	tightness layout.Tightness
	observe   func(Kind, Result)
}

// NewResolver creates a resolver. hist and pointer may be nil, in which case the
// strategies relying on them find nothing.
func NewResolver(world *state.World, hist *history.History, pointer Pointer, tightness layout.Tightness) *Resolver {
	return &Resolver{world: world, history: hist, pointer: pointer, tightness: tightness}
}

// Observe registers fn to be called with the outcome of every top-level resolution.
// Nested sub-resolutions are not reported.
func (r *Resolver) Observe(fn func(Kind, Result)) *Resolver {
	r.observe = fn
	return r
}

func (r *Resolver) report(kind Kind, loc state.Coordinates, res Result) (state.Coordinates, Result) {
	if r.observe != nil {
		r.observe(kind, res)
	}
	return loc, res
}

// Monitor resolves a monitor descriptor relative to ref.
func (r *Resolver) Monitor(desc string, ref state.Coordinates) (state.Coordinates, Result) {
	loc, res := r.monitor(desc, ref, r.world.Focus())
	return r.report(KindMonitor, loc, res)
}

// Desktop resolves a desktop descriptor relative to ref.
func (r *Resolver) Desktop(desc string, ref state.Coordinates) (state.Coordinates, Result) {
	loc, res := r.desktop(desc, ref, r.world.Focus())
	return r.report(KindDesktop, loc, res)
}

// Node resolves a node descriptor relative to ref. A path descriptor on an empty
// desktop may yield a coordinate with a nil Node.
func (r *Resolver) Node(desc string, ref state.Coordinates) (state.Coordinates, Result) {
	loc, res := r.node(desc, ref, r.world.Focus())
	return r.report(KindNode, loc, res)
}

func found(c state.Coordinates, ok bool) (state.Coordinates, Result) {
	if !ok {
		return state.Coordinates{}, Invalid
	}
	return c, OK
}

func (r *Resolver) ranks() search.Ranker {
	if r.history == nil {
		return nil
	}
	return r.history
}

func (r *Resolver) node(desc string, ref, focus state.Coordinates) (state.Coordinates, Result) {
	var none state.Coordinates
	if len(desc) > MaxDescriptorLength {
		return none, BadDescriptor
	}
	d := splitNode(desc)
	if d.hasContext {
		c, res := r.node(d.context, focus, focus)
		if res != OK {
			return none, res
		}
		ref = c
	}

	var sel NodeSelect
	if !applyModifiers(d.modifiers, nodeAttrNames[:], sel[:]) {
		return none, BadModifiers
	}
	match := func(c state.Coordinates) bool { return sel.Matches(c, ref, focus) }
	body := d.body

	if dir, ok := layout.ParseDirection(body); ok {
		return found(search.NearestNeighbor(r.world, r.ranks(), ref, dir, r.tightness, match))
	}
	if cyc, ok := state.ParseCycleDir(body); ok {
		return found(search.ClosestNode(r.world, ref, cyc, match))
	}
	if hdi, ok := state.ParseHistoryDir(body); ok {
		return r.historyNode(hdi, ref, match)
	}
	switch body {
	case "any":
		return found(search.AnyNode(r.world, match))
	case "first_ancestor":
		return found(search.FirstAncestor(ref, match))
	case "last":
		return r.historyNode(state.HistoryOlder, ref, match)
	case "newest":
		if r.history == nil {
			return none, Invalid
		}
		return found(r.history.NewestNode(match))
	case "biggest":
		return found(search.ByArea(r.world, search.Biggest, match))
	case "smallest":
		return found(search.ByArea(r.world, search.Smallest, match))
	case "pointed":
		if r.pointer == nil {
			return none, Invalid
		}
		_, win, err := r.pointer.QueryPointer()
		if err != nil {
			return none, Invalid
		}
		c, ok := r.world.LocateLeaf(win)
		return found(c, ok && match(c))
	case "focused":
		return found(focus, focus.Node != nil && match(focus))
	}
	if strings.HasPrefix(body, string(pathMarker)) {
		return r.nodePath(body[1:], ref, focus, match)
	}
	if id, ok := state.ParseID(body); ok {
		c, ok := r.world.NodeByID(id)
		return found(c, ok && match(c))
	}
	return none, BadDescriptor
}

func (r *Resolver) historyNode(dir state.HistoryDir, ref state.Coordinates, match history.Filter) (state.Coordinates, Result) {
	if r.history == nil {
		return state.Coordinates{}, Invalid
	}
	return found(r.history.FindNode(dir, ref, match))
}

// nodePath walks a path such as "^2:/first/brother". Without a desktop part the
// walk starts at ref; with one it starts at that desktop's focused node.
func (r *Resolver) nodePath(spec string, ref, focus state.Coordinates, match func(state.Coordinates) bool) (state.Coordinates, Result) {
	var none state.Coordinates
	cur := ref
	if c := strings.LastIndexByte(spec, colonMarker); c >= 0 {
		dc, res := r.desktop(spec[:c], ref, focus)
		if res != OK {
			return none, res
		}
		cur = state.Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: dc.Desktop.Focus}
		spec = spec[c+1:]
	}
	steps, fromRoot, ok := parsePath(spec)
	if !ok {
		return none, BadDescriptor
	}
	if fromRoot {
		if cur.Desktop == nil || cur.Desktop.Root == nil {
			return none, Invalid
		}
		cur.Node = cur.Desktop.Root
	}
	for _, st := range steps {
		if cur.Node == nil {
			return none, Invalid
		}
		cur.Node = st.take(cur.Node)
	}
	if cur.Node == nil {
		if len(steps) == 0 && cur.Desktop != nil && cur.Desktop.Root == nil {
			return cur, OK
		}
		return none, Invalid
	}
	return found(cur, match(cur))
}

func (s step) take(n *state.Node) *state.Node {
	switch s.kind {
	case stepFirst:
		return n.FirstChild
	case stepSecond:
		return n.SecondChild
	case stepParent:
		return n.Parent
	case stepBrother:
		return n.Brother()
	}
	return n.Fence(s.dir)
}

func (r *Resolver) desktop(desc string, ref, focus state.Coordinates) (state.Coordinates, Result) {
	var none state.Coordinates
	if len(desc) > MaxDescriptorLength {
		return none, BadDescriptor
	}
	if name, ok := strings.CutPrefix(desc, literalMarker); ok {
		hits := r.world.DesktopsByName(name)
		if len(hits) == 0 {
			return none, Invalid
		}
		return hits[0], OK
	}
	d := splitDesktop(desc)
	if d.hasContext {
		c, res := r.desktop(d.context, state.Coordinates{Monitor: focus.Monitor, Desktop: focus.Desktop}, focus)
		if res != OK {
			return none, res
		}
		ref = c
	}

	var sel DesktopSelect
	if !applyModifiers(d.modifiers, desktopAttrNames[:], sel[:]) {
		return none, BadModifiers
	}
	match := func(c state.Coordinates) bool { return sel.Matches(c, ref, focus) }
	body := d.body

	if cyc, ok := state.ParseCycleDir(body); ok {
		return found(search.ClosestDesktop(r.world, ref, cyc, match))
	}
	if hdi, ok := state.ParseHistoryDir(body); ok {
		return r.historyDesktop(hdi, ref, match)
	}
	switch body {
	case "any":
		return found(search.AnyDesktop(r.world, match))
	case "last":
		return r.historyDesktop(state.HistoryOlder, ref, match)
	case "newest":
		if r.history == nil {
			return none, Invalid
		}
		return found(r.history.NewestDesktop(match))
	case "focused":
		loc := state.Coordinates{Monitor: focus.Monitor, Desktop: focus.Desktop}
		return found(loc, match(loc))
	}
	if d.colon >= 0 {
		mc, res := r.monitor(body[:d.colon], ref, focus)
		if res != OK {
			return none, res
		}
		local := body[d.colon+1:]
		if local == "focused" {
			loc := state.Coordinates{Monitor: mc.Monitor, Desktop: mc.Monitor.Active}
			return found(loc, match(loc))
		}
		if idx, ok := state.ParseIndex(local); ok {
			c, ok := r.world.DesktopByIndex(idx, mc.Monitor)
			return found(c, ok && match(c))
		}
		return none, BadDescriptor
	}

	numeric := false
	if idx, ok := state.ParseIndex(body); ok {
		numeric = true
		if c, ok := r.world.DesktopByIndex(idx, nil); ok {
			return found(c, match(c))
		}
	}
	if id, ok := state.ParseID(body); ok {
		numeric = true
		if c, ok := r.world.DesktopByID(id, nil); ok {
			return found(c, match(c))
		}
	}
	hits := r.world.DesktopsByName(body)
	for _, c := range hits {
		if match(c) {
			return c, OK
		}
	}
	if len(hits) > 0 || numeric {
		return none, Invalid
	}
	return none, BadDescriptor
}

func (r *Resolver) historyDesktop(dir state.HistoryDir, ref state.Coordinates, match history.Filter) (state.Coordinates, Result) {
	if r.history == nil {
		return state.Coordinates{}, Invalid
	}
	return found(r.history.FindDesktop(dir, ref, match))
}

func (r *Resolver) monitor(desc string, ref, focus state.Coordinates) (state.Coordinates, Result) {
	var none state.Coordinates
	if len(desc) > MaxDescriptorLength {
		return none, BadDescriptor
	}
	if name, ok := strings.CutPrefix(desc, literalMarker); ok {
		m := r.world.MonitorByName(name)
		return found(state.Coordinates{Monitor: m}, m != nil)
	}
	d := splitMonitor(desc)
	if d.hasContext {
		c, res := r.monitor(d.context, state.Coordinates{Monitor: focus.Monitor}, focus)
		if res != OK {
			return none, res
		}
		ref = c
	}

	var sel MonitorSelect
	if !applyModifiers(d.modifiers, monitorAttrNames[:], sel[:]) {
		return none, BadModifiers
	}
	match := func(c state.Coordinates) bool { return sel.Matches(c, ref, focus) }
	body := d.body

	if dir, ok := layout.ParseDirection(body); ok {
		return found(search.NearestMonitor(r.world, ref, dir, r.tightness, match))
	}
	if cyc, ok := state.ParseCycleDir(body); ok {
		return found(search.ClosestMonitor(r.world, ref, cyc, match))
	}
	if hdi, ok := state.ParseHistoryDir(body); ok {
		return r.historyMonitor(hdi, ref, match)
	}
	switch body {
	case "any":
		return found(search.AnyMonitor(r.world, match))
	case "last":
		return r.historyMonitor(state.HistoryOlder, ref, match)
	case "newest":
		if r.history == nil {
			return none, Invalid
		}
		return found(r.history.NewestMonitor(match))
	case "primary":
		loc := state.Coordinates{Monitor: r.world.Primary}
		return found(loc, match(loc))
	case "focused":
		loc := state.Coordinates{Monitor: focus.Monitor}
		return found(loc, match(loc))
	case "pointed":
		if r.pointer == nil {
			return none, Invalid
		}
		p, _, err := r.pointer.QueryPointer()
		if err != nil {
			return none, Invalid
		}
		for _, m := range r.world.Monitors {
			if layout.IsInside(p, m.Rectangle) {
				loc := state.Coordinates{Monitor: m}
				return found(loc, match(loc))
			}
		}
		return none, Invalid
	}

	numeric := false
	if idx, ok := state.ParseIndex(body); ok {
		numeric = true
		if m := r.world.MonitorByIndex(idx); m != nil {
			loc := state.Coordinates{Monitor: m}
			return found(loc, match(loc))
		}
	}
	if id, ok := state.ParseID(body); ok {
		numeric = true
		if m := r.world.MonitorByID(id); m != nil {
			loc := state.Coordinates{Monitor: m}
			return found(loc, match(loc))
		}
	}
	if m := r.world.MonitorByName(body); m != nil {
		loc := state.Coordinates{Monitor: m}
		return found(loc, match(loc))
	}
	if numeric {
		return none, Invalid
	}
	return none, BadDescriptor
}

func (r *Resolver) historyMonitor(dir state.HistoryDir, ref state.Coordinates, match history.Filter) (state.Coordinates, Result) {
	if r.history == nil {
		return state.Coordinates{}, Invalid
	}
	return found(r.history.FindMonitor(dir, ref, match))
}
