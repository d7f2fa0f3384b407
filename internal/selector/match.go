package selector

import "github.com/rotkonetworks/bspwm/internal/state"

// env is what an attribute accessor may look at: the candidate, the reference the
// descriptor was resolved against, and the global focus.
type env struct {
	loc, ref, focus state.Coordinates
}

// check ties an attribute to its accessor. Checks marked window only apply to nodes
// holding a client; on other nodes they fail when the attribute is required and are
// skipped otherwise.
type check struct {
	attr   int
	window bool
	holds  func(env) bool
}

func evaluate(reqs []Requirement, checks []check, e env, hasWindow bool) bool {
	for _, c := range checks {
		r := reqs[c.attr]
		if r == Unset {
			continue
		}
		if c.window && !hasWindow {
			if r == RequireTrue {
				return false
			}
			continue
		}
		if !r.allows(c.holds(e)) {
			return false
		}
	}
	return true
}

func clientState(s state.ClientState) func(env) bool {
	return func(e env) bool { return e.loc.Node.Client.State == s }
}

func stackLayer(l state.StackLayer) func(env) bool {
	return func(e env) bool { return e.loc.Node.Client.Layer == l }
}

func splitType(t state.SplitType) func(env) bool {
	return func(e env) bool { return e.loc.Node.SplitType == t }
}

func desktopLayout(l state.Layout, user bool) func(env) bool {
	return func(e env) bool {
		if user {
			return e.loc.Desktop.UserLayout == l
		}
		return e.loc.Desktop.Layout == l
	}
}

var nodeChecks = []check{
	{attr: int(NodeFocused), holds: func(e env) bool { return e.loc.Node == e.focus.Node }},
	{attr: int(NodeActive), holds: func(e env) bool {
		return e.loc.Desktop != nil && e.loc.Node == e.loc.Desktop.Focus
	}},
	{attr: int(NodeAutomatic), holds: func(e env) bool { return e.loc.Node.Presel == nil }},
	{attr: int(NodeLocal), holds: func(e env) bool { return e.loc.Desktop == e.ref.Desktop }},
	{attr: int(NodeActive), holds: func(e env) bool {
		return e.loc.Monitor != nil && e.loc.Desktop == e.loc.Monitor.Active
	}},
	{attr: int(NodeLeaf), holds: func(e env) bool { return e.loc.Node.IsLeaf() }},
	{attr: int(NodeWindow), holds: func(e env) bool { return e.loc.Node.Client != nil }},
	{attr: int(NodeHidden), holds: func(e env) bool { return e.loc.Node.Hidden }},
	{attr: int(NodeSticky), holds: func(e env) bool { return e.loc.Node.Sticky }},
	{attr: int(NodePrivate), holds: func(e env) bool { return e.loc.Node.Private }},
	{attr: int(NodeLocked), holds: func(e env) bool { return e.loc.Node.Locked }},
	{attr: int(NodeMarked), holds: func(e env) bool { return e.loc.Node.Marked }},
	{attr: int(NodeHorizontal), holds: splitType(state.SplitHorizontal)},
	{attr: int(NodeVertical), holds: splitType(state.SplitVertical)},
	{attr: int(NodeDescendantOf), holds: func(e env) bool { return e.loc.Node.IsDescendantOf(e.ref.Node) }},
	{attr: int(NodeAncestorOf), holds: func(e env) bool {
		return e.ref.Node != nil && e.ref.Node.IsDescendantOf(e.loc.Node)
	}},
	{attr: int(NodeSameClass), window: true, holds: func(e env) bool {
		if e.ref.Node == nil || e.ref.Node.Client == nil {
			return false
		}
		return e.loc.Node.Client.ClassName == e.ref.Node.Client.ClassName
	}},
	{attr: int(NodeTiled), window: true, holds: clientState(state.StateTiled)},
	{attr: int(NodePseudoTiled), window: true, holds: clientState(state.StatePseudoTiled)},
	{attr: int(NodeFloating), window: true, holds: clientState(state.StateFloating)},
	{attr: int(NodeFullscreen), window: true, holds: clientState(state.StateFullscreen)},
	{attr: int(NodeBelow), window: true, holds: stackLayer(state.LayerBelow)},
	{attr: int(NodeNormal), window: true, holds: stackLayer(state.LayerNormal)},
	{attr: int(NodeAbove), window: true, holds: stackLayer(state.LayerAbove)},
	{attr: int(NodeUrgent), window: true, holds: func(e env) bool { return e.loc.Node.Client.Urgent }},
}

var desktopChecks = []check{
	{attr: int(DesktopOccupied), holds: func(e env) bool { return e.loc.Desktop.Root != nil }},
	{attr: int(DesktopFocused), holds: func(e env) bool { return e.loc.Desktop == e.focus.Desktop }},
	{attr: int(DesktopActive), holds: func(e env) bool {
		return e.loc.Monitor != nil && e.loc.Desktop == e.loc.Monitor.Active
	}},
	{attr: int(DesktopUrgent), holds: func(e env) bool { return e.loc.Desktop.IsUrgent() }},
	{attr: int(DesktopLocal), holds: func(e env) bool { return e.loc.Monitor == e.ref.Monitor }},
	{attr: int(DesktopTiled), holds: desktopLayout(state.LayoutTiled, false)},
	{attr: int(DesktopMonocle), holds: desktopLayout(state.LayoutMonocle, false)},
	{attr: int(DesktopUserTiled), holds: desktopLayout(state.LayoutTiled, true)},
	{attr: int(DesktopUserMonocle), holds: desktopLayout(state.LayoutMonocle, true)},
}

var monitorChecks = []check{
	{attr: int(MonitorOccupied), holds: func(e env) bool {
		return e.loc.Monitor.Active != nil && e.loc.Monitor.Active.Root != nil
	}},
	{attr: int(MonitorFocused), holds: func(e env) bool { return e.loc.Monitor == e.focus.Monitor }},
}

// Matches reports whether the node at loc satisfies every requirement. ref is the
// coordinate the surrounding descriptor was resolved against; focus is the global focus.
func (s NodeSelect) Matches(loc, ref, focus state.Coordinates) bool {
	if loc.Node == nil {
		return false
	}
	return evaluate(s[:], nodeChecks, env{loc: loc, ref: ref, focus: focus}, loc.Node.Client != nil)
}

// Matches reports whether the desktop at loc satisfies every requirement.
func (s DesktopSelect) Matches(loc, ref, focus state.Coordinates) bool {
	if loc.Desktop == nil {
		return false
	}
	return evaluate(s[:], desktopChecks, env{loc: loc, ref: ref, focus: focus}, true)
}

// Matches reports whether the monitor at loc satisfies every requirement.
func (s MonitorSelect) Matches(loc, ref, focus state.Coordinates) bool {
	if loc.Monitor == nil {
		return false
	}
	return evaluate(s[:], monitorChecks, env{loc: loc, ref: ref, focus: focus}, true)
}
