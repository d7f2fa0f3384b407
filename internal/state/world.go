package state

// Coordinates locates an object in the hierarchy. When Node is set, Desktop and
// Monitor are its owners; when Desktop is set, Monitor owns it. Coordinates do not
// own anything and are only meaningful until the World is next mutated.
type Coordinates struct {
	Monitor *Monitor
	Desktop *Desktop
	Node    *Node
}

// IsZero reports whether the coordinate points at nothing.
func (c Coordinates) IsZero() bool {
	return c.Monitor == nil && c.Desktop == nil && c.Node == nil
}

// World is the ordered set of monitors along with the global focus and primary monitor.
type World struct {
	Monitors []*Monitor
	Focused  *Monitor
	Primary  *Monitor
}

// Focus returns the coordinate of the global focus: the focused monitor, its active
// desktop and that desktop's focused node.
func (w *World) Focus() Coordinates {
	if w == nil || w.Focused == nil {
		return Coordinates{}
	}
	c := Coordinates{Monitor: w.Focused, Desktop: w.Focused.Active}
	if c.Desktop != nil {
		c.Node = c.Desktop.Focus
	}
	return c
}

// Desktops lists every desktop, monitor by monitor.
func (w *World) Desktops() []Coordinates {
	var out []Coordinates
	for _, m := range w.Monitors {
		for _, d := range m.Desktops {
			out = append(out, Coordinates{Monitor: m, Desktop: d})
		}
	}
	return out
}

// Nodes lists every node, desktop by desktop, each tree in order.
func (w *World) Nodes() []Coordinates {
	var out []Coordinates
	for _, dc := range w.Desktops() {
		dc.Desktop.Root.Walk(func(n *Node) bool {
			out = append(out, Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: n})
			return true
		})
	}
	return out
}

// MonitorByID finds a monitor by id, or nil.
func (w *World) MonitorByID(id uint32) *Monitor {
	for _, m := range w.Monitors {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// MonitorByName finds a monitor by name, or nil.
func (w *World) MonitorByName(name string) *Monitor {
	for _, m := range w.Monitors {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MonitorByIndex returns the idx-th monitor, counting from 1.
func (w *World) MonitorByIndex(idx int) *Monitor {
	if idx < 1 || idx > len(w.Monitors) {
		return nil
	}
	return w.Monitors[idx-1]
}

// DesktopByID finds a desktop by id, optionally restricted to one monitor.
func (w *World) DesktopByID(id uint32, within *Monitor) (Coordinates, bool) {
	for _, dc := range w.Desktops() {
		if within != nil && dc.Monitor != within {
			continue
		}
		if dc.Desktop.ID == id {
			return dc, true
		}
	}
	return Coordinates{}, false
}

// DesktopByIndex returns the idx-th desktop counting from 1, either across all
// monitors or within one.
func (w *World) DesktopByIndex(idx int, within *Monitor) (Coordinates, bool) {
	if idx < 1 {
		return Coordinates{}, false
	}
	for _, dc := range w.Desktops() {
		if within != nil && dc.Monitor != within {
			continue
		}
		if idx == 1 {
			return dc, true
		}
		idx--
	}
	return Coordinates{}, false
}

// DesktopsByName lists the desktops carrying name. Names are not unique across monitors.
func (w *World) DesktopsByName(name string) []Coordinates {
	var out []Coordinates
	for _, dc := range w.Desktops() {
		if dc.Desktop.Name == name {
			out = append(out, dc)
		}
	}
	return out
}

// NodeByID finds any node, leaf or internal, by id.
func (w *World) NodeByID(id uint32) (Coordinates, bool) {
	var found Coordinates
	for _, dc := range w.Desktops() {
		dc.Desktop.Root.Walk(func(n *Node) bool {
			if n.ID == id {
				found = Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: n}
				return false
			}
			return true
		})
		if found.Node != nil {
			return found, true
		}
	}
	return Coordinates{}, false
}

// LocateLeaf finds the leaf whose id is win.
func (w *World) LocateLeaf(win uint32) (Coordinates, bool) {
	for _, dc := range w.Desktops() {
		for _, leaf := range dc.Desktop.Root.Leaves() {
			if leaf.ID == win {
				return Coordinates{Monitor: dc.Monitor, Desktop: dc.Desktop, Node: leaf}, true
			}
		}
	}
	return Coordinates{}, false
}

// Locate completes a coordinate for a node pointer already known to be in the world.
func (w *World) Locate(n *Node) (Coordinates, bool) {
	if n == nil {
		return Coordinates{}, false
	}
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	for _, dc := range w.Desktops() {
		if dc.Desktop.Root == root {
			dc.Node = n
			return dc, true
		}
	}
	return Coordinates{}, false
}

// ClientsCount counts the windows managed across the world.
func (w *World) ClientsCount() int {
	count := 0
	for _, c := range w.Nodes() {
		if c.Node.Client != nil {
			count++
		}
	}
	return count
}
