package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rotkonetworks/bspwm/internal/layout"
)

// maxTreeDepth bounds recursion when decoding or encoding untrusted trees.
const maxTreeDepth = 1000

// ErrTreeTooDeep is returned when a snapshot nests nodes beyond maxTreeDepth.
var ErrTreeTooDeep = errors.New("tree too deep")

// Snapshot is the serialised form of a World and its focus history.
type Snapshot struct {
	FocusedMonitorID uint32          `json:"focusedMonitorId"`
	PrimaryMonitorID uint32          `json:"primaryMonitorId,omitempty"`
	ClientsCount     int             `json:"clientsCount"`
	Monitors         []MonitorTree   `json:"monitors"`
	FocusHistory     []CoordinateIDs `json:"focusHistory"`
}

// CoordinateIDs is a coordinate written as ids; zero means absent.
type CoordinateIDs struct {
	MonitorID uint32 `json:"monitorId"`
	DesktopID uint32 `json:"desktopId"`
	NodeID    uint32 `json:"nodeId"`
}

type MonitorTree struct {
	Name             string        `json:"name"`
	ID               uint32        `json:"id"`
	FocusedDesktopID uint32        `json:"focusedDesktopId"`
	Rectangle        layout.Rect   `json:"rectangle"`
	Desktops         []DesktopTree `json:"desktops"`
}

type DesktopTree struct {
	Name          string    `json:"name"`
	ID            uint32    `json:"id"`
	Layout        Layout    `json:"layout"`
	UserLayout    Layout    `json:"userLayout"`
	FocusedNodeID uint32    `json:"focusedNodeId"`
	Root          *NodeTree `json:"root"`
}

type NodeTree struct {
	ID          uint32      `json:"id"`
	SplitType   SplitType   `json:"splitType"`
	SplitRatio  float64     `json:"splitRatio"`
	Vacant      bool        `json:"vacant"`
	Hidden      bool        `json:"hidden"`
	Sticky      bool        `json:"sticky"`
	Private     bool        `json:"private"`
	Locked      bool        `json:"locked"`
	Marked      bool        `json:"marked"`
	Presel      *PreselTree `json:"presel"`
	Rectangle   layout.Rect `json:"rectangle"`
	FirstChild  *NodeTree   `json:"firstChild"`
	SecondChild *NodeTree   `json:"secondChild"`
	Client      *ClientTree `json:"client"`
}

type PreselTree struct {
	SplitDir   string  `json:"splitDir"`
	SplitRatio float64 `json:"splitRatio"`
}

type ClientTree struct {
	ClassName         string      `json:"className"`
	InstanceName      string      `json:"instanceName"`
	State             ClientState `json:"state"`
	Layer             StackLayer  `json:"layer"`
	Urgent            bool        `json:"urgent"`
	TiledRectangle    layout.Rect `json:"tiledRectangle"`
	FloatingRectangle layout.Rect `json:"floatingRectangle"`
}

// DecodeSnapshot reads a JSON snapshot and rebuilds the world and its focus history.
// History entries that no longer resolve are dropped.
func DecodeSnapshot(r io.Reader) (*World, []Coordinates, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.Build()
}

// Build converts the serialised snapshot into live objects.
func (s Snapshot) Build() (*World, []Coordinates, error) {
	w := &World{}
	seenMonitors := map[uint32]bool{}
	seenDesktops := map[uint32]bool{}
	seenNodes := map[uint32]bool{}
	for _, mt := range s.Monitors {
		if seenMonitors[mt.ID] {
			return nil, nil, fmt.Errorf("duplicate monitor id %d", mt.ID)
		}
		seenMonitors[mt.ID] = true
		m := &Monitor{ID: mt.ID, Name: mt.Name, Rectangle: mt.Rectangle}
		for _, dt := range mt.Desktops {
			if seenDesktops[dt.ID] {
				return nil, nil, fmt.Errorf("duplicate desktop id %d", dt.ID)
			}
			seenDesktops[dt.ID] = true
			d := &Desktop{ID: dt.ID, Name: dt.Name, Layout: dt.Layout, UserLayout: dt.UserLayout}
			root, err := buildNode(dt.Root, nil, seenNodes, 0)
			if err != nil {
				return nil, nil, fmt.Errorf("desktop %q: %w", dt.Name, err)
			}
			d.Root = root
			if dt.FocusedNodeID != 0 {
				d.Root.Walk(func(n *Node) bool {
					if n.ID == dt.FocusedNodeID {
						d.Focus = n
						return false
					}
					return true
				})
				if d.Focus == nil {
					return nil, nil, fmt.Errorf("desktop %q: focused node %d not in tree", dt.Name, dt.FocusedNodeID)
				}
			}
			m.Desktops = append(m.Desktops, d)
			if d.ID == mt.FocusedDesktopID {
				m.Active = d
			}
		}
		if m.Active == nil && len(m.Desktops) > 0 {
			m.Active = m.Desktops[0]
		}
		w.Monitors = append(w.Monitors, m)
	}
	w.Focused = w.MonitorByID(s.FocusedMonitorID)
	if w.Focused == nil && len(w.Monitors) > 0 {
		w.Focused = w.Monitors[0]
	}
	if s.PrimaryMonitorID != 0 {
		w.Primary = w.MonitorByID(s.PrimaryMonitorID)
	}

	var history []Coordinates
	for _, h := range s.FocusHistory {
		if c, ok := w.resolveIDs(h); ok {
			history = append(history, c)
		}
	}
	return w, history, nil
}

func buildNode(t *NodeTree, parent *Node, seen map[uint32]bool, depth int) (*Node, error) {
	if t == nil {
		return nil, nil
	}
	if depth > maxTreeDepth {
		return nil, ErrTreeTooDeep
	}
	if seen[t.ID] {
		return nil, fmt.Errorf("duplicate node id %d", t.ID)
	}
	seen[t.ID] = true
	n := &Node{
		ID:         t.ID,
		SplitType:  t.SplitType,
		SplitRatio: t.SplitRatio,
		Rectangle:  t.Rectangle,
		Vacant:     t.Vacant,
		Hidden:     t.Hidden,
		Sticky:     t.Sticky,
		Private:    t.Private,
		Locked:     t.Locked,
		Marked:     t.Marked,
		Parent:     parent,
	}
	if t.Presel != nil {
		dir, ok := layout.ParseDirection(t.Presel.SplitDir)
		if !ok {
			return nil, fmt.Errorf("node %d: unknown presel direction %q", t.ID, t.Presel.SplitDir)
		}
		n.Presel = &Presel{SplitDir: dir, SplitRatio: t.Presel.SplitRatio}
	}
	if c := t.Client; c != nil {
		n.Client = &Client{
			ClassName:         c.ClassName,
			InstanceName:      c.InstanceName,
			State:             c.State,
			Layer:             c.Layer,
			Urgent:            c.Urgent,
			TiledRectangle:    c.TiledRectangle,
			FloatingRectangle: c.FloatingRectangle,
		}
	}
	if (t.FirstChild == nil) != (t.SecondChild == nil) {
		return nil, fmt.Errorf("node %d: internal nodes need two children", t.ID)
	}
	var err error
	if n.FirstChild, err = buildNode(t.FirstChild, n, seen, depth+1); err != nil {
		return nil, err
	}
	if n.SecondChild, err = buildNode(t.SecondChild, n, seen, depth+1); err != nil {
		return nil, err
	}
	return n, nil
}

func (w *World) resolveIDs(h CoordinateIDs) (Coordinates, bool) {
	m := w.MonitorByID(h.MonitorID)
	if m == nil {
		return Coordinates{}, false
	}
	c := Coordinates{Monitor: m}
	if h.DesktopID == 0 {
		return c, true
	}
	dc, ok := w.DesktopByID(h.DesktopID, m)
	if !ok {
		return Coordinates{}, false
	}
	if h.NodeID == 0 {
		return dc, true
	}
	nc, ok := w.NodeByID(h.NodeID)
	if !ok || nc.Desktop != dc.Desktop {
		return Coordinates{}, false
	}
	return nc, true
}

// Snapshot serialises the world together with the given focus history.
func (w *World) Snapshot(history []Coordinates) Snapshot {
	snap := Snapshot{
		ClientsCount: w.ClientsCount(),
		Monitors:     make([]MonitorTree, 0, len(w.Monitors)),
		FocusHistory: make([]CoordinateIDs, 0, len(history)),
	}
	if w.Focused != nil {
		snap.FocusedMonitorID = w.Focused.ID
	}
	if w.Primary != nil {
		snap.PrimaryMonitorID = w.Primary.ID
	}
	for _, m := range w.Monitors {
		snap.Monitors = append(snap.Monitors, MonitorTreeOf(m))
	}
	for _, h := range history {
		snap.FocusHistory = append(snap.FocusHistory, IDsOf(h))
	}
	return snap
}

// EncodeSnapshot writes the world and history as JSON.
func EncodeSnapshot(out io.Writer, w *World, history []Coordinates) error {
	return json.NewEncoder(out).Encode(w.Snapshot(history))
}

// IDsOf converts a coordinate into its id form.
func IDsOf(c Coordinates) CoordinateIDs {
	var ids CoordinateIDs
	if c.Monitor != nil {
		ids.MonitorID = c.Monitor.ID
	}
	if c.Desktop != nil {
		ids.DesktopID = c.Desktop.ID
	}
	if c.Node != nil {
		ids.NodeID = c.Node.ID
	}
	return ids
}

func MonitorTreeOf(m *Monitor) MonitorTree {
	mt := MonitorTree{Name: m.Name, ID: m.ID, Rectangle: m.Rectangle, Desktops: make([]DesktopTree, 0, len(m.Desktops))}
	if m.Active != nil {
		mt.FocusedDesktopID = m.Active.ID
	}
	for _, d := range m.Desktops {
		mt.Desktops = append(mt.Desktops, DesktopTreeOf(d))
	}
	return mt
}

func DesktopTreeOf(d *Desktop) DesktopTree {
	dt := DesktopTree{Name: d.Name, ID: d.ID, Layout: d.Layout, UserLayout: d.UserLayout, Root: NodeTreeOf(d.Root)}
	if d.Focus != nil {
		dt.FocusedNodeID = d.Focus.ID
	}
	return dt
}

// NodeTreeOf serialises the subtree rooted at n; nil stays nil.
func NodeTreeOf(n *Node) *NodeTree {
	return nodeTreeOf(n, 0)
}

func nodeTreeOf(n *Node, depth int) *NodeTree {
	if n == nil || depth > maxTreeDepth {
		return nil
	}
	t := &NodeTree{
		ID:          n.ID,
		SplitType:   n.SplitType,
		SplitRatio:  n.SplitRatio,
		Vacant:      n.Vacant,
		Hidden:      n.Hidden,
		Sticky:      n.Sticky,
		Private:     n.Private,
		Locked:      n.Locked,
		Marked:      n.Marked,
		Rectangle:   n.Rectangle,
		FirstChild:  nodeTreeOf(n.FirstChild, depth+1),
		SecondChild: nodeTreeOf(n.SecondChild, depth+1),
	}
	if n.Presel != nil {
		t.Presel = &PreselTree{SplitDir: n.Presel.SplitDir.String(), SplitRatio: n.Presel.SplitRatio}
	}
	if c := n.Client; c != nil {
		t.Client = &ClientTree{
			ClassName:         c.ClassName,
			InstanceName:      c.InstanceName,
			State:             c.State,
			Layer:             c.Layer,
			Urgent:            c.Urgent,
			TiledRectangle:    c.TiledRectangle,
			FloatingRectangle: c.FloatingRectangle,
		}
	}
	return t
}
