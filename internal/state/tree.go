package state

import (
	"fmt"

	"github.com/rotkonetworks/bspwm/internal/layout"
)

// SplitType is the orientation of the line dividing an internal node.
type SplitType int

const (
	SplitVertical SplitType = iota
	SplitHorizontal
)

// Layout is the arrangement applied to a desktop's tiled windows.
type Layout int

const (
	LayoutTiled Layout = iota
	LayoutMonocle
)

// ClientState is how a window is placed.
type ClientState int

const (
	StateTiled ClientState = iota
	StatePseudoTiled
	StateFloating
	StateFullscreen
)

// StackLayer is a window's stacking layer.
type StackLayer int

const (
	LayerNormal StackLayer = iota
	LayerBelow
	LayerAbove
)

// Presel is a manual split preselection on a node.
type Presel struct {
	SplitDir   layout.Direction
	SplitRatio float64
}

// Client carries the window attributes of a leaf.
type Client struct {
	ClassName         string
	InstanceName      string
	State             ClientState
	Layer             StackLayer
	Urgent            bool
	TiledRectangle    layout.Rect
	FloatingRectangle layout.Rect
}

// Node is a vertex of a desktop's binary partition tree. Leaves usually hold a client.
type Node struct {
	ID          uint32
	SplitType   SplitType
	SplitRatio  float64
	Rectangle   layout.Rect
	Presel      *Presel
	Vacant      bool
	Hidden      bool
	Sticky      bool
	Private     bool
	Locked      bool
	Marked      bool
	Parent      *Node
	FirstChild  *Node
	SecondChild *Node
	Client      *Client
}

// Desktop is an ordered workspace holding at most one tree.
type Desktop struct {
	ID         uint32
	Name       string
	Layout     Layout
	UserLayout Layout
	Root       *Node
	Focus      *Node
}

// Monitor is a physical output. Active is the desktop currently shown on it.
type Monitor struct {
	ID        uint32
	Name      string
	Rectangle layout.Rect
	Desktops  []*Desktop
	Active    *Desktop
}

// NewLeaf returns a parentless leaf.
func NewLeaf(id uint32, client *Client) *Node {
	return &Node{ID: id, SplitRatio: 0.5, Client: client}
}

// NewSplit joins two subtrees under a fresh internal node.
func NewSplit(id uint32, split SplitType, first, second *Node) *Node {
	n := &Node{ID: id, SplitType: split, SplitRatio: 0.5, FirstChild: first, SecondChild: second}
	if first != nil {
		first.Parent = n
	}
	if second != nil {
		second.Parent = n
	}
	return n
}

func (n *Node) IsLeaf() bool {
	return n != nil && n.FirstChild == nil && n.SecondChild == nil
}

func (n *Node) IsFirstChild() bool {
	return n != nil && n.Parent != nil && n.Parent.FirstChild == n
}

func (n *Node) IsSecondChild() bool {
	return n != nil && n.Parent != nil && n.Parent.SecondChild == n
}

// Brother returns the other child of n's parent.
func (n *Node) Brother() *Node {
	if n == nil || n.Parent == nil {
		return nil
	}
	if n.IsFirstChild() {
		return n.Parent.SecondChild
	}
	return n.Parent.FirstChild
}

// IsDescendantOf reports whether n lies in the subtree rooted at a. A node is its
// own descendant; nothing descends from nil.
func (n *Node) IsDescendantOf(a *Node) bool {
	if a == nil {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Fence returns the closest ancestor whose split line bounds n on the dir side.
func (n *Node) Fence(dir layout.Direction) *Node {
	if n == nil {
		return nil
	}
	r := n.Rectangle
	for p := n.Parent; p != nil; p = p.Parent {
		pr := p.Rectangle
		switch {
		case dir == layout.North && p.SplitType == SplitHorizontal && pr.Y < r.Y,
			dir == layout.West && p.SplitType == SplitVertical && pr.X < r.X,
			dir == layout.South && p.SplitType == SplitHorizontal && pr.Y+pr.Height > r.Y+r.Height,
			dir == layout.East && p.SplitType == SplitVertical && pr.X+pr.Width > r.X+r.Width:
			return p
		}
	}
	return nil
}

// Walk visits the subtree rooted at n in order: first subtree, node, second subtree.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !n.FirstChild.Walk(fn) {
		return false
	}
	if !fn(n) {
		return false
	}
	return n.SecondChild.Walk(fn)
}

// Nodes lists the subtree rooted at n in order.
func (n *Node) Nodes() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		out = append(out, x)
		return true
	})
	return out
}

// Leaves lists the leaves of the subtree rooted at n from first to last.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.IsLeaf() {
			out = append(out, x)
		}
		return true
	})
	return out
}

// IsUrgent reports whether any window on the desktop demands attention.
func (d *Desktop) IsUrgent() bool {
	if d == nil {
		return false
	}
	for _, leaf := range d.Root.Leaves() {
		if leaf.Client != nil && leaf.Client.Urgent {
			return true
		}
	}
	return false
}

// Rectangle returns the on-screen area of the coordinate: the window rectangle for
// clients, the partition rectangle for internal nodes, the monitor otherwise.
func (c Coordinates) Rectangle() layout.Rect {
	if c.Node == nil {
		if c.Monitor == nil {
			return layout.Rect{}
		}
		return c.Monitor.Rectangle
	}
	if cl := c.Node.Client; cl != nil {
		if cl.State == StateFloating {
			return cl.FloatingRectangle
		}
		return cl.TiledRectangle
	}
	return c.Node.Rectangle
}

func (t SplitType) String() string {
	if t == SplitHorizontal {
		return "horizontal"
	}
	return "vertical"
}

func (l Layout) String() string {
	if l == LayoutMonocle {
		return "monocle"
	}
	return "tiled"
}

func (s ClientState) String() string {
	switch s {
	case StatePseudoTiled:
		return "pseudo_tiled"
	case StateFloating:
		return "floating"
	case StateFullscreen:
		return "fullscreen"
	}
	return "tiled"
}

func (l StackLayer) String() string {
	switch l {
	case LayerBelow:
		return "below"
	case LayerAbove:
		return "above"
	}
	return "normal"
}

func (t SplitType) MarshalText() ([]byte, error)   { return []byte(t.String()), nil }
func (l Layout) MarshalText() ([]byte, error)      { return []byte(l.String()), nil }
func (s ClientState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (l StackLayer) MarshalText() ([]byte, error)  { return []byte(l.String()), nil }

func (t *SplitType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "vertical":
		*t = SplitVertical
	case "horizontal":
		*t = SplitHorizontal
	default:
		return fmt.Errorf("unknown split type %q", b)
	}
	return nil
}

func (l *Layout) UnmarshalText(b []byte) error {
	v, ok := ParseLayout(string(b))
	if !ok {
		return fmt.Errorf("unknown layout %q", b)
	}
	*l = v
	return nil
}

func (s *ClientState) UnmarshalText(b []byte) error {
	v, ok := ParseClientState(string(b))
	if !ok {
		return fmt.Errorf("unknown client state %q", b)
	}
	*s = v
	return nil
}

func (l *StackLayer) UnmarshalText(b []byte) error {
	v, ok := ParseStackLayer(string(b))
	if !ok {
		return fmt.Errorf("unknown stack layer %q", b)
	}
	*l = v
	return nil
}
