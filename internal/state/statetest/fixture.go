// Package statetest builds a small two-monitor world shared by tests.
//
//	HDMI-0 (focused)                    DP-1 (primary)
//	  one (active)  0x00400001 vertical   web (active)  E Firefox
//	                 ├─ A URxvt (focus)   1             empty
//	                 └─ 0x00400002 horizontal
//	                     ├─ B Firefox
//	                     └─ C URxvt
//	  two           D Gimp floating urgent
//	  three         empty, monocle
package statetest

import (
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/state"
)

const (
	IDHDMI  uint32 = 0x00200001
	IDOne   uint32 = 0x00200002
	IDTwo   uint32 = 0x00200003
	IDThree uint32 = 0x00200004
	IDDP    uint32 = 0x00200005
	IDWeb   uint32 = 0x00200006
	IDOneDP uint32 = 0x00200007

	IDRoot  uint32 = 0x00400001
	IDRight uint32 = 0x00400002
	IDA     uint32 = 0x00C00001
	IDB     uint32 = 0x00C00002
	IDC     uint32 = 0x00C00003
	IDD     uint32 = 0x00C00004
	IDE     uint32 = 0x00C00005
)

// Fixture exposes every object of the test world by name.
type Fixture struct {
	World   *state.World
	History []state.Coordinates

	HDMI, DP                      *state.Monitor
	One, Two, Three, Web, Numeric *state.Desktop
	Root, Right, A, B, C, D, E    *state.Node
}

func tiled(class string, r layout.Rect) *state.Client {
	return &state.Client{ClassName: class, InstanceName: class, TiledRectangle: r, FloatingRectangle: r}
}

// New builds a fresh fixture; tests may mutate it freely.
func New() *Fixture {
	f := &Fixture{}

	f.A = state.NewLeaf(IDA, tiled("URxvt", layout.Rect{X: 0, Y: 0, Width: 960, Height: 1080}))
	f.A.Rectangle = layout.Rect{X: 0, Y: 0, Width: 960, Height: 1080}
	f.B = state.NewLeaf(IDB, tiled("Firefox", layout.Rect{X: 960, Y: 0, Width: 960, Height: 540}))
	f.B.Rectangle = layout.Rect{X: 960, Y: 0, Width: 960, Height: 540}
	f.C = state.NewLeaf(IDC, tiled("URxvt", layout.Rect{X: 960, Y: 540, Width: 960, Height: 540}))
	f.C.Rectangle = layout.Rect{X: 960, Y: 540, Width: 960, Height: 540}
	f.Right = state.NewSplit(IDRight, state.SplitHorizontal, f.B, f.C)
	f.Right.Rectangle = layout.Rect{X: 960, Y: 0, Width: 960, Height: 1080}
	f.Root = state.NewSplit(IDRoot, state.SplitVertical, f.A, f.Right)
	f.Root.Rectangle = layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	f.D = state.NewLeaf(IDD, &state.Client{
		ClassName:         "Gimp",
		InstanceName:      "gimp",
		State:             state.StateFloating,
		Urgent:            true,
		TiledRectangle:    layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		FloatingRectangle: layout.Rect{X: 100, Y: 100, Width: 400, Height: 300},
	})
	f.D.Rectangle = layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	f.E = state.NewLeaf(IDE, tiled("Firefox", layout.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}))
	f.E.Rectangle = layout.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	f.One = &state.Desktop{ID: IDOne, Name: "one", Root: f.Root, Focus: f.A}
	f.Two = &state.Desktop{ID: IDTwo, Name: "two", Root: f.D, Focus: f.D}
	f.Three = &state.Desktop{ID: IDThree, Name: "three", Layout: state.LayoutMonocle, UserLayout: state.LayoutMonocle}
	f.Web = &state.Desktop{ID: IDWeb, Name: "web", Root: f.E, Focus: f.E}
	f.Numeric = &state.Desktop{ID: IDOneDP, Name: "1"}

	f.HDMI = &state.Monitor{
		ID:        IDHDMI,
		Name:      "HDMI-0",
		Rectangle: layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
		Desktops:  []*state.Desktop{f.One, f.Two, f.Three},
		Active:    f.One,
	}
	f.DP = &state.Monitor{
		ID:        IDDP,
		Name:      "DP-1",
		Rectangle: layout.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080},
		Desktops:  []*state.Desktop{f.Web, f.Numeric},
		Active:    f.Web,
	}

	f.World = &state.World{
		Monitors: []*state.Monitor{f.HDMI, f.DP},
		Focused:  f.HDMI,
		Primary:  f.DP,
	}
	f.History = []state.Coordinates{
		f.At(f.E),
		f.At(f.D),
		f.At(f.B),
		f.At(f.A),
	}
	return f
}

// At completes the coordinate of a node in the fixture world.
func (f *Fixture) At(n *state.Node) state.Coordinates {
	c, ok := f.World.Locate(n)
	if !ok {
		panic("statetest: node not in world")
	}
	return c
}

// Desk returns the coordinate of a desktop in the fixture world.
func (f *Fixture) Desk(d *state.Desktop) state.Coordinates {
	for _, c := range f.World.Desktops() {
		if c.Desktop == d {
			return c
		}
	}
	panic("statetest: desktop not in world")
}

// Focus moves the global focus to n, activating its desktop and monitor.
func (f *Fixture) Focus(n *state.Node) {
	c := f.At(n)
	c.Desktop.Focus = n
	c.Monitor.Active = c.Desktop
	f.World.Focused = c.Monitor
}
