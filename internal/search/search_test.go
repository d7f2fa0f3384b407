package search

import (
	"testing"

	"github.com/rotkonetworks/bspwm/internal/history"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/state/statetest"
)

func isLeaf(c state.Coordinates) bool { return c.Node.IsLeaf() }

func TestNearestNeighbor(t *testing.T) {
	f := statetest.New()
	h := history.New(f.History)
	tests := []struct {
		name string
		from *state.Node
		dir  layout.Direction
		want *state.Node
	}{
		{"tie broken by recency", f.A, layout.East, f.B},
		{"crosses monitors", f.B, layout.East, f.E},
		{"back west", f.B, layout.West, f.A},
		{"down", f.B, layout.South, f.C},
		{"up", f.C, layout.North, f.B},
		{"screen edge", f.A, layout.West, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestNeighbor(f.World, h, f.At(tt.from), tt.dir, layout.TightnessHigh, nil)
			if tt.want == nil {
				if ok {
					t.Fatalf("expected no neighbour, got %v", got.Node.ID)
				}
				return
			}
			if !ok || got.Node != tt.want {
				t.Fatalf("got %+v, %v; want node %#x", got.Node, ok, tt.want.ID)
			}
		})
	}
}

func TestNearestNeighborSkipsHiddenAndFiltered(t *testing.T) {
	f := statetest.New()
	f.B.Hidden = true
	got, ok := NearestNeighbor(f.World, nil, f.At(f.A), layout.East, layout.TightnessHigh, nil)
	if !ok || got.Node != f.C {
		t.Fatalf("expected C once B is hidden, got %+v", got.Node)
	}
	otherMonitor := func(c state.Coordinates) bool { return c.Monitor != f.HDMI }
	got, ok = NearestNeighbor(f.World, nil, f.At(f.A), layout.East, layout.TightnessHigh, otherMonitor)
	if !ok || got.Node != f.E {
		t.Fatalf("expected E, got %+v", got.Node)
	}
}

func TestNearestNeighborFromEmptyDesktopUsesMonitor(t *testing.T) {
	f := statetest.New()
	f.HDMI.Active = f.Three
	got, ok := NearestNeighbor(f.World, nil, f.Desk(f.Three), layout.East, layout.TightnessHigh, nil)
	if !ok || got.Node != f.E {
		t.Fatalf("expected E from empty desktop, got %+v, %v", got.Node, ok)
	}
}

func TestClosestNode(t *testing.T) {
	f := statetest.New()
	if got, ok := ClosestNode(f.World, f.At(f.A), state.CycleNext, nil); !ok || got.Node != f.Root {
		t.Fatalf("next of A = %+v", got.Node)
	}
	if got, ok := ClosestNode(f.World, f.At(f.A), state.CycleNext, isLeaf); !ok || got.Node != f.B {
		t.Fatalf("next leaf of A = %+v", got.Node)
	}
	if got, ok := ClosestNode(f.World, f.At(f.A), state.CyclePrev, isLeaf); !ok || got.Node != f.E {
		t.Fatalf("prev leaf of A = %+v", got.Node)
	}
	if got, ok := ClosestNode(f.World, f.Desk(f.Three), state.CycleNext, nil); !ok || got.Node != f.E {
		t.Fatalf("next from empty desktop = %+v", got.Node)
	}
	if got, ok := ClosestNode(f.World, f.Desk(f.Three), state.CyclePrev, nil); !ok || got.Node != f.D {
		t.Fatalf("prev from empty desktop = %+v", got.Node)
	}
	none := func(state.Coordinates) bool { return false }
	if _, ok := ClosestNode(f.World, f.At(f.A), state.CycleNext, none); ok {
		t.Fatalf("expected no match")
	}
}

func TestClosestDesktopAndMonitor(t *testing.T) {
	f := statetest.New()
	if got, ok := ClosestDesktop(f.World, f.Desk(f.One), state.CycleNext, nil); !ok || got.Desktop != f.Two {
		t.Fatalf("next desktop = %+v", got.Desktop)
	}
	if got, ok := ClosestDesktop(f.World, f.Desk(f.One), state.CyclePrev, nil); !ok || got.Desktop != f.Numeric {
		t.Fatalf("prev desktop = %+v", got.Desktop)
	}
	occupied := func(c state.Coordinates) bool { return c.Desktop.Root != nil }
	if got, ok := ClosestDesktop(f.World, f.Desk(f.One), state.CyclePrev, occupied); !ok || got.Desktop != f.Web {
		t.Fatalf("prev occupied desktop = %+v", got.Desktop)
	}
	ref := state.Coordinates{Monitor: f.HDMI}
	if got, ok := ClosestMonitor(f.World, ref, state.CyclePrev, nil); !ok || got.Monitor != f.DP {
		t.Fatalf("prev monitor = %+v", got.Monitor)
	}
	if got, ok := NearestMonitor(f.World, ref, layout.East, layout.TightnessHigh, nil); !ok || got.Monitor != f.DP {
		t.Fatalf("east monitor = %+v", got.Monitor)
	}
	if _, ok := NearestMonitor(f.World, ref, layout.West, layout.TightnessHigh, nil); ok {
		t.Fatalf("expected nothing west of HDMI-0")
	}
}

func TestAnyAndAncestor(t *testing.T) {
	f := statetest.New()
	if got, ok := AnyNode(f.World, nil); !ok || got.Node != f.Root {
		t.Fatalf("any node = %+v", got.Node)
	}
	floating := func(c state.Coordinates) bool {
		return c.Node.Client != nil && c.Node.Client.State == state.StateFloating
	}
	if got, ok := AnyNode(f.World, floating); !ok || got.Node != f.D || got.Desktop != f.Two {
		t.Fatalf("any floating = %+v", got)
	}
	empty := func(c state.Coordinates) bool { return c.Desktop.Root == nil }
	if got, ok := AnyDesktop(f.World, empty); !ok || got.Desktop != f.Three {
		t.Fatalf("any empty desktop = %+v", got.Desktop)
	}
	if got, ok := AnyMonitor(f.World, nil); !ok || got.Monitor != f.HDMI {
		t.Fatalf("any monitor = %+v", got.Monitor)
	}
	if got, ok := FirstAncestor(f.At(f.C), nil); !ok || got.Node != f.Right {
		t.Fatalf("first ancestor of C = %+v", got.Node)
	}
	vertical := func(c state.Coordinates) bool { return c.Node.SplitType == state.SplitVertical }
	if got, ok := FirstAncestor(f.At(f.C), vertical); !ok || got.Node != f.Root {
		t.Fatalf("first vertical ancestor of C = %+v", got.Node)
	}
	if _, ok := FirstAncestor(f.At(f.Root), nil); ok {
		t.Fatalf("expected root to have no ancestor")
	}
}

func TestByArea(t *testing.T) {
	f := statetest.New()
	if got, ok := ByArea(f.World, Biggest, nil); !ok || got.Node != f.E {
		t.Fatalf("biggest = %+v", got.Node)
	}
	if got, ok := ByArea(f.World, Smallest, nil); !ok || got.Node != f.D {
		t.Fatalf("smallest = %+v", got.Node)
	}
	f.D.Vacant = true
	if got, ok := ByArea(f.World, Smallest, nil); !ok || got.Node != f.B {
		t.Fatalf("smallest non-vacant = %+v", got.Node)
	}
}
