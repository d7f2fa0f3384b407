package state_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/state/statetest"
)

func TestSnapshotRebuildsWorld(t *testing.T) {
	f := statetest.New()
	var buf bytes.Buffer
	if err := state.EncodeSnapshot(&buf, f.World, f.History); err != nil {
		t.Fatalf("encode: %v", err)
	}
	world, history, err := state.DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(f.World.Snapshot(f.History), world.Snapshot(history)); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	focus := world.Focus()
	if focus.Node == nil || focus.Node.ID != statetest.IDA {
		t.Fatalf("unexpected focus after reload %+v", focus)
	}
	if world.Primary == nil || world.Primary.ID != statetest.IDDP {
		t.Fatalf("primary monitor lost")
	}
	c, ok := world.NodeByID(statetest.IDC)
	if !ok || c.Node.Parent == nil || c.Node.Parent.ID != statetest.IDRight {
		t.Fatalf("parent links not restored")
	}
	if len(history) != 4 || history[3].Node.ID != statetest.IDA {
		t.Fatalf("history not restored: %+v", history)
	}
}

func TestSnapshotUsesOriginalKeys(t *testing.T) {
	f := statetest.New()
	var buf bytes.Buffer
	if err := state.EncodeSnapshot(&buf, f.World, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, key := range []string{`"focusedMonitorId":2097153`, `"splitType":"horizontal"`, `"state":"floating"`, `"userLayout":"monocle"`, `"root":null`} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("expected %s in %s", key, buf.String())
		}
	}
}

func TestDecodeSnapshotRejectsBrokenTrees(t *testing.T) {
	tests := map[string]string{
		"duplicate node": `{"monitors":[{"id":1,"desktops":[{"id":2,"root":{"id":3,"firstChild":{"id":4},"secondChild":{"id":4}}}]}]}`,
		"one child":      `{"monitors":[{"id":1,"desktops":[{"id":2,"root":{"id":3,"firstChild":{"id":4}}}]}]}`,
		"lost focus":     `{"monitors":[{"id":1,"desktops":[{"id":2,"focusedNodeId":9,"root":{"id":3}}]}]}`,
		"bad layout":     `{"monitors":[{"id":1,"desktops":[{"id":2,"layout":"spiral"}]}]}`,
	}
	for name, doc := range tests {
		if _, _, err := state.DecodeSnapshot(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDecodeSnapshotDropsStaleHistory(t *testing.T) {
	doc := `{"focusedMonitorId":1,"monitors":[{"id":1,"focusedDesktopId":2,"desktops":[{"id":2,"focusedNodeId":3,"root":{"id":3}}]}],
"focusHistory":[{"monitorId":1,"desktopId":2,"nodeId":3},{"monitorId":1,"desktopId":2,"nodeId":99},{"monitorId":7,"desktopId":0,"nodeId":0}]}`
	world, history, err := state.DecodeSnapshot(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 1 || history[0].Node.ID != 3 {
		t.Fatalf("unexpected history %+v", history)
	}
	if world.Focus().Node.ID != 3 {
		t.Fatalf("unexpected focus")
	}
}
