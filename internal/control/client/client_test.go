package client

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rotkonetworks/bspwm/internal/control"
	"github.com/rotkonetworks/bspwm/internal/metrics"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/state"
)

func startTestServer(t *testing.T, handler func(net.Conn)) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "socket")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on unix socket: %v", err)
	}
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		handler(conn)
	}()
	return path
}

// respond decodes one request, hands it to check and writes resp back.
func respond(t *testing.T, check func(control.Request), resp control.Response) func(net.Conn) {
	return func(conn net.Conn) {
		defer conn.Close()
		var req control.Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		check(req)
		if err := json.NewEncoder(conn).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestNodesSendsScope(t *testing.T) {
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionQueryNodes {
			t.Errorf("unexpected action %q", req.Action)
		}
		want := map[string]any{"desktop": "focused", "node": ".leaf"}
		if diff := cmp.Diff(want, req.Params); diff != "" {
			t.Errorf("params mismatch (-want +got):\n%s", diff)
		}
	}, control.Response{Status: control.StatusOK, Data: []string{"0x00C00001", "0x00C00002"}}))

	cli, err := New(path)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	ids, err := cli.Nodes(context.Background(), Scope{Desktop: "focused", Node: ".leaf"})
	if err != nil {
		t.Fatalf("Nodes returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"0x00C00001", "0x00C00002"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitorsRequestsNames(t *testing.T) {
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionQueryMonitors || req.Params["names"] != true {
			t.Errorf("unexpected request %#v", req)
		}
	}, control.Response{Status: control.StatusOK, Data: []string{"HDMI-0"}}))

	cli, _ := New(path)
	names, err := cli.Monitors(context.Background(), Scope{}, true)
	if err != nil {
		t.Fatalf("Monitors returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"HDMI-0"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFocusDecodesCoordinate(t *testing.T) {
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionDesktopFocus || req.Params["descriptor"] != "^2" {
			t.Errorf("unexpected request %#v", req)
		}
	}, control.Response{Status: control.StatusOK, Data: state.CoordinateIDs{MonitorID: 1, DesktopID: 2, NodeID: 3}}))

	cli, _ := New(path)
	ids, err := cli.Focus(context.Background(), "desktop", "^2")
	if err != nil {
		t.Fatalf("Focus returned error: %v", err)
	}
	if diff := cmp.Diff(CoordinateIDs{MonitorID: 1, DesktopID: 2, NodeID: 3}, ids); diff != "" {
		t.Fatalf("coordinate mismatch (-want +got):\n%s", diff)
	}
}

func TestFocusValidatesArguments(t *testing.T) {
	cli, _ := New(filepath.Join(t.TempDir(), "unused"))
	if _, err := cli.Focus(context.Background(), "node", ""); err == nil {
		t.Fatalf("expected error for empty descriptor")
	}
	if _, err := cli.Focus(context.Background(), "window", "focused"); err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if _, err := cli.RemoveRule(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty rule name")
	}
}

func TestServerErrorIsReturned(t *testing.T) {
	path := startTestServer(t, respond(t, func(control.Request) {},
		control.Response{Status: control.StatusError, Error: `node descriptor "east": no matching object`}))

	cli, _ := New(path)
	_, err := cli.Resolve(context.Background(), "node", "east")
	if err == nil || err.Error() != `node descriptor "east": no matching object` {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTreeKeepsRawJSON(t *testing.T) {
	tree := state.DesktopTree{Name: "web", ID: 0x00200006}
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Params["kind"] != "desktop" || req.Params["monitor"] != "DP-1" {
			t.Errorf("unexpected params %#v", req.Params)
		}
	}, control.Response{Status: control.StatusOK, Data: tree}))

	cli, _ := New(path)
	raw, err := cli.Tree(context.Background(), "desktop", Scope{Monitor: "DP-1"})
	if err != nil {
		t.Fatalf("Tree returned error: %v", err)
	}
	var got state.DesktopTree
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyRulesDecodesOutcome(t *testing.T) {
	floating := state.StateFloating
	outcome := rules.Outcome{
		Subject:     rules.Subject{Class: "Gimp", Instance: "gimp"},
		Matched:     []string{"gimp"},
		Consequence: rules.NewConsequence(),
	}
	outcome.Consequence.Desktop = "0x00200003"
	outcome.Consequence.State = &floating
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionRuleApply || req.Params["class"] != "Gimp" || req.Params["explain"] != false {
			t.Errorf("unexpected request %#v", req)
		}
	}, control.Response{Status: control.StatusOK, Data: outcome}))

	cli, _ := New(path)
	got, err := cli.ApplyRules(context.Background(), "Gimp", "gimp", false)
	if err != nil {
		t.Fatalf("ApplyRules returned error: %v", err)
	}
	if diff := cmp.Diff(outcome, got); diff != "" {
		t.Fatalf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsSuccess(t *testing.T) {
	snap := metrics.Snapshot{
		Enabled: true,
		Totals:  metrics.Totals{Resolutions: 3, Failures: 1},
		Resolutions: []metrics.ResolutionMetrics{
			{Kind: "node", Result: "invalid", Count: 1},
			{Kind: "node", Result: "ok", Count: 2},
		},
	}
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionMetricsGet {
			t.Errorf("unexpected action %q", req.Action)
		}
	}, control.Response{Status: control.StatusOK, Data: snap}))

	cli, _ := New(path)
	got, err := cli.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics returned error: %v", err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveRule(t *testing.T) {
	path := startTestServer(t, respond(t, func(req control.Request) {
		if req.Action != control.ActionRuleRemove || req.Params["name"] != "gimp" {
			t.Errorf("unexpected request %#v", req)
		}
	}, control.Response{Status: control.StatusOK, Data: control.RuleRemoval{Removed: 2}}))

	cli, _ := New(path)
	n, err := cli.RemoveRule(context.Background(), "gimp")
	if err != nil {
		t.Fatalf("RemoveRule returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("RemoveRule = %d, want 2", n)
	}
}

func TestDialErrorIsWrapped(t *testing.T) {
	cli, _ := New(filepath.Join(t.TempDir(), "missing.sock"))
	if err := cli.Reload(context.Background()); err == nil || !strings.Contains(err.Error(), "dial control socket") {
		t.Fatalf("expected dial error, got %v", err)
	}
}
