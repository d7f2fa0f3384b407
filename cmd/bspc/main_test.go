package main

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotkonetworks/bspwm/internal/control"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/state"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

// serveOnce answers a single control request with resp and records the request.
func serveOnce(t *testing.T, resp control.Response) (string, <-chan control.Request) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "socket")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen on unix socket: %v", err)
	}
	seen := make(chan control.Request, 1)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req control.Request
		if err := json.NewDecoder(conn).Decode(&req); err != nil {
			return
		}
		seen <- req
		_ = json.NewEncoder(conn).Encode(resp)
	}()
	return path, seen
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckSuccess(t *testing.T) {
	path := writeTempConfig(t, `rules:
  - name: Browser
    match:
      class: Firefox
    desktop: "^2"
`)
	stdout, stderr, err := runCLI(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	if strings.TrimSpace(stdout) != "Configuration OK" {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if strings.TrimSpace(stderr) != "" {
		t.Fatalf("expected no stderr, got %q", stderr)
	}
}

func TestCheckFailure(t *testing.T) {
	path := writeTempConfig(t, `rules:
  - name: Broken
    match:
      class: Gimp
    splitRatio: 1.5
`)
	stdout, stderr, err := runCLI(t, "check", "--config", path)
	if err == nil {
		t.Fatalf("expected error from check")
	}
	if strings.TrimSpace(stdout) != "" {
		t.Fatalf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "splitRatio must be between 0 and 1") {
		t.Fatalf("missing splitRatio error: %q", stderr)
	}
}

func TestCheckRequiresPath(t *testing.T) {
	if _, _, err := runCLI(t, "check"); err == nil {
		t.Fatalf("expected error without --config")
	}
}

func TestQueryNodesPrintsLines(t *testing.T) {
	path, seen := serveOnce(t, control.Response{Status: control.StatusOK, Data: []string{"0x00C00001", "0x00C00002"}})
	stdout, _, err := runCLI(t, "--socket", path, "query", "nodes", "-d", "focused", "-n", ".leaf")
	if err != nil {
		t.Fatalf("query nodes: %v", err)
	}
	if stdout != "0x00C00001\n0x00C00002\n" {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	req := <-seen
	if req.Action != control.ActionQueryNodes {
		t.Fatalf("unexpected action %q", req.Action)
	}
	if req.Params["desktop"] != "focused" || req.Params["node"] != ".leaf" {
		t.Fatalf("unexpected params %+v", req.Params)
	}
}

func TestFocusPrintsCoordinate(t *testing.T) {
	ids := state.CoordinateIDs{MonitorID: 0x00200005, DesktopID: 0x00200006, NodeID: 0x00C00005}
	path, seen := serveOnce(t, control.Response{Status: control.StatusOK, Data: ids})
	stdout, _, err := runCLI(t, "--socket", path, "focus", "node", "0x00C00005")
	if err != nil {
		t.Fatalf("focus: %v", err)
	}
	want := "monitor=0x00200005 desktop=0x00200006 node=0x00C00005\n"
	if stdout != want {
		t.Fatalf("unexpected stdout: got %q want %q", stdout, want)
	}
	if req := <-seen; req.Action != control.ActionNodeFocus {
		t.Fatalf("unexpected action %q", req.Action)
	}
}

func TestRuleApplyPrintsConsequence(t *testing.T) {
	out := rules.Outcome{
		Subject:     rules.Subject{Class: "Gimp", Instance: "gimp"},
		Matched:     []string{"gimp"},
		Consequence: rules.NewConsequence(),
	}
	path, _ := serveOnce(t, control.Response{Status: control.StatusOK, Data: out})
	stdout, stderr, err := runCLI(t, "--socket", path, "rule", "apply", "Gimp", "gimp")
	if err != nil {
		t.Fatalf("rule apply: %v", err)
	}
	if strings.TrimSpace(stdout) != out.Consequence.String() {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if !strings.Contains(stderr, "matched: gimp") {
		t.Fatalf("expected matched rules on stderr, got %q", stderr)
	}
}

func TestServerErrorIsReturned(t *testing.T) {
	path, _ := serveOnce(t, control.Response{Status: control.StatusError, Error: "unknown rule \"nope\""})
	_, _, err := runCLI(t, "--socket", path, "rule", "remove", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown rule") {
		t.Fatalf("expected server error, got %v", err)
	}
}
