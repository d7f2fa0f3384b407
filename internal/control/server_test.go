package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/state/statetest"
	"github.com/rotkonetworks/bspwm/internal/util"
)

func newTestServer(t *testing.T, reload func(string) error) *Server {
	t.Helper()
	f := statetest.New()
	logger := util.NewLoggerWithWriter(util.LevelError, io.Discard)
	eng := engine.New(logger, f.World, f.History, nil, nil)
	srv, err := NewServer(eng, logger, reload, filepath.Join(t.TempDir(), "control.sock"))
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv
}

func roundTrip(t *testing.T, path string, req Request) Response {
	t.Helper()
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never came up", path)
}

func TestServeAnswersRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	reasons := []string{}
	srv := newTestServer(t, func(reason string) error {
		mu.Lock()
		defer mu.Unlock()
		reasons = append(reasons, reason)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	waitForSocket(t, srv.SocketPath())

	resp := roundTrip(t, srv.SocketPath(), Request{Action: ActionQueryNodes, Params: map[string]any{"desktop": "focused", "node": ".leaf"}})
	if resp.Status != StatusOK {
		t.Fatalf("query failed: %s", resp.Error)
	}
	if diff := cmp.Diff([]any{"0x00C00001", "0x00C00002", "0x00C00003"}, resp.Data); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	resp = roundTrip(t, srv.SocketPath(), Request{Action: ActionNodeFocus, Params: map[string]any{"descriptor": "east"}})
	if resp.Status != StatusOK {
		t.Fatalf("focus failed: %s", resp.Error)
	}
	resp = roundTrip(t, srv.SocketPath(), Request{Action: ActionQueryNodes, Params: map[string]any{"node": "focused"}})
	if diff := cmp.Diff([]any{"0x00C00002"}, resp.Data); diff != "" {
		t.Fatalf("focus not applied (-want +got):\n%s", diff)
	}

	resp = roundTrip(t, srv.SocketPath(), Request{Action: ActionReload})
	if resp.Status != StatusOK {
		t.Fatalf("reload failed: %s", resp.Error)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not stop")
	}
	if _, err := os.Stat(srv.SocketPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket not removed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"control request"}, reasons); diff != "" {
		t.Fatalf("reload reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Action: "bogus"}, `unknown action "bogus"`},
		{Request{Action: ActionResolve, Params: map[string]any{"kind": "monitor", "descriptor": "west"}}, "no matching object"},
		{Request{Action: ActionResolve, Params: map[string]any{"kind": "window", "descriptor": "focused"}}, `unknown kind "window"`},
		{Request{Action: ActionNodeFocus}, "missing descriptor"},
		{Request{Action: ActionQueryNodes, Params: map[string]any{"node": ".bogus"}}, "invalid modifiers"},
		{Request{Action: ActionRuleRemove, Params: map[string]any{"name": "nope"}}, `unknown rule "nope"`},
		{Request{Action: ActionRuleApply}, "class or instance is required"},
		{Request{Action: ActionReload}, "reload not supported"},
	}
	for _, tc := range tests {
		_, err := srv.dispatch(tc.req)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("dispatch(%s) error = %v, want %q", tc.req.Action, err, tc.want)
		}
	}
}

func TestDispatchResults(t *testing.T) {
	srv := newTestServer(t, nil)

	data, err := srv.dispatch(Request{Action: ActionDesktopFocus, Params: map[string]any{"descriptor": "web"}})
	if err != nil {
		t.Fatalf("desktop focus: %v", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"monitorId":2097157,"desktopId":2097158,"nodeId":12582917}`; string(raw) != want {
		t.Fatalf("focus payload = %s, want %s", raw, want)
	}

	data, err = srv.dispatch(Request{Action: ActionInspect})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	snap, ok := data.(InspectorSnapshot)
	if !ok {
		t.Fatalf("unexpected inspect payload %T", data)
	}
	if snap.Focus.DesktopID != statetest.IDWeb || len(snap.Commands) != 1 || snap.Commands[0].Command != ActionDesktopFocus {
		t.Fatalf("unexpected inspector snapshot %#v", snap)
	}
}

func TestHandleRejectsMalformedRequest(t *testing.T) {
	srv := newTestServer(t, nil)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := clientConn.Write([]byte("not json\n")); err != nil {
			t.Errorf("write request: %v", err)
			return
		}
		var resp Response
		if err := json.NewDecoder(clientConn).Decode(&resp); err != nil {
			t.Errorf("decode response: %v", err)
			return
		}
		if resp.Status != StatusError || !strings.Contains(resp.Error, "decode request") {
			t.Errorf("unexpected response %#v", resp)
		}
	}()

	srv.handle(serverConn)
	wg.Wait()
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"monitor", "desktop", "node"} {
		kind, err := ParseKind(name)
		if err != nil || kind.String() != name {
			t.Fatalf("ParseKind(%q) = %v, %v", name, kind, err)
		}
	}
	if _, err := ParseKind("Node"); err == nil {
		t.Fatalf("expected error for capitalised kind")
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Setenv(SocketEnv, "/run/custom.sock")
	if got, err := DefaultSocketPath(); err != nil || got != "/run/custom.sock" {
		t.Fatalf("DefaultSocketPath = %q, %v", got, err)
	}
	t.Setenv(SocketEnv, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got, err := DefaultSocketPath(); err != nil || got != "/run/user/1000/bspwmd/control.sock" {
		t.Fatalf("DefaultSocketPath = %q, %v", got, err)
	}
}
