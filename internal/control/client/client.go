package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rotkonetworks/bspwm/internal/control"
	"github.com/rotkonetworks/bspwm/internal/metrics"
	"github.com/rotkonetworks/bspwm/internal/query"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/state"
)

const (
	// defaultTimeout is used when the caller does not provide a context deadline.
	defaultTimeout = 3 * time.Second
)

// Client talks to the running daemon over its control socket.
type Client struct {
	socketPath string
}

type (
	// Scope narrows query listings.
	Scope = query.Scope
	// CoordinateIDs is a resolved or focused coordinate.
	CoordinateIDs = state.CoordinateIDs
	// Snapshot is the daemon's full state dump.
	Snapshot = state.Snapshot
	// RuleOutcome reports how the rules decided for one window.
	RuleOutcome = rules.Outcome
	// MetricsSnapshot mirrors the daemon's telemetry counters.
	MetricsSnapshot = metrics.Snapshot
	// InspectorState captures the daemon's inspector payload.
	InspectorState = control.InspectorSnapshot
)

// New creates a client that connects to the provided socket path. When path is
// empty, the default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// Nodes lists node ids within sc.
func (c *Client) Nodes(ctx context.Context, sc Scope) ([]string, error) {
	var ids []string
	err := c.do(ctx, control.Request{Action: control.ActionQueryNodes, Params: control.ScopeParams(sc)}, &ids)
	return ids, err
}

// Desktops lists desktops within sc, by name when names is set.
func (c *Client) Desktops(ctx context.Context, sc Scope, names bool) ([]string, error) {
	params := control.ScopeParams(sc)
	params["names"] = names
	var out []string
	err := c.do(ctx, control.Request{Action: control.ActionQueryDesktops, Params: params}, &out)
	return out, err
}

// Monitors lists monitors within sc, by name when names is set.
func (c *Client) Monitors(ctx context.Context, sc Scope, names bool) ([]string, error) {
	params := control.ScopeParams(sc)
	params["names"] = names
	var out []string
	err := c.do(ctx, control.Request{Action: control.ActionQueryMonitors, Params: params}, &out)
	return out, err
}

// Tree returns the JSON tree of the kind object designated by sc.
func (c *Client) Tree(ctx context.Context, kind string, sc Scope) (json.RawMessage, error) {
	params := control.ScopeParams(sc)
	params["kind"] = kind
	var raw json.RawMessage
	err := c.do(ctx, control.Request{Action: control.ActionQueryTree, Params: params}, &raw)
	return raw, err
}

// State retrieves the full state dump.
func (c *Client) State(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, control.Request{Action: control.ActionQueryState}, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Resolve resolves a kind descriptor relative to the daemon's focus.
func (c *Client) Resolve(ctx context.Context, kind, desc string) (CoordinateIDs, error) {
	params := map[string]any{"kind": kind, "descriptor": desc}
	var ids CoordinateIDs
	err := c.do(ctx, control.Request{Action: control.ActionResolve, Params: params}, &ids)
	return ids, err
}

// Focus focuses the kind object desc designates and returns the new focus.
func (c *Client) Focus(ctx context.Context, kind, desc string) (CoordinateIDs, error) {
	if desc == "" {
		return CoordinateIDs{}, errors.New("descriptor cannot be empty")
	}
	var action string
	switch kind {
	case "node":
		action = control.ActionNodeFocus
	case "desktop":
		action = control.ActionDesktopFocus
	case "monitor":
		action = control.ActionMonitorFocus
	default:
		return CoordinateIDs{}, fmt.Errorf("unknown kind %q", kind)
	}
	var ids CoordinateIDs
	err := c.do(ctx, control.Request{Action: action, Params: map[string]any{"descriptor": desc}}, &ids)
	return ids, err
}

// ApplyRules asks the daemon how its rules place a window of class and instance.
func (c *Client) ApplyRules(ctx context.Context, class, instance string, explain bool) (RuleOutcome, error) {
	params := map[string]any{"class": class, "instance": instance, "explain": explain}
	var out RuleOutcome
	if err := c.do(ctx, control.Request{Action: control.ActionRuleApply, Params: params}, &out); err != nil {
		return RuleOutcome{}, err
	}
	return out, nil
}

// Rules lists the daemon's active rules in evaluation order.
func (c *Client) Rules(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, control.Request{Action: control.ActionRuleList}, &names)
	return names, err
}

// RemoveRule drops every rule called name.
func (c *Client) RemoveRule(ctx context.Context, name string) (int, error) {
	if name == "" {
		return 0, errors.New("rule name cannot be empty")
	}
	var out control.RuleRemoval
	err := c.do(ctx, control.Request{Action: control.ActionRuleRemove, Params: map[string]any{"name": name}}, &out)
	return out.Removed, err
}

// Reload asks the daemon to reload its configuration and state file.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionReload}, nil)
}

// Metrics retrieves the daemon's telemetry counters.
func (c *Client) Metrics(ctx context.Context) (MetricsSnapshot, error) {
	var snap MetricsSnapshot
	if err := c.do(ctx, control.Request{Action: control.ActionMetricsGet}, &snap); err != nil {
		return MetricsSnapshot{}, err
	}
	return snap, nil
}

// Inspect retrieves the daemon's focus, rules and recent command log.
func (c *Client) Inspect(ctx context.Context) (InspectorState, error) {
	var snapshot InspectorState
	if err := c.do(ctx, control.Request{Action: control.ActionInspect}, &snapshot); err != nil {
		return InspectorState{}, err
	}
	return snapshot, nil
}

func (c *Client) do(ctx context.Context, req control.Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp struct {
		Status string          `json:"status"`
		Error  string          `json:"error"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			resp.Error = "unknown control error"
		}
		return errors.New(resp.Error)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
