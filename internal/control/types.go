package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/query"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
)

const (
	// SocketFileName is the filename of the control socket within the runtime dir.
	SocketFileName = "control.sock"

	// SocketEnv overrides the default socket location.
	SocketEnv = "BSPWM_SOCKET"

	// Action names supported by the control protocol.
	ActionQueryNodes    = "query.nodes"
	ActionQueryDesktops = "query.desktops"
	ActionQueryMonitors = "query.monitors"
	ActionQueryTree     = "query.tree"
	ActionQueryState    = "query.state"
	ActionResolve       = "resolve"
	ActionNodeFocus     = "node.focus"
	ActionDesktopFocus  = "desktop.focus"
	ActionMonitorFocus  = "monitor.focus"
	ActionRuleApply     = "rule.apply"
	ActionRuleList      = "rule.list"
	ActionRuleRemove    = "rule.remove"
	ActionReload        = "reload"
	ActionMetricsGet    = "metrics.get"
	ActionInspect       = "inspect"

	// Response statuses.
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// RuleRemoval reports how many rules a rule.remove request dropped.
type RuleRemoval struct {
	Removed int `json:"removed"`
}

// InspectorSnapshot bundles the daemon's focus, active rules and recent commands.
type InspectorSnapshot struct {
	Focus    state.CoordinateIDs    `json:"focus"`
	Rules    []string               `json:"rules"`
	Commands []engine.CommandRecord `json:"commands,omitempty"`
}

// ScopeParams renders a query scope as request parameters.
func ScopeParams(sc query.Scope) map[string]any {
	params := map[string]any{}
	if sc.Monitor != "" {
		params["monitor"] = sc.Monitor
	}
	if sc.Desktop != "" {
		params["desktop"] = sc.Desktop
	}
	if sc.Node != "" {
		params["node"] = sc.Node
	}
	return params
}

func scopeFrom(params map[string]any) query.Scope {
	m, _ := params["monitor"].(string)
	d, _ := params["desktop"].(string)
	n, _ := params["node"].(string)
	return query.Scope{Monitor: m, Desktop: d, Node: n}
}

// ParseKind converts "monitor", "desktop" or "node".
func ParseKind(s string) (selector.Kind, error) {
	switch s {
	case "monitor":
		return selector.KindMonitor, nil
	case "desktop":
		return selector.KindDesktop, nil
	case "node":
		return selector.KindNode, nil
	}
	return selector.KindNode, fmt.Errorf("unknown kind %q", s)
}

// DefaultSocketPath returns the expected location of the daemon's control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv(SocketEnv); env != "" {
		return env, nil
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "bspwmd", SocketFileName), nil
}
