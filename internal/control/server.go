package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotkonetworks/bspwm/internal/engine"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/util"
)

// Server hosts the control socket and serves requests.
type Server struct {
	engine     *engine.Engine
	logger     *util.Logger
	reload     func(reason string) error
	socketPath string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a control server listening on socketPath, or on
// DefaultSocketPath when socketPath is empty.
func NewServer(eng *engine.Engine, logger *util.Logger, reload func(reason string) error, socketPath string) (*Server, error) {
	if socketPath == "" {
		path, err := DefaultSocketPath()
		if err != nil {
			return nil, err
		}
		socketPath = path
	}
	return &Server{
		engine:     eng,
		logger:     logger,
		reload:     reload,
		socketPath: socketPath,
	}, nil
}

// SocketPath reports where the server listens.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve listens on the control socket until the context is cancelled. Requests
// are handled concurrently; the engine runs them one at a time.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	s.logger.Infof("control server listening on %s", s.socketPath)
	defer s.cleanup()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
			return
		}
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			s.logger.Errorf("control accept error: %v", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod control socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("remove control socket: %v", err)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.writeError(conn, fmt.Errorf("decode request: %w", err))
		return
	}
	s.logger.Debugf("control request %s %v", req.Action, req.Params)
	data, err := s.dispatch(req)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, data)
}

func (s *Server) dispatch(req Request) (any, error) {
	params := req.Params
	switch req.Action {
	case ActionQueryNodes:
		return s.engine.QueryNodes(scopeFrom(params))
	case ActionQueryDesktops:
		names, _ := params["names"].(bool)
		return s.engine.QueryDesktops(scopeFrom(params), names)
	case ActionQueryMonitors:
		names, _ := params["names"].(bool)
		return s.engine.QueryMonitors(scopeFrom(params), names)
	case ActionQueryTree:
		kindName, _ := params["kind"].(string)
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		return s.engine.QueryTree(kind, scopeFrom(params))
	case ActionQueryState:
		return s.engine.State(), nil
	case ActionResolve:
		kindName, _ := params["kind"].(string)
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		desc, err := requireString(params, "descriptor")
		if err != nil {
			return nil, err
		}
		return s.engine.Resolve(kind, desc)
	case ActionNodeFocus, ActionDesktopFocus, ActionMonitorFocus:
		return s.handleFocus(req.Action, params)
	case ActionRuleApply:
		class, _ := params["class"].(string)
		instance, _ := params["instance"].(string)
		if class == "" && instance == "" {
			return nil, errors.New("class or instance is required")
		}
		explain, _ := params["explain"].(bool)
		return s.engine.ApplyRules(rules.Subject{Class: class, Instance: instance}, explain), nil
	case ActionRuleList:
		return s.engine.Rules(), nil
	case ActionRuleRemove:
		name, err := requireString(params, "name")
		if err != nil {
			return nil, err
		}
		n := s.engine.RemoveRule(name)
		if n == 0 {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		return RuleRemoval{Removed: n}, nil
	case ActionReload:
		if s.reload == nil {
			return nil, errors.New("reload not supported")
		}
		return nil, s.reload("control request")
	case ActionMetricsGet:
		return s.engine.Metrics(), nil
	case ActionInspect:
		return InspectorSnapshot{
			Focus:    s.engine.Focus(),
			Rules:    s.engine.Rules(),
			Commands: s.engine.CommandLog(),
		}, nil
	}
	return nil, fmt.Errorf("unknown action %q", req.Action)
}

func (s *Server) handleFocus(action string, params map[string]any) (any, error) {
	desc, err := requireString(params, "descriptor")
	if err != nil {
		return nil, err
	}
	switch action {
	case ActionDesktopFocus:
		return s.engine.FocusDesktop(desc)
	case ActionMonitorFocus:
		return s.engine.FocusMonitor(desc)
	}
	return s.engine.FocusNode(desc)
}

func requireString(params map[string]any, key string) (string, error) {
	v, _ := params[key].(string)
	if v == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return v, nil
}

func (s *Server) writeOK(conn net.Conn, data any) {
	resp := Response{Status: StatusOK}
	if data != nil {
		resp.Data = data
	}
	_ = json.NewEncoder(conn).Encode(resp)
}

func (s *Server) writeError(conn net.Conn, err error) {
	resp := Response{Status: StatusError}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(conn).Encode(resp)
}
