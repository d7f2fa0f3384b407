// Package engine owns the window hierarchy and its focus history and runs every
// command against them one at a time.
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/history"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/metrics"
	"github.com/rotkonetworks/bspwm/internal/query"
	"github.com/rotkonetworks/bspwm/internal/rules"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/util"
)

// Engine serialises commands over one world. Coordinates never escape a command;
// results are returned as ids, names or detached trees.
type Engine struct {
	logger  *util.Logger
	metrics *metrics.Collector
	pointer selector.Pointer

	mu        sync.Mutex
	world     *state.World
	history   *history.History
	tightness layout.Tightness
	rules     *rules.Set
	cmdLog    *commandLog
}

// New creates an engine over world, seeding the focus history with hist (oldest
// first). pointer and collector may be nil.
func New(logger *util.Logger, world *state.World, hist []state.Coordinates, pointer selector.Pointer, collector *metrics.Collector) *Engine {
	if world == nil {
		world = &state.World{}
	}
	if logger == nil {
		logger = util.NewLoggerWithWriter(util.LevelError, io.Discard)
	}
	return &Engine{
		logger:  logger,
		metrics: collector,
		pointer: pointer,
		world:   world,
		history: history.New(hist),
		rules:   rules.NewSet(nil),
		cmdLog:  newCommandLog(0),
	}
}

// Configure installs the rules and directional focus tightness of cfg and applies
// its telemetry opt-in. The previous rules stay active when cfg fails to compile.
func (e *Engine) Configure(cfg *config.Config) error {
	compiled, err := rules.Build(cfg)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.rules = rules.NewSet(compiled)
	e.tightness = cfg.Tightness()
	e.mu.Unlock()
	e.metrics.SetEnabled(cfg.Telemetry.Enabled)
	e.logger.Infof("loaded %d rules (tightness %s)", len(compiled), cfg.Tightness())
	return nil
}

// resolver must be called with e.mu held.
func (e *Engine) resolver() *selector.Resolver {
	r := selector.NewResolver(e.world, e.history, e.pointer, e.tightness)
	if e.metrics.Enabled() {
		r.Observe(func(kind selector.Kind, res selector.Result) {
			e.metrics.RecordResolution(kind.String(), res.String())
		})
	}
	return r
}

func (e *Engine) querier() *query.Querier {
	return query.New(e.world, e.resolver())
}

// finish records a completed command and passes err through.
func (e *Engine) finish(command string, args []string, err error) error {
	rec := CommandRecord{
		Timestamp: time.Now(),
		Command:   command,
		Args:      args,
		Status:    CommandStatusOK,
	}
	if err != nil {
		rec.Status = CommandStatusError
		rec.Error = err.Error()
		e.logger.Debugf("%s failed: %v", command, err)
	}
	e.cmdLog.record(rec)
	e.trace("command.done", map[string]any{
		"command": command,
		"args":    args,
		"status":  rec.Status,
	})
	return err
}

func scopeArgs(sc query.Scope) []string {
	var args []string
	if sc.Monitor != "" {
		args = append(args, "-m", sc.Monitor)
	}
	if sc.Desktop != "" {
		args = append(args, "-d", sc.Desktop)
	}
	if sc.Node != "" {
		args = append(args, "-n", sc.Node)
	}
	return args
}

type listFunc func(*query.Querier, query.Scope) ([]state.Coordinates, error)

func (e *Engine) list(command string, kind selector.Kind, sc query.Scope, names bool, fn listFunc) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	locs, err := fn(e.querier(), sc)
	if err != nil {
		return nil, e.finish(command, scopeArgs(sc), err)
	}
	e.finish(command, scopeArgs(sc), nil)
	if names {
		return query.Names(kind, locs), nil
	}
	return query.IDs(kind, locs), nil
}

// QueryNodes lists the ids of the nodes within sc.
func (e *Engine) QueryNodes(sc query.Scope) ([]string, error) {
	return e.list("query.nodes", selector.KindNode, sc, false, (*query.Querier).Nodes)
}

// QueryDesktops lists the desktops within sc, by name when names is set.
func (e *Engine) QueryDesktops(sc query.Scope, names bool) ([]string, error) {
	return e.list("query.desktops", selector.KindDesktop, sc, names, (*query.Querier).Desktops)
}

// QueryMonitors lists the monitors within sc, by name when names is set.
func (e *Engine) QueryMonitors(sc query.Scope, names bool) ([]string, error) {
	return e.list("query.monitors", selector.KindMonitor, sc, names, (*query.Querier).Monitors)
}

// QueryTree returns the tree of the kind object designated by sc.
func (e *Engine) QueryTree(kind selector.Kind, sc query.Scope) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tree, err := e.querier().Tree(kind, sc)
	return tree, e.finish("query.tree", append([]string{kind.String()}, scopeArgs(sc)...), err)
}

// Resolve resolves desc as a kind descriptor relative to the focus.
func (e *Engine) Resolve(kind selector.Kind, desc string) (state.CoordinateIDs, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	loc, err := e.resolve(kind, desc)
	if err != nil {
		return state.CoordinateIDs{}, e.finish("resolve", []string{kind.String(), desc}, err)
	}
	e.finish("resolve", []string{kind.String(), desc}, nil)
	return state.IDsOf(loc), nil
}

func (e *Engine) resolve(kind selector.Kind, desc string) (state.Coordinates, error) {
	r := e.resolver()
	ref := e.world.Focus()
	var (
		loc state.Coordinates
		res selector.Result
	)
	switch kind {
	case selector.KindMonitor:
		loc, res = r.Monitor(desc, ref)
	case selector.KindDesktop:
		loc, res = r.Desktop(desc, ref)
	default:
		loc, res = r.Node(desc, ref)
	}
	return loc, res.Describe(kind, desc)
}

// FocusNode moves the global focus to the node desc designates and records it in
// the focus history.
func (e *Engine) FocusNode(desc string) (state.CoordinateIDs, error) {
	return e.focusCommand("node.focus", selector.KindNode, desc)
}

// FocusDesktop activates the desktop desc designates on its monitor and focuses
// that monitor.
func (e *Engine) FocusDesktop(desc string) (state.CoordinateIDs, error) {
	return e.focusCommand("desktop.focus", selector.KindDesktop, desc)
}

// FocusMonitor focuses the monitor desc designates.
func (e *Engine) FocusMonitor(desc string) (state.CoordinateIDs, error) {
	return e.focusCommand("monitor.focus", selector.KindMonitor, desc)
}

func (e *Engine) focusCommand(command string, kind selector.Kind, desc string) (state.CoordinateIDs, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	args := []string{desc}
	loc, err := e.resolve(kind, desc)
	if err == nil && kind == selector.KindNode && loc.Node == nil {
		err = fmt.Errorf("node descriptor %q: %w", desc, selector.ErrInvalid)
	}
	if err != nil {
		return state.CoordinateIDs{}, e.finish(command, args, err)
	}
	switch kind {
	case selector.KindMonitor:
		loc.Desktop, loc.Node = nil, nil
	case selector.KindDesktop:
		loc.Node = nil
	}
	cur := e.focus(loc)
	e.logger.Debugf("%s %s -> %s", command, desc, selector.FormatID(focusID(cur)))
	e.finish(command, args, nil)
	return state.IDsOf(cur), nil
}

// focus makes loc the global focus. A coordinate without a node keeps the
// desktop's focused node; one without a desktop keeps the monitor's active desktop.
func (e *Engine) focus(loc state.Coordinates) state.Coordinates {
	if loc.Desktop != nil {
		if loc.Node != nil {
			loc.Desktop.Focus = loc.Node
		}
		loc.Monitor.Active = loc.Desktop
	}
	e.world.Focused = loc.Monitor
	cur := e.world.Focus()
	e.history.Add(cur)
	return cur
}

func focusID(c state.Coordinates) uint32 {
	switch {
	case c.Node != nil:
		return c.Node.ID
	case c.Desktop != nil:
		return c.Desktop.ID
	case c.Monitor != nil:
		return c.Monitor.ID
	}
	return 0
}

// LoadState replaces the world and focus history with a JSON snapshot. The current
// state is kept when the snapshot cannot be decoded.
func (e *Engine) LoadState(r io.Reader) error {
	world, hist, err := state.DecodeSnapshot(r)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.world = world
	e.history = history.New(hist)
	e.mu.Unlock()
	e.logger.Infof("loaded state: %d monitors, %d clients, %d history entries", len(world.Monitors), world.ClientsCount(), len(hist))
	return nil
}

// SaveState writes the world and focus history as a JSON snapshot.
func (e *Engine) SaveState(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return state.EncodeSnapshot(w, e.world, e.history.Entries())
}

// Focus returns the ids of the global focus.
func (e *Engine) Focus() state.CoordinateIDs {
	e.mu.Lock()
	defer e.mu.Unlock()
	return state.IDsOf(e.world.Focus())
}

// State returns a detached snapshot of the world and focus history.
func (e *Engine) State() state.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Snapshot(e.history.Entries())
}

// ApplyRules runs the rule set for a new window of subj, freezing the outcome
// against the current focus. One-shot rules that match are consumed.
func (e *Engine) ApplyRules(subj rules.Subject, explain bool) rules.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.rules.Apply(subj, e.resolver(), e.world.Focus(), explain)
	for _, name := range out.Matched {
		e.metrics.RecordRuleMatch(name)
	}
	e.finish("rule.apply", []string{subj.Class, subj.Instance}, nil)
	e.trace("rule.outcome", map[string]any{
		"subject":     subj,
		"matched":     out.Matched,
		"consequence": out.Consequence.String(),
	})
	return out
}

// Rules lists the active rules in evaluation order.
func (e *Engine) Rules() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules.Names()
}

// RemoveRule drops every rule called name and reports how many were removed.
func (e *Engine) RemoveRule(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.rules.Remove(name)
	var err error
	if n == 0 {
		err = fmt.Errorf("unknown rule %q", name)
	}
	e.finish("rule.remove", []string{name}, err)
	return n
}

// Metrics returns the current telemetry counters.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// CommandLog returns the most recent commands, oldest first.
func (e *Engine) CommandLog() []CommandRecord {
	return e.cmdLog.snapshot()
}

func (e *Engine) trace(event string, fields map[string]any) {
	if e.logger == nil || e.logger.Level() > util.LevelTrace {
		return
	}
	e.logger.Tracef("%s %s", event, formatTraceFields(fields))
}

func formatTraceFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		val, err := json.Marshal(fields[k])
		if err != nil {
			b.WriteString(strconv.Quote(fmt.Sprintf("<marshal error: %v>", err)))
			continue
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}
