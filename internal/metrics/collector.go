package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates opt-in counters for descriptor resolutions and rule matches.
type Collector struct {
	mu          sync.RWMutex
	enabled     bool
	started     time.Time
	resolutions map[string]*ResolutionMetrics
	rules       map[string]*RuleMetrics
}

// ResolutionMetrics counts resolutions of one kind that ended with one result.
type ResolutionMetrics struct {
	Kind   string    `json:"kind"`
	Result string    `json:"result"`
	Count  uint64    `json:"count"`
	Last   time.Time `json:"last,omitempty"`
}

// RuleMetrics captures per-rule counters.
type RuleMetrics struct {
	Rule        string    `json:"rule"`
	Matched     uint64    `json:"matched"`
	LastMatched time.Time `json:"lastMatched,omitempty"`
}

// Totals aggregates counters across a snapshot. Failures counts every
// resolution whose result was not "ok".
type Totals struct {
	Resolutions uint64 `json:"resolutions"`
	Failures    uint64 `json:"failures"`
	RuleMatches uint64 `json:"ruleMatches"`
}

// Snapshot is the serializable view of the current metrics state.
type Snapshot struct {
	Enabled     bool                `json:"enabled"`
	Started     time.Time           `json:"started,omitempty"`
	Totals      Totals              `json:"totals"`
	Resolutions []ResolutionMetrics `json:"resolutions,omitempty"`
	Rules       []RuleMetrics       `json:"rules,omitempty"`
}

// NewCollector returns a collector with the provided opt-in state.
func NewCollector(enabled bool) *Collector {
	c := &Collector{}
	c.SetEnabled(enabled)
	return c
}

// Enabled reports whether collection is currently active.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection, resetting counters when enabling.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if !enabled {
		c.resolutions = nil
		c.rules = nil
		c.started = time.Time{}
		return
	}
	c.started = time.Now()
	c.resolutions = make(map[string]*ResolutionMetrics)
	c.rules = make(map[string]*RuleMetrics)
}

// RecordResolution counts one resolution of kind ending with result.
func (c *Collector) RecordResolution(kind, result string) {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.resolutions == nil {
		c.resolutions = make(map[string]*ResolutionMetrics)
	}
	key := kind + ":" + result
	m, ok := c.resolutions[key]
	if !ok {
		m = &ResolutionMetrics{Kind: kind, Result: result}
		c.resolutions[key] = m
	}
	m.Count++
	m.Last = now
}

// RecordRuleMatch increments the matched counter for a rule.
func (c *Collector) RecordRuleMatch(rule string) {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.rules == nil {
		c.rules = make(map[string]*RuleMetrics)
	}
	m, ok := c.rules[rule]
	if !ok {
		m = &RuleMetrics{Rule: rule}
		c.rules[rule] = m
	}
	m.Matched++
	m.LastMatched = now
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Enabled: c.enabled}
	if !c.enabled {
		return snap
	}
	snap.Started = c.started
	for _, m := range c.resolutions {
		snap.Resolutions = append(snap.Resolutions, *m)
		snap.Totals.Resolutions += m.Count
		if m.Result != "ok" {
			snap.Totals.Failures += m.Count
		}
	}
	for _, m := range c.rules {
		snap.Rules = append(snap.Rules, *m)
		snap.Totals.RuleMatches += m.Matched
	}
	sort.Slice(snap.Resolutions, func(i, j int) bool {
		a, b := snap.Resolutions[i], snap.Resolutions[j]
		if a.Kind == b.Kind {
			return a.Result < b.Result
		}
		return a.Kind < b.Kind
	})
	sort.Slice(snap.Rules, func(i, j int) bool {
		return snap.Rules[i].Rule < snap.Rules[j].Rule
	})
	return snap
}
