package rules

import (
	"fmt"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// Rule represents a compiled rule ready for evaluation.
type Rule struct {
	Name    string
	Match   Matcher
	Tracer  *MatchTracer
	Effect  Effect
	OneShot bool
}

// Build compiles the configured rules, keeping their order.
func Build(cfg *config.Config) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		match, tracer, err := BuildMatcher(rc.Match, cfg.Profiles)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rc.Name, err)
		}
		effect, err := buildEffect(rc)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rc.Name, err)
		}
		rules = append(rules, Rule{
			Name:    rc.Name,
			Match:   match,
			Tracer:  tracer,
			Effect:  effect,
			OneShot: rc.OneShot,
		})
	}
	return rules, nil
}

func buildEffect(rc config.RuleConfig) (Effect, error) {
	e := Effect{
		Monitor:    rc.Monitor,
		Desktop:    rc.Desktop,
		Node:       rc.Node,
		SplitRatio: rc.SplitRatio,
		Hidden:     rc.Hidden,
		Sticky:     rc.Sticky,
		Private:    rc.Private,
		Locked:     rc.Locked,
		Marked:     rc.Marked,
		Center:     rc.Center,
		Follow:     rc.Follow,
		Manage:     rc.Manage,
		Focus:      rc.Focus,
		Border:     rc.Border,
	}
	if rc.State != "" {
		v, ok := state.ParseClientState(rc.State)
		if !ok {
			return e, fmt.Errorf("unknown state %q", rc.State)
		}
		e.State = &v
	}
	if rc.Layer != "" {
		v, ok := state.ParseStackLayer(rc.Layer)
		if !ok {
			return e, fmt.Errorf("unknown layer %q", rc.Layer)
		}
		e.Layer = &v
	}
	if rc.SplitDir != "" {
		v, ok := layout.ParseDirection(rc.SplitDir)
		if !ok {
			return e, fmt.Errorf("unknown splitDir %q", rc.SplitDir)
		}
		e.SplitDir = &v
	}
	return e, nil
}

// Set is the ordered list of active rules. It is not safe for concurrent use.
type Set struct {
	rules []Rule
}

// NewSet wraps compiled rules.
func NewSet(rules []Rule) *Set {
	return &Set{rules: append([]Rule(nil), rules...)}
}

// Names lists the rules in evaluation order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		names = append(names, r.Name)
	}
	return names
}

func (s *Set) Len() int {
	return len(s.rules)
}

// Remove drops every rule called name and reports how many were removed.
func (s *Set) Remove(name string) int {
	kept := s.rules[:0]
	removed := 0
	for _, r := range s.rules {
		if r.Name == name {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept
	return removed
}

// Outcome reports how the rules decided for one window.
type Outcome struct {
	Subject     Subject                `json:"subject"`
	Matched     []string               `json:"matched"`
	Consequence Consequence            `json:"consequence"`
	Traces      map[string]*MatchTrace `json:"traces,omitempty"`
}

// Apply merges the effects of every rule matching subj, in order, and freezes the
// resulting descriptors against focus. Matched one-shot rules are removed. With
// explain set, the outcome carries the match trace of every rule.
func (s *Set) Apply(subj Subject, r Resolver, focus state.Coordinates, explain bool) Outcome {
	out := Outcome{Subject: subj, Matched: []string{}, Consequence: NewConsequence()}
	if explain {
		out.Traces = make(map[string]*MatchTrace, len(s.rules))
	}
	kept := s.rules[:0]
	for _, rule := range s.rules {
		var matched bool
		if explain {
			var tr *MatchTrace
			matched, tr = rule.Tracer.Trace(subj)
			out.Traces[rule.Name] = tr
		} else {
			matched = rule.Match(subj)
		}
		if matched {
			out.Matched = append(out.Matched, rule.Name)
			rule.Effect.applyTo(&out.Consequence)
			if rule.OneShot {
				continue
			}
		}
		kept = append(kept, rule)
	}
	s.rules = kept
	out.Consequence.Resolve(r, focus)
	return out
}
