package rules

import (
	"fmt"
	"strings"

	"github.com/rotkonetworks/bspwm/internal/config"
)

// Subject is the window a rule is evaluated for, named by its WM_CLASS pair.
type Subject struct {
	Class    string `json:"className"`
	Instance string `json:"instanceName"`
}

// Matcher reports whether a rule applies to a window.
type Matcher func(Subject) bool

// MatchTrace captures how each criterion of a matcher decided.
type MatchTrace struct {
	Kind     string         `json:"kind"`
	Result   bool           `json:"result"`
	Details  map[string]any `json:"details,omitempty"`
	Children []*MatchTrace  `json:"children,omitempty"`
}

type traceNode interface {
	trace(s Subject) (bool, *MatchTrace)
}

// MatchTracer evaluates a matcher while recording every criterion.
type MatchTracer struct {
	root traceNode
}

// Trace runs the matcher and returns its verdict with the trace.
func (t *MatchTracer) Trace(s Subject) (bool, *MatchTrace) {
	if t == nil || t.root == nil {
		return true, &MatchTrace{Kind: "match", Result: true}
	}
	return t.root.trace(s)
}

// BuildMatcher compiles a match block, expanding a profile reference.
func BuildMatcher(mc config.MatchConfig, profiles config.MatcherProfiles) (Matcher, *MatchTracer, error) {
	criteria := mc.MatcherConfig
	if mc.Profile != "" {
		profile, ok := profiles[mc.Profile]
		if !ok {
			return nil, nil, fmt.Errorf("unknown match profile %q", mc.Profile)
		}
		criteria = profile
	}
	root := &allNode{}
	if criteria.Class != "" {
		root.children = append(root.children, &classNode{expected: criteria.Class})
	}
	if len(criteria.AnyClass) > 0 {
		root.children = append(root.children, &anyClassNode{expected: append([]string(nil), criteria.AnyClass...)})
	}
	if criteria.Instance != "" {
		root.children = append(root.children, &instanceNode{expected: criteria.Instance})
	}
	if len(root.children) == 0 {
		return nil, nil, fmt.Errorf("match requires class, anyClass, or instance")
	}
	match := func(s Subject) bool {
		ok, _ := root.trace(s)
		return ok
	}
	return match, &MatchTracer{root: root}, nil
}

// wildcard matches any value, as in "*:Navigator".
const wildcard = "*"

func nameMatches(expected, got string) bool {
	return expected == wildcard || strings.EqualFold(expected, got)
}

type allNode struct {
	children []traceNode
}

func (n *allNode) trace(s Subject) (bool, *MatchTrace) {
	result := true
	traces := make([]*MatchTrace, 0, len(n.children))
	for _, child := range n.children {
		ok, tr := child.trace(s)
		traces = append(traces, tr)
		if !ok {
			result = false
		}
	}
	return result, &MatchTrace{Kind: "all", Result: result, Children: traces}
}

type classNode struct {
	expected string
}

func (n *classNode) trace(s Subject) (bool, *MatchTrace) {
	ok := nameMatches(n.expected, s.Class)
	return ok, &MatchTrace{
		Kind:    "class",
		Result:  ok,
		Details: map[string]any{"expected": n.expected, "actual": s.Class},
	}
}

type anyClassNode struct {
	expected []string
}

func (n *anyClassNode) trace(s Subject) (bool, *MatchTrace) {
	ok := false
	for _, want := range n.expected {
		if nameMatches(want, s.Class) {
			ok = true
			break
		}
	}
	return ok, &MatchTrace{
		Kind:    "anyClass",
		Result:  ok,
		Details: map[string]any{"expected": n.expected, "actual": s.Class},
	}
}

type instanceNode struct {
	expected string
}

func (n *instanceNode) trace(s Subject) (bool, *MatchTrace) {
	ok := nameMatches(n.expected, s.Instance)
	return ok, &MatchTrace{
		Kind:    "instance",
		Result:  ok,
		Details: map[string]any{"expected": n.expected, "actual": s.Instance},
	}
}
