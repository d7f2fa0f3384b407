package rules

import (
	"testing"

	"github.com/rotkonetworks/bspwm/internal/config"
)

func TestClassMatcherIgnoresCase(t *testing.T) {
	match, _, err := BuildMatcher(config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "firefox"}}, nil)
	if err != nil {
		t.Fatalf("build matcher: %v", err)
	}
	if !match(Subject{Class: "Firefox", Instance: "Navigator"}) {
		t.Fatalf("expected class match")
	}
	if match(Subject{Class: "Chromium"}) {
		t.Fatalf("unexpected match for Chromium")
	}
}

func TestMatcherCombinesCriteria(t *testing.T) {
	mc := config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "URxvt", Instance: "scratch"}}
	match, _, err := BuildMatcher(mc, nil)
	if err != nil {
		t.Fatalf("build matcher: %v", err)
	}
	if !match(Subject{Class: "URxvt", Instance: "scratch"}) {
		t.Fatalf("expected match on class and instance")
	}
	if match(Subject{Class: "URxvt", Instance: "urxvt"}) {
		t.Fatalf("instance mismatch should fail")
	}
}

func TestWildcardMatchesAnything(t *testing.T) {
	mc := config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "*", Instance: "Navigator"}}
	match, _, err := BuildMatcher(mc, nil)
	if err != nil {
		t.Fatalf("build matcher: %v", err)
	}
	if !match(Subject{Class: "Firefox", Instance: "Navigator"}) {
		t.Fatalf("wildcard class should match")
	}
}

func TestProfileExpansion(t *testing.T) {
	profiles := config.MatcherProfiles{"browsers": {AnyClass: []string{"Firefox", "Chromium"}}}
	match, _, err := BuildMatcher(config.MatchConfig{Profile: "browsers"}, profiles)
	if err != nil {
		t.Fatalf("build matcher: %v", err)
	}
	if !match(Subject{Class: "chromium"}) {
		t.Fatalf("expected profile match")
	}
	if _, _, err := BuildMatcher(config.MatchConfig{Profile: "missing"}, profiles); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
	if _, _, err := BuildMatcher(config.MatchConfig{}, profiles); err == nil {
		t.Fatalf("expected error for empty matcher")
	}
}

func TestMatchTracerRecordsCriteria(t *testing.T) {
	mc := config.MatchConfig{MatcherConfig: config.MatcherConfig{AnyClass: []string{"Gimp"}, Instance: "gimp"}}
	_, tracer, err := BuildMatcher(mc, nil)
	if err != nil {
		t.Fatalf("build matcher: %v", err)
	}
	ok, tr := tracer.Trace(Subject{Class: "Gimp", Instance: "toolbox"})
	if ok || tr.Result {
		t.Fatalf("expected failed trace")
	}
	if tr.Kind != "all" || len(tr.Children) != 2 {
		t.Fatalf("unexpected trace shape %+v", tr)
	}
	if !tr.Children[0].Result || tr.Children[0].Kind != "anyClass" {
		t.Fatalf("anyClass should pass: %+v", tr.Children[0])
	}
	if tr.Children[1].Result || tr.Children[1].Details["actual"] != "toolbox" {
		t.Fatalf("instance should fail with actual value: %+v", tr.Children[1])
	}

	var nilTracer *MatchTracer
	if ok, _ := nilTracer.Trace(Subject{}); !ok {
		t.Fatalf("nil tracer should accept")
	}
}
