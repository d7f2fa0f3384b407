package rules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rotkonetworks/bspwm/internal/config"
	"github.com/rotkonetworks/bspwm/internal/history"
	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
	"github.com/rotkonetworks/bspwm/internal/state/statetest"
)

func boolPtr(b bool) *bool { return &b }

func buildSet(t *testing.T, cfg *config.Config) *Set {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	compiled, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return NewSet(compiled)
}

func resolverFor(f *statetest.Fixture) *selector.Resolver {
	return selector.NewResolver(f.World, history.New(f.History), nil, layout.TightnessHigh)
}

func TestApplyFreezesDescriptors(t *testing.T) {
	f := statetest.New()
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{{
			Name:    "Gimp",
			Match:   config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "Gimp"}},
			Monitor: "primary",
			Desktop: "next.!occupied",
			Node:    "east",
			State:   "floating",
			Follow:  boolPtr(true),
		}},
	})

	out := set.Apply(Subject{Class: "Gimp", Instance: "gimp"}, resolverFor(f), f.World.Focus(), false)
	if diff := cmp.Diff([]string{"Gimp"}, out.Matched); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	c := out.Consequence
	if c.Monitor != "0x00200005" || c.Desktop != "0x00200004" || c.Node != "0x00C00002" {
		t.Fatalf("unexpected frozen ids %s %s %s", c.Monitor, c.Desktop, c.Node)
	}
	if c.State == nil || *c.State != state.StateFloating || !c.Follow || !c.Manage || !c.Focus {
		t.Fatalf("unexpected consequence %s", c)
	}
	if out.Traces != nil {
		t.Fatalf("traces should only be recorded when explaining")
	}
}

func TestApplyClearsUnresolvedDescriptors(t *testing.T) {
	f := statetest.New()
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{{
			Name:    "Nowhere",
			Match:   config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "*"}},
			Monitor: "west",
			Desktop: "nosuch",
			Node:    "@three:",
		}},
	})
	out := set.Apply(Subject{Class: "Any"}, resolverFor(f), f.World.Focus(), false)
	c := out.Consequence
	if c.Monitor != "" || c.Desktop != "" || c.Node != "" {
		t.Fatalf("expected cleared descriptors, got %q %q %q", c.Monitor, c.Desktop, c.Node)
	}
}

func TestUnmatchedWindowGetsDefaults(t *testing.T) {
	f := statetest.New()
	set := NewSet(nil)
	out := set.Apply(Subject{Class: "URxvt"}, resolverFor(f), f.World.Focus(), true)
	if len(out.Matched) != 0 {
		t.Fatalf("unexpected matches %v", out.Matched)
	}
	want := "monitor= desktop= node= state= layer= split_dir= split_ratio=0.000000 hidden=off sticky=off " +
		"private=off locked=off marked=off center=off follow=off manage=on focus=on border=on"
	if got := out.Consequence.String(); got != want {
		t.Fatalf("String() = %q\nwant %q", got, want)
	}
}

func TestLaterRulesOverrideEarlierOnes(t *testing.T) {
	f := statetest.New()
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{
			{
				Name:    "AllTerms",
				Match:   config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "URxvt"}},
				Desktop: "^2",
				State:   "floating",
				Focus:   boolPtr(false),
			},
			{
				Name:    "Scratch",
				Match:   config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "URxvt", Instance: "scratch"}},
				Desktop: "web",
				Sticky:  boolPtr(true),
			},
		},
	})
	out := set.Apply(Subject{Class: "URxvt", Instance: "scratch"}, resolverFor(f), f.World.Focus(), false)
	if diff := cmp.Diff([]string{"AllTerms", "Scratch"}, out.Matched); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	c := out.Consequence
	if c.Desktop != selector.FormatID(statetest.IDWeb) {
		t.Fatalf("later desktop should win, got %s", c.Desktop)
	}
	if c.State == nil || *c.State != state.StateFloating || c.Focus || !c.Sticky {
		t.Fatalf("unexpected merged consequence %s", c)
	}
	if !strings.Contains(c.String(), "state=floating") {
		t.Fatalf("String() missing state: %s", c)
	}
}

func TestOneShotRulesAreConsumed(t *testing.T) {
	f := statetest.New()
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{
			{Name: "Once", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "Gimp"}}, OneShot: true},
			{Name: "Always", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "*"}}},
		},
	})
	r := resolverFor(f)
	if out := set.Apply(Subject{Class: "Firefox"}, r, f.World.Focus(), false); len(out.Matched) != 1 {
		t.Fatalf("unexpected matches %v", out.Matched)
	}
	if set.Len() != 2 {
		t.Fatalf("unmatched one-shot rule must stay")
	}
	if out := set.Apply(Subject{Class: "Gimp"}, r, f.World.Focus(), false); len(out.Matched) != 2 {
		t.Fatalf("unexpected matches %v", out.Matched)
	}
	if diff := cmp.Diff([]string{"Always"}, set.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyExplainRecordsTraces(t *testing.T) {
	f := statetest.New()
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{
			{Name: "Gimp", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "Gimp"}}},
			{Name: "Web", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{AnyClass: []string{"Firefox"}}}},
		},
	})
	out := set.Apply(Subject{Class: "Firefox"}, resolverFor(f), f.World.Focus(), true)
	if len(out.Traces) != 2 || out.Traces["Gimp"].Result || !out.Traces["Web"].Result {
		t.Fatalf("unexpected traces %+v", out.Traces)
	}
}

func TestRemove(t *testing.T) {
	set := buildSet(t, &config.Config{
		DirectionalFocusTightness: "high",
		Rules: []config.RuleConfig{
			{Name: "A", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "a"}}},
			{Name: "B", Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "b"}}},
		},
	})
	if n := set.Remove("A"); n != 1 {
		t.Fatalf("expected one removal, got %d", n)
	}
	if n := set.Remove("A"); n != 0 {
		t.Fatalf("expected no removal, got %d", n)
	}
	if diff := cmp.Diff([]string{"B"}, set.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsUnknownEnums(t *testing.T) {
	cfg := &config.Config{Rules: []config.RuleConfig{{
		Name:  "Bad",
		Match: config.MatchConfig{MatcherConfig: config.MatcherConfig{Class: "x"}},
		Layer: "top",
	}}}
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for unknown layer")
	}
}
