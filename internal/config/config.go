package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// Config is the top-level configuration document.
type Config struct {
	LogLevel                  string          `yaml:"logLevel"`
	StateFile                 string          `yaml:"stateFile"`
	Socket                    string          `yaml:"socket"`
	Pointer                   PointerConfig   `yaml:"pointer"`
	DirectionalFocusTightness string          `yaml:"directionalFocusTightness"`
	Telemetry                 TelemetryConfig `yaml:"telemetry"`
	Profiles                  MatcherProfiles `yaml:"profiles"`
	Rules                     []RuleConfig    `yaml:"rules"`
}

// UnmarshalYAML handles deprecated fields while decoding configuration files.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		LogLevel                  string          `yaml:"logLevel"`
		StateFile                 string          `yaml:"stateFile"`
		Socket                    string          `yaml:"socket"`
		Pointer                   PointerConfig   `yaml:"pointer"`
		DirectionalFocusTightness *string         `yaml:"directionalFocusTightness"`
		LegacyFocusTightness      *string         `yaml:"focusTightness"`
		Telemetry                 TelemetryConfig `yaml:"telemetry"`
		Profiles                  MatcherProfiles `yaml:"profiles"`
		Rules                     []RuleConfig    `yaml:"rules"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.LogLevel = raw.LogLevel
	c.StateFile = raw.StateFile
	c.Socket = raw.Socket
	c.Pointer = raw.Pointer
	c.Telemetry = raw.Telemetry
	c.Profiles = raw.Profiles
	c.Rules = raw.Rules

	switch {
	case raw.DirectionalFocusTightness != nil:
		c.DirectionalFocusTightness = *raw.DirectionalFocusTightness
	case raw.LegacyFocusTightness != nil:
		c.DirectionalFocusTightness = *raw.LegacyFocusTightness
	default:
		c.DirectionalFocusTightness = ""
	}

	return nil
}

// PointerConfig controls the X connection used by "pointed" descriptors.
type PointerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Display string `yaml:"display"`
}

// TelemetryConfig toggles the resolution counters.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MatcherProfiles defines reusable window matchers by name.
type MatcherProfiles map[string]MatcherConfig

// UnmarshalYAML ensures profile names are unique and values are parsed correctly.
func (p *MatcherProfiles) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*p = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("profiles must be a mapping")
	}
	result := make(map[string]MatcherConfig, len(value.Content)/2)
	seen := map[string]struct{}{}
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("profile name must be a string")
		}
		name := keyNode.Value
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate profile %q", name)
		}
		seen[name] = struct{}{}
		var cfg MatcherConfig
		if err := valNode.Decode(&cfg); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		result[name] = cfg
	}
	*p = result
	return nil
}

// MatcherConfig selects windows by WM_CLASS. "*" matches any value.
type MatcherConfig struct {
	Class    string   `yaml:"class"`
	AnyClass []string `yaml:"anyClass"`
	Instance string   `yaml:"instance"`
}

// MatchConfig is a rule's match block: a profile reference or inline criteria.
type MatchConfig struct {
	Profile       string `yaml:"profile"`
	MatcherConfig `yaml:",inline"`
}

// RuleConfig is one placement rule. Descriptors are resolved when the rule is
// applied, relative to the focus at that time.
type RuleConfig struct {
	Name       string      `yaml:"name"`
	Match      MatchConfig `yaml:"match"`
	Monitor    string      `yaml:"monitor"`
	Desktop    string      `yaml:"desktop"`
	Node       string      `yaml:"node"`
	State      string      `yaml:"state"`
	Layer      string      `yaml:"layer"`
	SplitDir   string      `yaml:"splitDir"`
	SplitRatio *float64    `yaml:"splitRatio"`
	Hidden     *bool       `yaml:"hidden"`
	Sticky     *bool       `yaml:"sticky"`
	Private    *bool       `yaml:"private"`
	Locked     *bool       `yaml:"locked"`
	Marked     *bool       `yaml:"marked"`
	Center     *bool       `yaml:"center"`
	Follow     *bool       `yaml:"follow"`
	Manage     *bool       `yaml:"manage"`
	Focus      *bool       `yaml:"focus"`
	Border     *bool       `yaml:"border"`
	OneShot    bool        `yaml:"oneShot"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DirectionalFocusTightness == "" {
		c.DirectionalFocusTightness = "high"
	}
}

// Tightness returns the parsed directional focus tightness, high when unset or invalid.
func (c *Config) Tightness() layout.Tightness {
	t, err := layout.ParseTightness(c.DirectionalFocusTightness)
	if err != nil {
		return layout.TightnessHigh
	}
	return t
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if _, err := layout.ParseTightness(c.DirectionalFocusTightness); err != nil {
		return fmt.Errorf("directionalFocusTightness: %w", err)
	}
	for name, profile := range c.Profiles {
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	names := map[string]struct{}{}
	for _, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("rule name cannot be empty")
		}
		if _, exists := names[r.Name]; exists {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		names[r.Name] = struct{}{}
		if err := c.validateRule(r); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

func (c *Config) validateRule(r RuleConfig) error {
	if r.Match.Profile != "" {
		if _, exists := c.Profiles[r.Match.Profile]; !exists {
			return fmt.Errorf("references unknown profile %q", r.Match.Profile)
		}
	} else if err := r.Match.MatcherConfig.Validate(); err != nil {
		return fmt.Errorf("match: %w", err)
	}
	descriptors := []struct {
		kind selector.Kind
		desc string
	}{
		{selector.KindMonitor, r.Monitor},
		{selector.KindDesktop, r.Desktop},
		{selector.KindNode, r.Node},
	}
	for _, d := range descriptors {
		if d.desc == "" {
			continue
		}
		if err := selector.Check(d.kind, d.desc); err != nil {
			return err
		}
	}
	if r.State != "" {
		if _, ok := state.ParseClientState(r.State); !ok {
			return fmt.Errorf("unknown state %q", r.State)
		}
	}
	if r.Layer != "" {
		if _, ok := state.ParseStackLayer(r.Layer); !ok {
			return fmt.Errorf("unknown layer %q", r.Layer)
		}
	}
	if r.SplitDir != "" {
		if _, ok := layout.ParseDirection(r.SplitDir); !ok {
			return fmt.Errorf("unknown splitDir %q", r.SplitDir)
		}
	}
	if r.SplitRatio != nil && (*r.SplitRatio <= 0 || *r.SplitRatio >= 1) {
		return fmt.Errorf("splitRatio must be between 0 and 1, got %v", *r.SplitRatio)
	}
	return nil
}

// Validate ensures matcher configuration has at least one selection criteria.
func (m MatcherConfig) Validate() error {
	if m.Class == "" && len(m.AnyClass) == 0 && m.Instance == "" {
		return fmt.Errorf("must define class, anyClass, or instance")
	}
	return nil
}
