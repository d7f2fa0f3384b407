package selector

import (
	"fmt"
	"strings"
)

// Requirement constrains one boolean attribute of a candidate.
type Requirement uint8

const (
	Unset Requirement = iota
	RequireTrue
	RequireFalse
)

func (r Requirement) allows(v bool) bool {
	switch r {
	case RequireTrue:
		return v
	case RequireFalse:
		return !v
	}
	return true
}

// NodeAttr indexes NodeSelect.
type NodeAttr int

const (
	NodeAutomatic NodeAttr = iota
	NodeFocused
	NodeActive
	NodeLocal
	NodeLeaf
	NodeWindow
	NodeTiled
	NodePseudoTiled
	NodeFloating
	NodeFullscreen
	NodeHidden
	NodeSticky
	NodePrivate
	NodeLocked
	NodeMarked
	NodeUrgent
	NodeSameClass
	NodeDescendantOf
	NodeAncestorOf
	NodeBelow
	NodeNormal
	NodeAbove
	NodeHorizontal
	NodeVertical
	nodeAttrCount
)

var nodeAttrNames = [nodeAttrCount]string{
	"automatic", "focused", "active", "local", "leaf", "window",
	"tiled", "pseudo_tiled", "floating", "fullscreen",
	"hidden", "sticky", "private", "locked", "marked", "urgent",
	"same_class", "descendant_of", "ancestor_of",
	"below", "normal", "above", "horizontal", "vertical",
}

// DesktopAttr indexes DesktopSelect.
type DesktopAttr int

const (
	DesktopOccupied DesktopAttr = iota
	DesktopFocused
	DesktopActive
	DesktopUrgent
	DesktopLocal
	DesktopTiled
	DesktopMonocle
	DesktopUserTiled
	DesktopUserMonocle
	desktopAttrCount
)

var desktopAttrNames = [desktopAttrCount]string{
	"occupied", "focused", "active", "urgent", "local",
	"tiled", "monocle", "user_tiled", "user_monocle",
}

// MonitorAttr indexes MonitorSelect.
type MonitorAttr int

const (
	MonitorOccupied MonitorAttr = iota
	MonitorFocused
	monitorAttrCount
)

var monitorAttrNames = [monitorAttrCount]string{"occupied", "focused"}

// NodeSelect holds one requirement per node attribute. The zero value accepts
// every node.
type NodeSelect [nodeAttrCount]Requirement

// DesktopSelect holds one requirement per desktop attribute.
type DesktopSelect [desktopAttrCount]Requirement

// MonitorSelect holds one requirement per monitor attribute.
type MonitorSelect [monitorAttrCount]Requirement

func (a NodeAttr) String() string    { return nodeAttrNames[a] }
func (a DesktopAttr) String() string { return desktopAttrNames[a] }
func (a MonitorAttr) String() string { return monitorAttrNames[a] }

// applyModifiers sets requirements from tokens given right to left, so that the
// leftmost occurrence of an attribute in the descriptor wins.
func applyModifiers(tokens []string, names []string, reqs []Requirement) bool {
	for _, tok := range tokens {
		want := RequireTrue
		name := tok
		if rest, ok := strings.CutPrefix(tok, "!"); ok {
			want, name = RequireFalse, rest
		}
		idx := indexOf(names, name)
		if idx < 0 {
			return false
		}
		reqs[idx] = want
	}
	return true
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func formatModifiers(names []string, reqs []Requirement) string {
	var b strings.Builder
	for i, r := range reqs {
		switch r {
		case RequireTrue:
			b.WriteString("." + names[i])
		case RequireFalse:
			b.WriteString(".!" + names[i])
		}
	}
	return b.String()
}

func parseModifierList(s string, names []string, reqs []Requirement) error {
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	body, tokens := stripModifiers(s)
	if body != "" || !applyModifiers(tokens, names, reqs) {
		return fmt.Errorf("%q: %w", s, ErrBadModifiers)
	}
	return nil
}

// ParseNodeSelect reads a bare modifier list such as ".window.!hidden".
func ParseNodeSelect(s string) (NodeSelect, error) {
	var sel NodeSelect
	err := parseModifierList(s, nodeAttrNames[:], sel[:])
	return sel, err
}

// ParseDesktopSelect reads a bare modifier list such as ".occupied.!focused".
func ParseDesktopSelect(s string) (DesktopSelect, error) {
	var sel DesktopSelect
	err := parseModifierList(s, desktopAttrNames[:], sel[:])
	return sel, err
}

// ParseMonitorSelect reads a bare modifier list such as ".!occupied".
func ParseMonitorSelect(s string) (MonitorSelect, error) {
	var sel MonitorSelect
	err := parseModifierList(s, monitorAttrNames[:], sel[:])
	return sel, err
}

func (s NodeSelect) String() string    { return formatModifiers(nodeAttrNames[:], s[:]) }
func (s DesktopSelect) String() string { return formatModifiers(desktopAttrNames[:], s[:]) }
func (s MonitorSelect) String() string { return formatModifiers(monitorAttrNames[:], s[:]) }
