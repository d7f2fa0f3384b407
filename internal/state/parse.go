package state

import (
	"strconv"
	"strings"
)

// CycleDir walks the global order forwards or backwards, wrapping around.
type CycleDir int

const (
	CycleNext CycleDir = iota
	CyclePrev
)

// HistoryDir walks the focus history towards older or newer entries.
type HistoryDir int

const (
	HistoryOlder HistoryDir = iota
	HistoryNewer
)

// ParseCycleDir accepts "next" and "prev".
func ParseCycleDir(s string) (CycleDir, bool) {
	switch s {
	case "next":
		return CycleNext, true
	case "prev":
		return CyclePrev, true
	}
	return 0, false
}

// ParseHistoryDir accepts "older" and "newer".
func ParseHistoryDir(s string) (HistoryDir, bool) {
	switch s {
	case "older":
		return HistoryOlder, true
	case "newer":
		return HistoryNewer, true
	}
	return 0, false
}

// ParseID reads a numeric object id in decimal, hexadecimal (0x) or octal (0) form.
// Digit separators and other prefixes are rejected.
func ParseID(s string) (uint32, bool) {
	if s == "" || strings.ContainsAny(s, "+-_") {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base = 16
		s = s[2:]
	case len(s) > 1 && s[0] == '0':
		base = 8
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ParseIndex reads a 1-based position written as ^N. ^0 parses but addresses nothing.
func ParseIndex(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, "^")
	if !ok || digits == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(digits, 10, 16)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// ParseLayout accepts "tiled" and "monocle".
func ParseLayout(s string) (Layout, bool) {
	switch s {
	case "tiled":
		return LayoutTiled, true
	case "monocle":
		return LayoutMonocle, true
	}
	return 0, false
}

// ParseClientState accepts "tiled", "pseudo_tiled", "floating" and "fullscreen".
func ParseClientState(s string) (ClientState, bool) {
	switch s {
	case "tiled":
		return StateTiled, true
	case "pseudo_tiled":
		return StatePseudoTiled, true
	case "floating":
		return StateFloating, true
	case "fullscreen":
		return StateFullscreen, true
	}
	return 0, false
}

// ParseStackLayer accepts "below", "normal" and "above".
func ParseStackLayer(s string) (StackLayer, bool) {
	switch s {
	case "below":
		return LayerBelow, true
	case "normal":
		return LayerNormal, true
	case "above":
		return LayerAbove, true
	}
	return 0, false
}
