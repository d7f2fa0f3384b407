package selector

import (
	"strings"

	"github.com/rotkonetworks/bspwm/internal/layout"
)

// Descriptor grammar, per kind, with markers located by their rightmost occurrence:
//
//	monitor  := '%' name | [monitor '#'] strategy modifiers
//	desktop  := '%' name | [desktop '#'] (monitor ':' strategy | strategy) modifiers
//	node     := [node '#'] (strategy | '@' [desktop ':'] path) modifiers
//	modifiers := ('.' ['!'] attribute)*
//
// A '#' left of the rightmost ':' belongs to the part before that colon, so
// "DP-1#next:focused" addresses the focused desktop of the monitor after DP-1. For
// nodes a '#' sitting between '@' and ':' belongs to the path's desktop unless the
// '@' itself follows a '#'.

const (
	contextMarker  = '#'
	colonMarker    = ':'
	pathMarker     = '@'
	modifierMarker = '.'
	literalMarker  = "%"
	pathSeparator  = "/"
)

type descriptor struct {
	context    string
	hasContext bool
	// body is the strategy with its modifiers removed. A colon, when present,
	// is kept in the body and colon holds its index.
	body      string
	colon     int
	modifiers []string
}

// stripModifiers peels '.'-separated tokens off the end of s. Tokens are returned
// right to left.
func stripModifiers(s string) (string, []string) {
	var mods []string
	for {
		i := strings.LastIndexByte(s, modifierMarker)
		if i < 0 {
			return s, mods
		}
		mods = append(mods, s[i+1:])
		s = s[:i]
	}
}

func splitAt(s string, hash int) descriptor {
	d := descriptor{colon: -1}
	rest := s
	if hash >= 0 {
		d.context, d.hasContext, rest = s[:hash], true, s[hash+1:]
	}
	if c := strings.LastIndexByte(rest, colonMarker); c >= 0 {
		tail, mods := stripModifiers(rest[c+1:])
		d.body, d.colon, d.modifiers = rest[:c+1]+tail, c, mods
		return d
	}
	d.body, d.modifiers = stripModifiers(rest)
	return d
}

func splitMonitor(s string) descriptor {
	d := descriptor{colon: -1}
	rest := s
	if hash := strings.LastIndexByte(s, contextMarker); hash >= 0 {
		d.context, d.hasContext, rest = s[:hash], true, s[hash+1:]
	}
	d.body, d.modifiers = stripModifiers(rest)
	return d
}

func splitDesktop(s string) descriptor {
	hash := strings.LastIndexByte(s, contextMarker)
	colon := strings.LastIndexByte(s, colonMarker)
	if hash >= 0 && colon >= 0 && hash < colon {
		hash = -1
	}
	return splitAt(s, hash)
}

func splitNode(s string) descriptor {
	hash := strings.LastIndexByte(s, contextMarker)
	at := strings.LastIndexByte(s, pathMarker)
	colon := strings.LastIndexByte(s, colonMarker)
	if hash >= 0 && at >= 0 && colon >= 0 && at < hash && hash < colon {
		if at > 0 && s[at-1] == contextMarker {
			hash = at - 1
		} else {
			hash = -1
		}
	}
	return splitAt(s, hash)
}

type stepKind int

const (
	stepFirst stepKind = iota
	stepSecond
	stepParent
	stepBrother
	stepFence
)

type step struct {
	kind stepKind
	dir  layout.Direction
}

// parsePath validates every step of a node path before any is taken.
func parsePath(p string) (steps []step, fromRoot bool, ok bool) {
	fromRoot = strings.HasPrefix(p, pathSeparator)
	for _, tok := range strings.Split(p, pathSeparator) {
		switch tok {
		case "":
			continue
		case "first", "1":
			steps = append(steps, step{kind: stepFirst})
		case "second", "2":
			steps = append(steps, step{kind: stepSecond})
		case "parent":
			steps = append(steps, step{kind: stepParent})
		case "brother":
			steps = append(steps, step{kind: stepBrother})
		default:
			dir, isDir := layout.ParseDirection(tok)
			if !isDir {
				return nil, false, false
			}
			steps = append(steps, step{kind: stepFence, dir: dir})
		}
	}
	return steps, fromRoot, true
}
