package layout

import (
	"fmt"
	"math"
	"strings"
)

// Rect is a screen rectangle in pixels. Width and Height are never negative.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is a screen position in pixels.
type Point struct {
	X int
	Y int
}

// Direction names one of the four screen sides.
type Direction int

const (
	North Direction = iota
	West
	South
	East
)

var directionNames = map[string]Direction{
	"north": North,
	"west":  West,
	"south": South,
	"east":  East,
}

// ParseDirection converts a direction token. Matching is exact and case-sensitive.
func ParseDirection(s string) (Direction, bool) {
	d, ok := directionNames[s]
	return d, ok
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	case East:
		return "east"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = v
	return nil
}

// Tightness controls how strictly OnDirSide rejects rectangles that overlap the
// reference on the requested axis.
type Tightness int

const (
	TightnessHigh Tightness = iota
	TightnessLow
)

// ParseTightness accepts "high" or "low" (case-insensitive).
func ParseTightness(s string) (Tightness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "":
		return TightnessHigh, nil
	case "low":
		return TightnessLow, nil
	}
	return TightnessHigh, fmt.Errorf("unknown tightness %q", s)
}

func (t Tightness) String() string {
	if t == TightnessLow {
		return "low"
	}
	return "high"
}

// Valid reports whether the rectangle has a positive size.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// max returns the bottom-right pixel that still belongs to the rectangle.
func (r Rect) max() Point {
	return Point{X: r.X + r.Width - 1, Y: r.Y + r.Height - 1}
}

// IsInside reports whether p lies within r.
func IsInside(p Point, r Rect) bool {
	if !r.Valid() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Contains reports whether a fully covers b.
func Contains(a, b Rect) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	bm := b.max()
	return a.X <= b.X && a.Y <= b.Y &&
		a.X+a.Width >= bm.X+1 && a.Y+a.Height >= bm.Y+1
}

// Area returns the rectangle's area, zero for degenerate rectangles.
func Area(r Rect) uint64 {
	if !r.Valid() {
		return 0
	}
	return uint64(r.Width) * uint64(r.Height)
}

// BoundaryDistance measures the gap between the dir edge of r1 and the opposite edge of r2.
func BoundaryDistance(r1, r2 Rect, dir Direction) uint32 {
	if !r1.Valid() || !r2.Valid() {
		return math.MaxUint32
	}
	m1, m2 := r1.max(), r2.max()
	switch dir {
	case North:
		return absDiff(m2.Y, r1.Y)
	case West:
		return absDiff(m2.X, r1.X)
	case South:
		return absDiff(m1.Y, r2.Y)
	case East:
		return absDiff(m1.X, r2.X)
	}
	return math.MaxUint32
}

// OnDirSide reports whether r2 lies on the dir side of r1 and shares a span with it
// on the perpendicular axis.
func OnDirSide(r1, r2 Rect, dir Direction, tightness Tightness) bool {
	if !r1.Valid() || !r2.Valid() {
		return false
	}
	m1, m2 := r1.max(), r2.max()

	switch tightness {
	case TightnessLow:
		switch dir {
		case North:
			if r2.Y > m1.Y {
				return false
			}
		case West:
			if r2.X > m1.X {
				return false
			}
		case South:
			if m2.Y < r1.Y {
				return false
			}
		case East:
			if m2.X < r1.X {
				return false
			}
		default:
			return false
		}
	case TightnessHigh:
		switch dir {
		case North:
			if r2.Y >= r1.Y {
				return false
			}
		case West:
			if r2.X >= r1.X {
				return false
			}
		case South:
			if m2.Y <= m1.Y {
				return false
			}
		case East:
			if m2.X <= m1.X {
				return false
			}
		default:
			return false
		}
	default:
		return false
	}

	switch dir {
	case North, South:
		return m2.X >= r1.X && r2.X <= m1.X
	case West, East:
		return m2.Y >= r1.Y && r2.Y <= m1.Y
	}
	return false
}

// RectCmp orders rectangles top to bottom, then left to right, then by
// area. It returns a negative number when r1 comes first.
func RectCmp(r1, r2 Rect) int {
	if !r1.Valid() || !r2.Valid() {
		return 0
	}
	switch {
	case r1.Y >= r2.Y+r2.Height:
		return 1
	case r2.Y >= r1.Y+r1.Height:
		return -1
	case r1.X >= r2.X+r2.Width:
		return 1
	case r2.X >= r1.X+r1.Width:
		return -1
	}
	a1, a2 := Area(r1), Area(r2)
	switch {
	case a2 < a1:
		return 1
	case a1 < a2:
		return -1
	}
	return 0
}

func absDiff(a, b int) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}
