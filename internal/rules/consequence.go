package rules

import (
	"fmt"

	"github.com/rotkonetworks/bspwm/internal/layout"
	"github.com/rotkonetworks/bspwm/internal/selector"
	"github.com/rotkonetworks/bspwm/internal/state"
)

// Effect is what one rule changes. Nil fields and empty descriptors leave the values
// set by earlier rules alone.
type Effect struct {
	Monitor    string
	Desktop    string
	Node       string
	State      *state.ClientState
	Layer      *state.StackLayer
	SplitDir   *layout.Direction
	SplitRatio *float64
	Hidden     *bool
	Sticky     *bool
	Private    *bool
	Locked     *bool
	Marked     *bool
	Center     *bool
	Follow     *bool
	Manage     *bool
	Focus      *bool
	Border     *bool
}

// Consequence is the merged outcome of every rule matching a window.
type Consequence struct {
	Monitor    string             `json:"monitor"`
	Desktop    string             `json:"desktop"`
	Node       string             `json:"node"`
	State      *state.ClientState `json:"state,omitempty"`
	Layer      *state.StackLayer  `json:"layer,omitempty"`
	SplitDir   *layout.Direction  `json:"splitDir,omitempty"`
	SplitRatio float64            `json:"splitRatio"`
	Hidden     bool               `json:"hidden"`
	Sticky     bool               `json:"sticky"`
	Private    bool               `json:"private"`
	Locked     bool               `json:"locked"`
	Marked     bool               `json:"marked"`
	Center     bool               `json:"center"`
	Follow     bool               `json:"follow"`
	Manage     bool               `json:"manage"`
	Focus      bool               `json:"focus"`
	Border     bool               `json:"border"`
}

// NewConsequence returns the outcome for a window no rule matched.
func NewConsequence() Consequence {
	return Consequence{Manage: true, Focus: true, Border: true}
}

func (e Effect) applyTo(c *Consequence) {
	if e.Monitor != "" {
		c.Monitor = e.Monitor
	}
	if e.Desktop != "" {
		c.Desktop = e.Desktop
	}
	if e.Node != "" {
		c.Node = e.Node
	}
	if e.State != nil {
		v := *e.State
		c.State = &v
	}
	if e.Layer != nil {
		v := *e.Layer
		c.Layer = &v
	}
	if e.SplitDir != nil {
		v := *e.SplitDir
		c.SplitDir = &v
	}
	if e.SplitRatio != nil {
		c.SplitRatio = *e.SplitRatio
	}
	flags := []struct {
		src *bool
		dst *bool
	}{
		{e.Hidden, &c.Hidden},
		{e.Sticky, &c.Sticky},
		{e.Private, &c.Private},
		{e.Locked, &c.Locked},
		{e.Marked, &c.Marked},
		{e.Center, &c.Center},
		{e.Follow, &c.Follow},
		{e.Manage, &c.Manage},
		{e.Focus, &c.Focus},
		{e.Border, &c.Border},
	}
	for _, f := range flags {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
}

// Resolver is the part of the selector engine a consequence needs.
type Resolver interface {
	Monitor(desc string, ref state.Coordinates) (state.Coordinates, selector.Result)
	Desktop(desc string, ref state.Coordinates) (state.Coordinates, selector.Result)
	Node(desc string, ref state.Coordinates) (state.Coordinates, selector.Result)
}

// Resolve freezes the monitor, desktop and node descriptors into the ids they
// designate right now, relative to focus. A descriptor that does not resolve is
// cleared.
func (c *Consequence) Resolve(r Resolver, focus state.Coordinates) {
	c.Monitor = freeze(c.Monitor, func(desc string) (uint32, bool) {
		loc, res := r.Monitor(desc, focus)
		if res != selector.OK || loc.Monitor == nil {
			return 0, false
		}
		return loc.Monitor.ID, true
	})
	c.Desktop = freeze(c.Desktop, func(desc string) (uint32, bool) {
		loc, res := r.Desktop(desc, focus)
		if res != selector.OK || loc.Desktop == nil {
			return 0, false
		}
		return loc.Desktop.ID, true
	})
	c.Node = freeze(c.Node, func(desc string) (uint32, bool) {
		loc, res := r.Node(desc, focus)
		if res != selector.OK || loc.Node == nil {
			return 0, false
		}
		return loc.Node.ID, true
	})
}

func freeze(desc string, resolve func(string) (uint32, bool)) string {
	if desc == "" {
		return ""
	}
	if id, ok := resolve(desc); ok {
		return selector.FormatID(id)
	}
	return ""
}

// String renders the consequence as space-separated key=value pairs.
func (c Consequence) String() string {
	var st, layer, dir string
	if c.State != nil {
		st = c.State.String()
	}
	if c.Layer != nil {
		layer = c.Layer.String()
	}
	if c.SplitDir != nil {
		dir = c.SplitDir.String()
	}
	return fmt.Sprintf("monitor=%s desktop=%s node=%s state=%s layer=%s split_dir=%s split_ratio=%f "+
		"hidden=%s sticky=%s private=%s locked=%s marked=%s center=%s follow=%s manage=%s focus=%s border=%s",
		c.Monitor, c.Desktop, c.Node, st, layer, dir, c.SplitRatio,
		onOff(c.Hidden), onOff(c.Sticky), onOff(c.Private), onOff(c.Locked), onOff(c.Marked),
		onOff(c.Center), onOff(c.Follow), onOff(c.Manage), onOff(c.Focus), onOff(c.Border))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
