// Package x11 connects to the X server for the little the selector engine needs
// from it: the pointer position and the window under it.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	xp "github.com/BurntSushi/xgb/xproto"

	"github.com/rotkonetworks/bspwm/internal/layout"
)

// Pointer queries the pointer on the default screen of one display.
type Pointer struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xp.Window
}

// Dial opens display, or $DISPLAY when display is empty.
func Dial(display string) (*Pointer, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", display, err)
	}
	setup := xp.Setup(conn)
	if setup == nil || len(setup.Roots) == 0 {
		conn.Close()
		return nil, fmt.Errorf("X display %q has no screens", display)
	}
	return &Pointer{conn: conn, root: setup.DefaultScreen(conn).Root}, nil
}

// QueryPointer returns the pointer position in root coordinates and the top-level
// window beneath it, 0 when the pointer is over the root window.
func (p *Pointer) QueryPointer() (layout.Point, uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return layout.Point{}, 0, fmt.Errorf("query pointer: connection closed")
	}
	reply, err := xp.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return layout.Point{}, 0, fmt.Errorf("query pointer: %w", err)
	}
	return layout.Point{X: int(reply.RootX), Y: int(reply.RootY)}, uint32(reply.Child), nil
}

// Close releases the connection. Further queries fail.
func (p *Pointer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
