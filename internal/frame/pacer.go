// Package frame paces redraws of a single surface against the compositor's
// frame callbacks.
package frame

import (
	"errors"
	"fmt"

	"glassnote/internal/logx"
)

// ErrSkipped is returned by Target.Present when no frame could be produced
// right now, typically because every buffer is still held by the compositor.
var ErrSkipped = errors.New("frame: presentation skipped")

// Target is the surface a Pacer drives.
type Target interface {
	// RequestFrame registers interest in the next frame callback. The
	// request takes effect with the next commit.
	RequestFrame() error
	// Present renders the current state and commits it.
	Present() error
	// Commit commits the surface without new content.
	Commit() error
}

// State is the pacer's position in its request cycle.
type State int

const (
	// Idle: no callback outstanding and nothing to draw.
	Idle State = iota
	// Requested: one callback outstanding, nothing changed since.
	Requested
	// RequestedAndDirty: one callback outstanding and the surface is stale.
	RequestedAndDirty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case RequestedAndDirty:
		return "requested+dirty"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pacer coalesces any number of MarkDirty calls into at most one redraw per
// compositor frame, with never more than one frame callback in flight.
//
// A Pacer is not safe for concurrent use; it belongs to the event loop.
type Pacer struct {
	target Target
	state  State
	frames uint64
}

func NewPacer(t Target) *Pacer {
	return &Pacer{target: t}
}

func (p *Pacer) State() State { return p.state }

// Outstanding reports whether a frame callback is in flight.
func (p *Pacer) Outstanding() bool { return p.state != Idle }

// Frames returns how many frames were presented through the pacer.
func (p *Pacer) Frames() uint64 { return p.frames }

// MarkDirty records that the visible state changed.
func (p *Pacer) MarkDirty() error {
	switch p.state {
	case Idle:
		if err := p.request(); err != nil {
			return err
		}
		if err := p.target.Commit(); err != nil {
			return fmt.Errorf("commit frame request: %w", err)
		}
		p.state = RequestedAndDirty
	case Requested:
		p.state = RequestedAndDirty
	}
	return nil
}

// FrameReady handles the outstanding frame callback firing.
func (p *Pacer) FrameReady() error {
	switch p.state {
	case Idle:
		logx.Logger().Debug("frame callback without request")
	case Requested:
		p.state = Idle
	case RequestedAndDirty:
		return p.presentAndRequest()
	}
	return nil
}

// Kick presents immediately when no callback is outstanding. It is used
// for the first configure and after a resize, when there is no callback to
// wait for.
func (p *Pacer) Kick() error {
	if p.state != Idle {
		return p.MarkDirty()
	}
	return p.presentAndRequest()
}

// Reset forgets any outstanding callback. Used when the surface the
// callback belonged to is gone.
func (p *Pacer) Reset() { p.state = Idle }

func (p *Pacer) presentAndRequest() error {
	if err := p.request(); err != nil {
		return err
	}
	err := p.target.Present()
	switch {
	case errors.Is(err, ErrSkipped):
		logx.Logger().Debug("frame skipped, retrying on next callback", "err", err)
		if err := p.target.Commit(); err != nil {
			return fmt.Errorf("commit frame request: %w", err)
		}
		p.state = RequestedAndDirty
		return nil
	case err != nil:
		return fmt.Errorf("present frame: %w", err)
	}
	p.frames++
	p.state = Requested
	return nil
}

func (p *Pacer) request() error {
	if err := p.target.RequestFrame(); err != nil {
		return fmt.Errorf("request frame callback: %w", err)
	}
	return nil
}
