// Package ipc is the overlay's control plane on the user session bus.
//
// The overlay exports a small command surface (show, hide, color, width,
// clear) under a well-known name; the controller calls it. Commands are
// carried from godbus's goroutines to the event loop through a Queue so
// the overlay state is only ever touched by the loop.
package ipc

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	BusName    = "io.glassnote.IPC"
	ObjectPath = dbus.ObjectPath("/io/glassnote/Client")
	Interface  = "io.glassnote.IPC"

	// ErrorTimeout is the bus error returned when the loop did not serve a
	// request before its deadline.
	ErrorTimeout = Interface + ".Error.Timeout"
)

var (
	// ErrNameTaken is returned by Listen when another overlay owns BusName.
	ErrNameTaken = errors.New("ipc: bus name already owned")
	// ErrServiceNotRunning is returned by the client when nobody owns BusName.
	ErrServiceNotRunning = errors.New("ipc: overlay is not running")
	// ErrMalformedReply is returned by the client when the reply is not a
	// single boolean.
	ErrMalformedReply = errors.New("ipc: malformed reply")
	// ErrTimeout is returned when a request expired before the loop served it.
	ErrTimeout = errors.New("ipc: request timed out")
	// ErrClosed is returned for requests submitted to a closed queue.
	ErrClosed = errors.New("ipc: control plane closed")
	// ErrDisconnected is returned by Server.Process once the bus is gone.
	ErrDisconnected = errors.New("ipc: session bus disconnected")
)

// Command identifies one control-plane method.
type Command int

const (
	CmdShow Command = iota
	CmdHide
	CmdChangeColor
	CmdChangeWidth
	CmdClear
)

var methodNames = [...]string{
	CmdShow:        "ShowOverlay",
	CmdHide:        "HideOverlay",
	CmdChangeColor: "ChangeColor",
	CmdChangeWidth: "ChangeWidth",
	CmdClear:       "ClearOverlay",
}

// Method returns the bus method name.
func (c Command) Method() string {
	if c < 0 || int(c) >= len(methodNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return methodNames[c]
}

func (c Command) String() string { return c.Method() }

// Handler applies control-plane commands to the overlay. Every method
// reports whether the command changed anything.
type Handler interface {
	Show() bool
	Hide() bool
	ChangeColor(slot uint32) bool
	ChangeWidth(width float64) bool
	Clear() bool
}

// Request is one queued command.
type Request struct {
	Cmd   Command
	Slot  uint32
	Width float64
}

func (r Request) apply(h Handler) bool {
	switch r.Cmd {
	case CmdShow:
		return h.Show()
	case CmdHide:
		return h.Hide()
	case CmdChangeColor:
		return h.ChangeColor(r.Slot)
	case CmdChangeWidth:
		return h.ChangeWidth(r.Width)
	case CmdClear:
		return h.Clear()
	}
	return false
}
