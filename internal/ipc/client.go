package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Bus errors meaning nobody owns the destination name.
var notRunningErrors = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown": true,
	"org.freedesktop.DBus.Error.NameHasNoOwner": true,
}

type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Client issues control-plane commands to a running overlay.
type Client struct {
	conn *dbus.Conn
	obj  caller
}

// Dial connects to the session bus.
func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(BusName, ObjectPath)}, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Show(ctx context.Context) (bool, error) { return c.call(ctx, CmdShow) }
func (c *Client) Hide(ctx context.Context) (bool, error) { return c.call(ctx, CmdHide) }
func (c *Client) Clear(ctx context.Context) (bool, error) {
	return c.call(ctx, CmdClear)
}

// ChangeColor selects palette slot 1..5.
func (c *Client) ChangeColor(ctx context.Context, slot uint32) (bool, error) {
	return c.call(ctx, CmdChangeColor, slot)
}

func (c *Client) ChangeWidth(ctx context.Context, width float64) (bool, error) {
	return c.call(ctx, CmdChangeWidth, width)
}

// Do issues r.
func (c *Client) Do(ctx context.Context, r Request) (bool, error) {
	switch r.Cmd {
	case CmdChangeColor:
		return c.ChangeColor(ctx, r.Slot)
	case CmdChangeWidth:
		return c.ChangeWidth(ctx, r.Width)
	}
	return c.call(ctx, r.Cmd)
}

func (c *Client) call(ctx context.Context, cmd Command, args ...interface{}) (bool, error) {
	call := c.obj.CallWithContext(ctx, Interface+"."+cmd.Method(), 0, args...)
	if call.Err != nil {
		return false, classify(cmd, call.Err)
	}
	var ok bool
	if err := call.Store(&ok); err != nil {
		return false, fmt.Errorf("%s: %w: %v", cmd, ErrMalformedReply, err)
	}
	return ok, nil
}

func classify(cmd Command, err error) error {
	name := ""
	var dv dbus.Error
	var dp *dbus.Error
	switch {
	case errors.As(err, &dv):
		name = dv.Name
	case errors.As(err, &dp):
		name = dp.Name
	}

	switch {
	case notRunningErrors[name]:
		return fmt.Errorf("%s: %w", cmd, ErrServiceNotRunning)
	case name == ErrorTimeout:
		return fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", cmd, err)
}
