package ipc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"glassnote/internal/logx"
)

// service is the object exported on the bus. godbus calls its methods on
// its own goroutines.
type service struct {
	queue *Queue
}

func (s *service) submit(r Request) (bool, *dbus.Error) {
	ok, err := s.queue.Submit(context.Background(), r)
	switch {
	case errors.Is(err, ErrTimeout):
		return false, dbus.NewError(ErrorTimeout, []interface{}{err.Error()})
	case err != nil:
		return false, dbus.MakeFailedError(err)
	}
	return ok, nil
}

func (s *service) ShowOverlay() (bool, *dbus.Error) {
	return s.submit(Request{Cmd: CmdShow})
}

func (s *service) HideOverlay() (bool, *dbus.Error) {
	return s.submit(Request{Cmd: CmdHide})
}

func (s *service) ChangeColor(slot uint32) (bool, *dbus.Error) {
	return s.submit(Request{Cmd: CmdChangeColor, Slot: slot})
}

func (s *service) ChangeWidth(width float64) (bool, *dbus.Error) {
	return s.submit(Request{Cmd: CmdChangeWidth, Width: width})
}

func (s *service) ClearOverlay() (bool, *dbus.Error) {
	return s.submit(Request{Cmd: CmdClear})
}

// Server owns the bus name and the request queue.
type Server struct {
	conn  *dbus.Conn
	queue *Queue
}

// Listen connects to the session bus, exports the control object and
// claims BusName. It fails with ErrNameTaken when another overlay runs.
func Listen(timeout time.Duration) (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	s, err := Serve(conn, timeout)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Serve exports the control object on an existing connection.
func Serve(conn *dbus.Conn, timeout time.Duration) (*Server, error) {
	queue, err := NewQueue(timeout)
	if err != nil {
		return nil, err
	}
	svc := &service{queue: queue}

	if err := conn.Export(svc, ObjectPath, Interface); err != nil {
		queue.Close()
		return nil, fmt.Errorf("export %s: %w", ObjectPath, err)
	}
	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: Interface, Methods: introspect.Methods(svc)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		queue.Close()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		queue.Close()
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, BusName)
	}

	logx.Logger().Info("control plane listening", "name", BusName, "path", ObjectPath)
	return &Server{conn: conn, queue: queue}, nil
}

// Fd returns the descriptor the event loop waits on.
func (s *Server) Fd() int { return s.queue.Fd() }

// NextDeadline returns the earliest pending request deadline.
func (s *Server) NextDeadline() (time.Time, bool) { return s.queue.NextDeadline() }

// Process serves queued requests with h.
func (s *Server) Process(h Handler) (int, error) {
	if !s.conn.Connected() {
		return 0, ErrDisconnected
	}
	return s.queue.Process(h)
}

// Close releases the bus name and closes the connection.
func (s *Server) Close() error {
	var errs []error
	if _, err := s.conn.ReleaseName(BusName); err != nil && s.conn.Connected() {
		errs = append(errs, fmt.Errorf("release name: %w", err))
	}
	if err := s.queue.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	return errors.Join(errs...)
}
