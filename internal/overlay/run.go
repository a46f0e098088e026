package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glassnote/internal/config"
	"glassnote/internal/ipc"
	"glassnote/internal/logx"
	"glassnote/internal/loop"
	"glassnote/internal/state"
	"glassnote/internal/wl"
)

// control adapts the bus server to the event loop.
type control struct {
	srv *ipc.Server
	h   ipc.Handler
}

func (c control) Fd() int { return c.srv.Fd() }

func (c control) NextDeadline() (time.Time, bool) { return c.srv.NextDeadline() }

func (c control) Process() error {
	_, err := c.srv.Process(c.h)
	return err
}

// Run claims the bus name, opens the overlay surface and runs the event
// loop until the overlay is closed, Escape is pressed or ctx is done.
func Run(ctx context.Context, cfg *config.Config) (err error) {
	log := logx.Logger().With("session", state.SessionID())

	srv, err := ipc.Listen(cfg.Control.RequestTimeout.Duration)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			log.Warn("close control plane", "err", cerr)
		}
	}()

	conn, err := wl.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	g, err := bindGlobals(conn)
	if err != nil {
		return err
	}

	app := New(cfg, nil)
	out := newSurfaceOutput(conn, g, cfg.Overlay.Namespace, app)
	app.out = out
	out.SetInputCapture(app.Active())
	out.SetKeyboardInteractivity(app.Active())

	seats := make(map[uint32]*inputSeat)
	for _, gl := range g.registry.Globals() {
		if gl.Interface == wl.SeatInterface {
			seats[gl.Name] = bindSeat(app, g, gl)
		}
	}
	g.registry.OnGlobal = func(gl wl.Global) {
		if gl.Interface == wl.SeatInterface {
			seats[gl.Name] = bindSeat(app, g, gl)
		}
	}
	g.registry.OnGlobalRemove = func(name uint32) {
		if s, ok := seats[name]; ok {
			s.release()
			delete(seats, name)
		}
	}

	// The first configure arrives after this commit.
	out.surface.Commit()
	if err := conn.Roundtrip(); err != nil {
		return fmt.Errorf("initial configure: %w", err)
	}
	log.Info("overlay running", "seats", len(seats), "active", app.Active())

	err = loop.Run(ctx, conn, control{srv: srv, h: app}, app.Running)
	if err == nil {
		err = app.Err()
	}

	app.Shutdown()
	for _, s := range seats {
		s.release()
	}
	if derr := out.destroy(); derr != nil {
		log.Warn("destroy surface", "err", derr)
	}
	if g.cursor != nil {
		g.cursor.Destroy()
	}
	g.layerShell.Destroy()
	if ferr := conn.Flush(); ferr != nil && !errors.Is(ferr, wl.ErrClosed) {
		log.Debug("flush on shutdown", "err", ferr)
	}

	if err != nil {
		return err
	}
	log.Info("overlay stopped", "strokes", app.Strokes().Len(), "points", app.Strokes().Points())
	return nil
}
