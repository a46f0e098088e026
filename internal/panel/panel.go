// Package panel is the controller's window: buttons, palette swatches and a
// width slider that drive a running overlay over the session bus, plus a
// tray menu for the common commands.
package panel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"glassnote/internal/ipc"
	"glassnote/internal/logx"
)

const appID = "io.glassnote.panel"

// Controller issues commands to the overlay. *ipc.Client implements it.
type Controller interface {
	Do(ctx context.Context, r ipc.Request) (bool, error)
}

// Options sets up the controls to match the overlay's configuration.
type Options struct {
	Palette  []uint32
	Width    float64
	MinWidth float64
	MaxWidth float64
	// Timeout bounds each bus call.
	Timeout time.Duration
}

type Panel struct {
	ctl    Controller
	opts   Options
	status *widget.Label

	// async runs bus calls off the UI goroutine and onUI brings results
	// back to it.
	async func(func())
	onUI  func(func())
}

func New(ctl Controller, opts Options) *Panel {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Panel{
		ctl:    ctl,
		opts:   opts,
		status: widget.NewLabel("ready"),
		async:  func(f func()) { go f() },
		onUI:   fyne.Do,
	}
}

// Status returns the text of the status label.
func (p *Panel) Status() string { return p.status.Text }

// Issue sends r and reports the outcome in the status label.
func (p *Panel) Issue(r ipc.Request) {
	p.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
		defer cancel()
		ok, err := p.ctl.Do(ctx, r)
		msg := Describe(r.Cmd, ok, err)
		if err != nil {
			logx.Logger().Warn("command failed", "cmd", r.Cmd, "err", err)
		} else {
			logx.Logger().Debug("command sent", "cmd", r.Cmd, "result", ok)
		}
		p.onUI(func() { p.status.SetText(msg) })
	})
}

// Describe renders the outcome of one command for the status label.
func Describe(cmd ipc.Command, ok bool, err error) string {
	switch {
	case errors.Is(err, ipc.ErrServiceNotRunning):
		return "overlay is not running"
	case errors.Is(err, ipc.ErrTimeout):
		return fmt.Sprintf("%s: overlay did not answer in time", cmd)
	case err != nil:
		return err.Error()
	case !ok:
		return fmt.Sprintf("%s: no change", cmd)
	}
	return fmt.Sprintf("%s: done", cmd)
}

// Content builds the window content.
func (p *Panel) Content() fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.VisibilityIcon(), func() { p.Issue(ipc.Request{Cmd: ipc.CmdShow}) }),
		widget.NewToolbarAction(theme.VisibilityOffIcon(), func() { p.Issue(ipc.Request{Cmd: ipc.CmdHide}) }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { p.Issue(ipc.Request{Cmd: ipc.CmdClear}) }),
	)

	onColorTapped := func(slot uint32) {
		p.Issue(ipc.Request{Cmd: ipc.CmdChangeColor, Slot: slot})
	}
	colorBox := container.NewHBox()
	for i, c := range p.opts.Palette {
		colorBox.Add(newColorSwatch(uint32(i+1), c, onColorTapped))
	}

	widthSlider := widget.NewSlider(p.opts.MinWidth, p.opts.MaxWidth)
	widthSlider.Step = 1
	widthSlider.SetValue(p.opts.Width)
	widthSlider.OnChangeEnded = func(val float64) {
		p.Issue(ipc.Request{Cmd: ipc.CmdChangeWidth, Width: val})
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), widthSlider)

	return container.NewVBox(
		container.NewHBox(
			tb,
			widget.NewSeparator(),
			widget.NewLabel("Color:"),
			colorBox,
			widget.NewSeparator(),
			widget.NewLabel("Width:"),
			sliderContainer,
			layout.NewSpacer(),
		),
		p.status,
	)
}

// TrayMenu returns the system tray menu. quit is called for its Quit item.
func (p *Panel) TrayMenu(quit func()) *fyne.Menu {
	q := fyne.NewMenuItem("Quit", quit)
	q.IsQuit = true
	return fyne.NewMenu("glassnote",
		fyne.NewMenuItem("Show", func() { p.Issue(ipc.Request{Cmd: ipc.CmdShow}) }),
		fyne.NewMenuItem("Hide", func() { p.Issue(ipc.Request{Cmd: ipc.CmdHide}) }),
		fyne.NewMenuItemSeparator(),
		q,
	)
}

// Run opens the panel window and blocks until the app quits.
func Run(ctl Controller, opts Options) {
	a := app.NewWithID(appID)
	p := New(ctl, opts)

	w := a.NewWindow("glassnote")
	w.SetContent(p.Content())
	if desk, ok := a.(desktop.App); ok {
		desk.SetSystemTrayMenu(p.TrayMenu(a.Quit))
		// With a tray icon, closing the window only hides it.
		w.SetCloseIntercept(w.Hide)
	}
	w.ShowAndRun()
}
