// Command gnctl controls a running glassnote overlay over the session bus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"glassnote/internal/config"
	"glassnote/internal/ipc"
	"glassnote/internal/logx"
	"glassnote/internal/panel"
)

const (
	exitOK         = 0
	exitFalse      = 1
	exitBus        = 2
	exitNotRunning = 3
	exitMalformed  = 4
	exitUsage      = 64
)

var errUsage = errors.New("usage")

const usage = `usage: gnctl [-config file] [-timeout d] [-v] command

commands:
  show          start annotating
  hide          let input through, dim the strokes
  clear         drop every stroke
  color <1-5>   select a palette color
  width <w>     set the stroke width
  panel         open the control window`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("gnctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usage) }
	configPath := fs.String("config", "", "path to config.toml, used by panel")
	timeout := fs.Duration("timeout", 5*time.Second, "bus call timeout")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	logx.SetLogger(logx.New(stderr, *verbose))

	if fs.NArg() == 1 && fs.Arg(0) == "panel" {
		return runPanel(*configPath, *timeout, stderr)
	}
	req, err := parseCommand(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "gnctl: %v\n%s\n", err, usage)
		return exitUsage
	}

	client, err := ipc.Dial()
	if err != nil {
		fmt.Fprintf(stderr, "gnctl: %v\n", err)
		return exitBus
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ok, err := client.Do(ctx, req)
	code := exitCode(ok, err)
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "gnctl: %v\n", err)
	case !ok:
		fmt.Fprintf(stderr, "gnctl: %s: nothing changed\n", req.Cmd)
	}
	return code
}

// parseCommand turns the positional arguments into a request.
func parseCommand(args []string) (ipc.Request, error) {
	if len(args) == 0 {
		return ipc.Request{}, fmt.Errorf("%w: missing command", errUsage)
	}
	simple := map[string]ipc.Command{
		"show":  ipc.CmdShow,
		"hide":  ipc.CmdHide,
		"clear": ipc.CmdClear,
	}
	if cmd, ok := simple[args[0]]; ok {
		if len(args) != 1 {
			return ipc.Request{}, fmt.Errorf("%w: %s takes no arguments", errUsage, args[0])
		}
		return ipc.Request{Cmd: cmd}, nil
	}

	if len(args) != 2 {
		return ipc.Request{}, fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	switch args[0] {
	case "color":
		slot, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil || slot < 1 || slot > 5 {
			return ipc.Request{}, fmt.Errorf("%w: color wants a slot from 1 to 5, got %q", errUsage, args[1])
		}
		return ipc.Request{Cmd: ipc.CmdChangeColor, Slot: uint32(slot)}, nil
	case "width":
		w, err := strconv.ParseFloat(args[1], 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return ipc.Request{}, fmt.Errorf("%w: width wants a positive number, got %q", errUsage, args[1])
		}
		return ipc.Request{Cmd: ipc.CmdChangeWidth, Width: w}, nil
	}
	return ipc.Request{}, fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

// exitCode maps the outcome of one call to the process exit status.
func exitCode(ok bool, err error) int {
	switch {
	case errors.Is(err, ipc.ErrServiceNotRunning):
		return exitNotRunning
	case errors.Is(err, ipc.ErrMalformedReply):
		return exitMalformed
	case errors.Is(err, ipc.ErrTimeout):
		return exitFalse
	case err != nil:
		return exitBus
	case !ok:
		return exitFalse
	}
	return exitOK
}

func runPanel(configPath string, timeout time.Duration, stderr io.Writer) int {
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "gnctl: %v\n", err)
		return exitUsage
	}
	client, err := ipc.Dial()
	if err != nil {
		fmt.Fprintf(stderr, "gnctl: %v\n", err)
		return exitBus
	}
	defer client.Close()

	panel.Run(client, panel.Options{
		Palette:  cfg.Palette(),
		Width:    cfg.Style.Width,
		MinWidth: cfg.Style.MinWidth,
		MaxWidth: cfg.Style.MaxWidth,
		Timeout:  timeout,
	})
	return exitOK
}
