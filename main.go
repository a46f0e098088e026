package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"glassnote/internal/config"
	"glassnote/internal/logx"
	"glassnote/internal/overlay"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: $XDG_CONFIG_HOME/glassnote/config.toml)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logx.SetLogger(logx.New(os.Stderr, *verbose))
	log := logx.Logger()

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error("loading config", "path", path, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := overlay.Run(ctx, cfg); err != nil {
		log.Error("overlay exited", "err", err)
		stop()
		os.Exit(1)
	}
}
