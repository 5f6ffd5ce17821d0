package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"turtle/internal/config"
	"turtle/internal/web"
)

func main() {
	var configPath string
	var replayPath string
	flag.StringVar(&configPath, "config", "./turtle.yaml", "Path to YAML config")
	flag.StringVar(&replayPath, "replay", "", "Re-run the position estimator over a recorded trace and exit")
	flag.Parse()

	if replayPath != "" {
		if err := replayTrace(replayPath, os.Stdout); err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogBuffer(2000)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	latch := &web.RunLatch{}
	rt, err := newRuntime(cfg, latch)
	if err != nil {
		log.Fatalf("runtime init failed: %v", err)
	}
	defer rt.Close()

	log.Printf("turtle starting run=%s backend=%s", rt.loop.RunID(), cfg.Hardware.Backend)

	if cfg.Web.Listen != "" {
		go func() {
			err := web.Serve(ctx, cfg.Web.Listen, rt.status, logs, latch, rt.broadcaster)
			if err != nil && ctx.Err() == nil {
				log.Printf("web server stopped: %v", err)
			}
		}()
		log.Printf("web listening on %s", cfg.Web.Listen)
	}

	err = rt.loop.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		log.Printf("run failed: %v", err)
	default:
		rt.logResult()
	}

	if cfg.Web.Listen != "" && ctx.Err() == nil {
		// Keep serving status and logs until interrupted.
		<-ctx.Done()
	}
	log.Printf("turtle stopping")
}
