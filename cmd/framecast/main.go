// Command framecast publishes still images as camera frames over WebSocket
// topics, for driving sphereview without a camera.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/logger"
	"github.com/Faultbox/dualfisheye/internal/source"
)

func main() {
	listen := flag.String("listen", ":9090", "HTTP listen address")
	front := flag.String("front", "", "Front image file or directory")
	rear := flag.String("rear", "", "Rear image file or directory")
	frontTopic := flag.String("front-topic", "/front/image_raw", "Front camera topic")
	rearTopic := flag.String("rear-topic", "/rear/image_raw", "Rear camera topic")
	rate := flag.Float64("rate", 10, "Frames per second per topic")
	width := flag.Int("width", 0, "Resize frames to this width (0 keeps the source size)")
	height := flag.Int("height", 0, "Resize frames to this height (0 keeps the aspect ratio)")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logger.Init(*level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Log

	if *front == "" && *rear == "" {
		log.Error("nothing to publish: set -front and/or -rear")
		os.Exit(2)
	}

	c := &caster{log: log.Named("cast")}
	for _, in := range []struct{ topic, path string }{{*frontTopic, *front}, {*rearTopic, *rear}} {
		if in.path == "" {
			continue
		}
		f, err := loadFeed(in.topic, in.path, *width, *height)
		if err != nil {
			log.Error("loading images failed", zap.String("path", in.path), zap.Error(err))
			os.Exit(1)
		}
		log.Info("feed ready", zap.String("topic", in.topic), zap.Int("frames", len(f.frames)))
		c.feeds = append(c.feeds, f)
	}

	hub := source.NewHub(log.Named("hub"))
	c.pub = hub

	// The hub is the root handler: a ServeMux would clean topic paths.
	srv := &http.Server{Addr: *listen, Handler: hub, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("serving topics", zap.String("addr", *listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	if err := c.run(ctx, *rate); err != nil {
		log.Error("publishing failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("framecast stopped")
}
