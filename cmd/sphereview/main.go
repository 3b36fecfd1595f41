// Command sphereview shows two fisheye camera streams projected onto a
// sphere, viewed from its centre.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/dualfisheye/internal/app"
	"github.com/Faultbox/dualfisheye/internal/config"
	"github.com/Faultbox/dualfisheye/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Log
	log.Info("=== Dual Fisheye Viewer ===",
		zap.String("source", cfg.Source.URL),
		zap.String("front", cfg.Display.FrontTopic),
		zap.String("rear", cfg.Display.RearTopic),
	)
	logger.Sugar.Debugf("config: %+v", cfg)

	v, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to start viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		log.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("viewer closed normally")
}
