package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagFront      = flag.String("front", "", "Front camera topic")
	flagRear       = flag.String("rear", "", "Rear camera topic")
	flagSource     = flag.String("source", "", "Frame source URL")
	flagFOVFront   = flag.Float64("fov-front", 0, "Front lens field of view in degrees")
	flagFOVRear    = flag.Float64("fov-rear", 0, "Rear lens field of view in degrees")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFront != "" {
		cfg.Display.FrontTopic = *flagFront
	}
	if *flagRear != "" {
		cfg.Display.RearTopic = *flagRear
	}
	if *flagSource != "" {
		cfg.Source.URL = *flagSource
	}
	if *flagFOVFront > 0 {
		cfg.Display.FOVFront = float32(*flagFOVFront)
	}
	if *flagFOVRear > 0 {
		cfg.Display.FOVRear = float32(*flagFOVRear)
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
}
