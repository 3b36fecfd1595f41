// Package config loads viewer settings from YAML and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/dualfisheye/internal/display"
	"github.com/Faultbox/dualfisheye/internal/sphere"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Sphere  SphereConfig  `yaml:"sphere"`
	Display DisplayConfig `yaml:"display"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds window settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// SphereConfig holds the mesh tessellation.
type SphereConfig struct {
	Radius   float32 `yaml:"radius"`
	Rings    int     `yaml:"rings"`
	Segments int     `yaml:"segments"`
}

// DisplayConfig holds the camera topics and lens parameters.
// Cropped FOVs of 0 follow the lens FOV.
type DisplayConfig struct {
	FrontTopic      string  `yaml:"front_topic"`
	RearTopic       string  `yaml:"rear_topic"`
	ReferenceFrame  string  `yaml:"reference_frame"`
	FOVFront        float32 `yaml:"fov_front"`
	FOVRear         float32 `yaml:"fov_rear"`
	CroppedFOVFront float32 `yaml:"cropped_fov_front"`
	CroppedFOVRear  float32 `yaml:"cropped_fov_rear"`
	DebugScale      float32 `yaml:"debug_scale"`
}

// SourceConfig holds the frame source endpoint.
type SourceConfig struct {
	URL         string        `yaml:"url"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock dual 235 degree setup.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Sphere: SphereConfig{
			Radius:   10,
			Rings:    64,
			Segments: 64,
		},
		Display: DisplayConfig{
			ReferenceFrame: "<Fixed Frame>",
			FOVFront:       235,
			FOVRear:        235,
			DebugScale:     1,
		},
		Source: SourceConfig{
			URL:         "ws://127.0.0.1:9090",
			DialTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot produce a display.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Sphere.Radius <= 0 {
		return fmt.Errorf("sphere radius %v must be positive", c.Sphere.Radius)
	}
	if c.Sphere.Rings < 1 || c.Sphere.Segments < 1 {
		return fmt.Errorf("sphere needs at least one ring and one segment, have %d and %d", c.Sphere.Rings, c.Sphere.Segments)
	}
	fovs := []struct {
		name  string
		value float32
	}{
		{"fov_front", c.Display.FOVFront},
		{"fov_rear", c.Display.FOVRear},
	}
	for _, f := range fovs {
		if !(f.value > 0 && f.value <= 360) {
			return fmt.Errorf("display %s %v must be in (0, 360]", f.name, f.value)
		}
	}
	cropped := []struct {
		name  string
		value float32
	}{
		{"cropped_fov_front", c.Display.CroppedFOVFront},
		{"cropped_fov_rear", c.Display.CroppedFOVRear},
	}
	for _, f := range cropped {
		if !(f.value >= 0 && f.value <= 360) {
			return fmt.Errorf("display %s %v must be in [0, 360]", f.name, f.value)
		}
	}
	if c.Display.ReferenceFrame == "" {
		return fmt.Errorf("display reference_frame must not be empty")
	}
	if c.Source.DialTimeout < 0 {
		return fmt.Errorf("source dial_timeout %v must not be negative", c.Source.DialTimeout)
	}
	return nil
}

// DisplaySettings converts the sphere and display sections for the controller.
func (c *Config) DisplaySettings() display.Settings {
	d := c.Display
	return display.Settings{
		FrontTopic:     d.FrontTopic,
		RearTopic:      d.RearTopic,
		ReferenceFrame: d.ReferenceFrame,
		Radius:         c.Sphere.Radius,
		Rings:          c.Sphere.Rings,
		Segments:       c.Sphere.Segments,
		Front: sphere.LensConfig{
			FOV:        d.FOVFront,
			CroppedFOV: d.CroppedFOVFront,
			DebugScale: d.DebugScale,
		},
		Rear: sphere.LensConfig{
			FOV:        d.FOVRear,
			CroppedFOV: d.CroppedFOVRear,
			DebugScale: d.DebugScale,
		},
	}
}

// StoreDisplay copies tuned controller settings back for saving.
func (c *Config) StoreDisplay(s display.Settings) {
	c.Display.FrontTopic = s.FrontTopic
	c.Display.RearTopic = s.RearTopic
	c.Display.ReferenceFrame = s.ReferenceFrame
	c.Display.FOVFront = s.Front.FOV
	c.Display.FOVRear = s.Rear.FOV
	c.Display.CroppedFOVFront = s.Front.CroppedFOV
	c.Display.CroppedFOVRear = s.Rear.CroppedFOV
	c.Display.DebugScale = s.Front.DebugScale
}
