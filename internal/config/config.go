// Package config handles tool configuration loading and management.
package config

import (
	"github.com/Faultbox/silhouette-tools/pkg/template"
)

// Config holds all tool settings.
type Config struct {
	Camera  CameraConfig  `yaml:"camera"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// CameraConfig holds the virtual camera defaults used when a generate
// invocation does not override them.
type CameraConfig struct {
	Profile       string  `yaml:"profile"`                  // camera profile name ("standard", "6mm")
	FocalLength   float64 `yaml:"focal_length,omitempty"`   // pixels; 0 = take from profile
	PlaneDistance float64 `yaml:"plane_distance,omitempty"` // meters
}

// OutputConfig holds artifact output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"` // directory for generated artifacts; empty = working dir
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Profile:       string(template.DefaultProfile),
			PlaneDistance: template.DefaultPlaneDistance,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ResolveFocalLength returns the configured focal length, falling back
// to the camera profile's documented constant.
func (c CameraConfig) ResolveFocalLength() float64 {
	if c.FocalLength > 0 {
		return c.FocalLength
	}
	return template.CameraProfile(c.Profile).FocalLengthPx()
}
