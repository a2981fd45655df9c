// Package config loads per-device driver settings from a YAML file and
// applies the firmware defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Optical struct {
	SPIDevice      string `yaml:"spi_device"`
	CSPin          string `yaml:"cs_pin"`
	PollIntervalMS uint16 `yaml:"poll_interval_ms"`
	CPI            uint16 `yaml:"cpi"`
}

type Joystick struct {
	XChannel       uint8  `yaml:"x_channel"`
	YChannel       uint8  `yaml:"y_channel"`
	PollIntervalMS uint16 `yaml:"poll_interval_ms"`
	Deadzone       int32  `yaml:"deadzone"`
	ScaleDivisor   int32  `yaml:"scale_divisor"`
	InvertX        bool   `yaml:"invert_x"`
	InvertY        bool   `yaml:"invert_y"`
}

type Config struct {
	Optical  Optical  `yaml:"optical"`
	Joystick Joystick `yaml:"joystick"`
}

// Default mirrors the hardware defaults the drivers ship with.
func Default() Config {
	return Config{
		Optical: Optical{
			SPIDevice:      "/dev/spidev0.0",
			CSPin:          "GPIO8",
			PollIntervalMS: 4,
			CPI:            500,
		},
		Joystick: Joystick{
			XChannel:       0,
			YChannel:       1,
			PollIntervalMS: 10,
			Deadzone:       100,
			ScaleDivisor:   128,
		},
	}
}

// Load reads path and overlays it onto the defaults. A missing interval or
// divisor keeps its default rather than becoming zero at the driver layer.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (o Optical) PollInterval() time.Duration {
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (j Joystick) PollInterval() time.Duration {
	return time.Duration(j.PollIntervalMS) * time.Millisecond
}
