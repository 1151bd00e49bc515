package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/baro/dps3xx"
	"github.com/mklimuk/baro/exporter"
)

// fileConfig is the on-disk sensor configuration. Rates and resolutions are
// given as plain counts (measurements per second, samples per result); zero
// keeps the driver default. Unset shift flags follow the resolution.
type fileConfig struct {
	PressureRate        int           `yaml:"pressure_rate"`
	PressureSamples     int           `yaml:"pressure_samples"`
	TemperatureRate     int           `yaml:"temperature_rate"`
	TemperatureSamples  int           `yaml:"temperature_samples"`
	TemperatureExternal *bool         `yaml:"temperature_external"`
	TemperatureShift    *bool         `yaml:"temperature_shift"`
	PressureShift       *bool         `yaml:"pressure_shift"`
	InterruptActiveHigh bool          `yaml:"interrupt_active_high"`
	Interrupts          interrupts    `yaml:"interrupts"`
	FIFO                bool          `yaml:"fifo"`
	SPI3Wire            bool          `yaml:"spi_3wire"`
	InitTimeout         time.Duration `yaml:"init_timeout"`
	SeaLevel            float64       `yaml:"sea_level_pa"`
}

type interrupts struct {
	FIFO        bool `yaml:"fifo"`
	Temperature bool `yaml:"temperature"`
	Pressure    bool `yaml:"pressure"`
}

func loadConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("could not open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&fc); err != nil {
		return fc, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc fileConfig) sensorConfig() (dps3xx.Config, error) {
	opts := []dps3xx.ConfigOption{
		dps3xx.WithInterruptActiveHigh(fc.InterruptActiveHigh),
		dps3xx.WithInterrupts(fc.Interrupts.FIFO, fc.Interrupts.Temperature, fc.Interrupts.Pressure),
		dps3xx.WithFIFO(fc.Interrupts.FIFO, fc.FIFO),
		dps3xx.WithSPIThreeWire(fc.SPI3Wire),
	}
	if fc.PressureRate != 0 {
		r, err := dps3xx.RateFromCount(fc.PressureRate)
		if err != nil {
			return dps3xx.Config{}, fmt.Errorf("pressure_rate: %w", err)
		}
		opts = append(opts, dps3xx.WithPressureRate(r))
	}
	if fc.PressureSamples != 0 {
		r, err := dps3xx.ResolutionFromCount(fc.PressureSamples)
		if err != nil {
			return dps3xx.Config{}, fmt.Errorf("pressure_samples: %w", err)
		}
		opts = append(opts, dps3xx.WithPressureResolution(r))
	}
	if fc.TemperatureRate != 0 {
		r, err := dps3xx.RateFromCount(fc.TemperatureRate)
		if err != nil {
			return dps3xx.Config{}, fmt.Errorf("temperature_rate: %w", err)
		}
		opts = append(opts, dps3xx.WithTemperatureRate(r))
	}
	if fc.TemperatureSamples != 0 {
		r, err := dps3xx.ResolutionFromCount(fc.TemperatureSamples)
		if err != nil {
			return dps3xx.Config{}, fmt.Errorf("temperature_samples: %w", err)
		}
		opts = append(opts, dps3xx.WithTemperatureResolution(r))
	}
	if fc.TemperatureExternal != nil {
		opts = append(opts, dps3xx.WithExternalTemperature(*fc.TemperatureExternal))
	}
	if fc.TemperatureShift != nil {
		opts = append(opts, dps3xx.WithTemperatureShift(*fc.TemperatureShift))
	}
	if fc.PressureShift != nil {
		opts = append(opts, dps3xx.WithPressureShift(*fc.PressureShift))
	}
	if fc.InitTimeout > 0 {
		opts = append(opts, dps3xx.WithInitTimeout(fc.InitTimeout))
	}
	cfg := dps3xx.NewConfig(opts...)
	return cfg, cfg.Validate()
}

func (fc fileConfig) seaLevel() float64 {
	if fc.SeaLevel <= 0 {
		return exporter.StandardSeaLevel
	}
	return fc.SeaLevel
}
