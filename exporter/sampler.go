// Package exporter samples a calibrated DPS3xx and publishes the readings as
// Prometheus gauges.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/baro/dps3xx"
)

// StandardSeaLevel is the ISA sea level pressure in Pascal.
const StandardSeaLevel = 101325.0

// Source is a calibrated barometer. *dps3xx.Calibrated implements it.
type Source interface {
	TriggerMeasurement(ctx context.Context, pressure, temperature, background bool) error
	MeasurementWait(pressure, temperature bool) time.Duration
	ReadTempCalibrated(ctx context.Context) (float64, error)
	ReadPressureCalibrated(ctx context.Context) (float64, error)
}

var _ Source = &dps3xx.Calibrated{}

// Sample is one temperature and pressure reading.
type Sample struct {
	Time        time.Time `yaml:"time"`
	Temperature float64   `yaml:"temperature_celsius"`
	Pressure    float64   `yaml:"pressure_pa"`
	Altitude    float64   `yaml:"altitude_m"`
}

// Sampler runs single-shot measurements on a Source. It serializes access to
// the device and caches the last sample for MaxAge.
type Sampler struct {
	mx       sync.Mutex
	src      Source
	seaLevel float64
	maxAge   time.Duration
	now      func() time.Time
	last     Sample
	hasLast  bool
}

type SamplerOption func(*Sampler)

// WithSeaLevel sets the reference pressure used for the altitude, in Pascal.
func WithSeaLevel(pa float64) SamplerOption {
	return func(s *Sampler) {
		s.seaLevel = pa
	}
}

// WithMaxAge lets Latest return a cached sample younger than age.
func WithMaxAge(age time.Duration) SamplerOption {
	return func(s *Sampler) {
		s.maxAge = age
	}
}

func NewSampler(src Source, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		src:      src,
		seaLevel: StandardSeaLevel,
		maxAge:   time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample measures temperature first, so the pressure compensation uses a
// fresh temperature result.
func (s *Sampler) Sample(ctx context.Context) (Sample, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.sample(ctx)
}

// Latest returns the cached sample when it is younger than the max age and
// samples the device otherwise.
func (s *Sampler) Latest(ctx context.Context) (Sample, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.hasLast && s.now().Sub(s.last.Time) < s.maxAge {
		return s.last, nil
	}
	return s.sample(ctx)
}

func (s *Sampler) sample(ctx context.Context) (Sample, error) {
	temp, err := s.measure(ctx, false, true, s.src.ReadTempCalibrated)
	if err != nil {
		return Sample{}, fmt.Errorf("temperature measurement failed: %w", err)
	}
	pres, err := s.measure(ctx, true, false, s.src.ReadPressureCalibrated)
	if err != nil {
		return Sample{}, fmt.Errorf("pressure measurement failed: %w", err)
	}
	s.last = Sample{
		Time:        s.now(),
		Temperature: temp,
		Pressure:    pres,
		Altitude:    dps3xx.Altitude(pres, s.seaLevel),
	}
	s.hasLast = true
	slog.Debug("barometer sampled", "temperature", temp, "pressure", pres)
	return s.last, nil
}

func (s *Sampler) measure(ctx context.Context, pressure, temperature bool, read func(context.Context) (float64, error)) (float64, error) {
	if err := s.src.TriggerMeasurement(ctx, pressure, temperature, false); err != nil {
		return 0, err
	}
	if err := wait(ctx, s.src.MeasurementWait(pressure, temperature)); err != nil {
		return 0, err
	}
	return read(ctx)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
