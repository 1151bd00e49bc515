package exporter

import (
	"context"
	"time"
)

// ReadingBehaviorFunc produces one compensated value or an error.
type ReadingBehaviorFunc func(ctx context.Context) (float64, error)

// MockSource is a Source that uses behavior functions to produce readings
// without requiring any hardware.
//
// Example usage:
//
//	src := NewMockSource(
//		func(ctx context.Context) (float64, error) { return 21.5, nil },
//		func(ctx context.Context) (float64, error) { return 101325, nil },
//	)
type MockSource struct {
	tempBehavior     ReadingBehaviorFunc
	pressureBehavior ReadingBehaviorFunc
	// Triggered records the (pressure, temperature) pair of every trigger.
	Triggered [][2]bool
	Wait      time.Duration
}

func NewMockSource(tempBehavior, pressureBehavior ReadingBehaviorFunc) *MockSource {
	return &MockSource{
		tempBehavior:     tempBehavior,
		pressureBehavior: pressureBehavior,
	}
}

func (m *MockSource) TriggerMeasurement(ctx context.Context, pressure, temperature, background bool) error {
	m.Triggered = append(m.Triggered, [2]bool{pressure, temperature})
	return nil
}

func (m *MockSource) MeasurementWait(pressure, temperature bool) time.Duration {
	return m.Wait
}

func (m *MockSource) ReadTempCalibrated(ctx context.Context) (float64, error) {
	return m.tempBehavior(ctx)
}

func (m *MockSource) ReadPressureCalibrated(ctx context.Context) (float64, error) {
	return m.pressureBehavior(ctx)
}
