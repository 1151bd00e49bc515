package exporter

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "sensors"
	subsystem = "dps3xx"
)

// Metrics holds the collectors that are not gauge funcs.
type Metrics struct {
	SampleErrors prometheus.Counter
}

// Register exposes temperature, pressure and altitude gauges backed by
// sampler. Every scrape reads through Sampler.Latest, so one scrape triggers
// at most one measurement. Failed samples increment the error counter and
// report NaN.
func Register(reg prometheus.Registerer, sampler *Sampler, timeout time.Duration) *Metrics {
	factory := promauto.With(reg)
	errs := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sample_errors_total",
		Help:      "Failed measurement attempts.",
	})
	value := func(pick func(Sample) float64) func() float64 {
		return func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			s, err := sampler.Latest(ctx)
			if err != nil {
				errs.Inc()
				slog.Warn("barometer sample failed", "error", err)
				return math.NaN()
			}
			return round(pick(s), 2)
		}
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "temperature_celsius",
		Help:      "Compensated temperature.",
	}, value(func(s Sample) float64 { return s.Temperature }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pressure_pascal",
		Help:      "Compensated pressure.",
	}, value(func(s Sample) float64 { return s.Pressure }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "altitude_meters",
		Help:      "Barometric altitude above the configured sea level pressure.",
	}, value(func(s Sample) float64 { return s.Altitude }))

	return &Metrics{SampleErrors: errs}
}

func round(v float64, decimals int) float64 {
	exp := math.Pow(10, float64(decimals))
	return math.Round(v*exp) / exp
}
