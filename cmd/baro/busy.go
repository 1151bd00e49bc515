package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/dps3xx"
)

type busyReport struct {
	Rate        int    `yaml:"rate_hz"`
	Samples     int    `yaml:"samples"`
	Units       uint32 `yaml:"busy_units"`
	BusyMs      uint32 `yaml:"busy_ms"`
	TotalWaitMs uint32 `yaml:"total_wait_ms"`
	Background  bool   `yaml:"fits_background"`
}

var busyCmd = cli.Command{
	Name:  "busy",
	Usage: "compute conversion time for a rate and oversampling (no hardware access)",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "rate",
			Value: 1,
			Usage: "measurements per second (1..128)",
		},
		&cli.IntFlag{
			Name:  "samples",
			Value: 1,
			Usage: "oversampling (1..128)",
		},
	},
	Action: func(c *cli.Context) error {
		report, err := computeBusy(c.Int("rate"), c.Int("samples"))
		if err != nil {
			return console.ExitErr("invalid arguments", err)
		}
		return console.YAML(report)
	},
}

func computeBusy(rateCount, samplesCount int) (busyReport, error) {
	rate, err := dps3xx.RateFromCount(rateCount)
	if err != nil {
		return busyReport{}, err
	}
	res, err := dps3xx.ResolutionFromCount(samplesCount)
	if err != nil {
		return busyReport{}, err
	}
	units := dps3xx.CalcBusyTimeUnits(rate, res)
	return busyReport{
		Rate:        rate.Count(),
		Samples:     res.Count(),
		Units:       units,
		BusyMs:      dps3xx.CalcBusyTimeMs(rate, res),
		TotalWaitMs: dps3xx.CalcTotalWaitMs(rate, res),
		Background:  units <= dps3xx.MaxBusyTimeUnits,
	}, nil
}
