package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/exporter"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"r"},
	Usage:   "measure temperature and pressure",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "watch",
			Usage: "repeat the measurement at this interval until interrupted",
		},
		&cli.BoolFlag{
			Name:  "yaml",
			Usage: "print samples as yaml",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		cal, err := s.calibrated()
		if err != nil {
			return console.ExitErr("sensor initialization error", err)
		}
		sampler := exporter.NewSampler(cal, exporter.WithSeaLevel(s.file.seaLevel()))
		asYAML := c.Bool("yaml")

		interval := c.Duration("watch")
		for {
			sample, err := sampler.Sample(s.ctx)
			if err != nil {
				return console.ExitErr("measurement error", err)
			}
			if err = printSample(sample, asYAML); err != nil {
				return console.ExitErr("output error", err)
			}
			if interval <= 0 {
				return nil
			}
			select {
			case <-s.ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
	},
}

func printSample(sample exporter.Sample, asYAML bool) error {
	if asYAML {
		return console.YAML(sample)
	}
	console.PInfof(console.PictoThermometer, "%s °C", console.White(formatFloat(sample.Temperature, 2)))
	console.PInfof(console.PictoGauge, "%s hPa", console.White(formatFloat(sample.Pressure/100, 2)))
	console.PInfof(console.PictoMountain, "%s m", console.White(formatFloat(sample.Altitude, 1)))
	return nil
}
