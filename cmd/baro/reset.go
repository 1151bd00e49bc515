package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/dps3xx"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the sensor and optionally re-run its start-up sequence",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
		&cli.BoolFlag{
			Name:  "init",
			Usage: "configure the sensor again after the reset",
		},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("the sensor loses its configuration, continue?")
			if err != nil {
				return console.Exit(console.ExitFailure, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "reset cancelled")
				return nil
			}
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		ready, err := s.configured()
		if err != nil {
			return console.ExitErr("sensor initialization error", err)
		}
		u, err := ready.Reset(s.ctx)
		if err != nil {
			return console.ExitErr("reset error", err)
		}
		console.Infof("sensor at 0x%02x reset", s.addr)
		if !c.Bool("init") {
			return nil
		}
		return reinit(s, u)
	},
}

func reinit(s *session, u *dps3xx.Uninitialized) error {
	if err := sleep(s.ctx, resetRecovery); err != nil {
		return err
	}
	if _, err := u.Init(s.ctx); err != nil {
		return console.ExitErr("re-initialization error", err)
	}
	console.Infof("sensor at 0x%02x configured", s.addr)
	return nil
}
