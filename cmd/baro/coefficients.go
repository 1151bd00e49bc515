package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
)

var coefficientsCmd = cli.Command{
	Name:    "coefficients",
	Aliases: []string{"coef"},
	Usage:   "print the factory calibration coefficients",
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		cal, err := s.calibrated()
		if err != nil {
			return console.ExitErr("coefficient read error", err)
		}
		return console.YAML(cal.Coefficients())
	},
}
