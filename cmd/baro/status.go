package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/dps3xx"
)

type statusReport struct {
	Raw            string `yaml:"meas_cfg"`
	CoefReady      bool   `yaml:"coef_ready"`
	SensorReady    bool   `yaml:"sensor_ready"`
	TempReady      bool   `yaml:"temp_ready"`
	PresReady      bool   `yaml:"pres_ready"`
	Mode           string `yaml:"mode"`
	InterruptFlags string `yaml:"int_sts"`
	FIFOFlags      string `yaml:"fifo_sts"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print the measurement status register",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "yaml",
			Usage: "print status as yaml",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		ready, err := s.configured()
		if err != nil {
			return console.ExitErr("sensor initialization error", err)
		}
		report, err := readStatus(s, ready)
		if err != nil {
			return console.ExitErr("status read error", err)
		}
		if c.Bool("yaml") {
			return console.YAML(report)
		}
		console.Printf("MEAS_CFG     %s (%s)\n", console.White(report.Raw), console.Cyan(report.Mode))
		console.Printf("coefficients %s\n", console.Flag(report.CoefReady))
		console.Printf("sensor       %s\n", console.Flag(report.SensorReady))
		console.Printf("temperature  %s\n", console.Flag(report.TempReady))
		console.Printf("pressure     %s\n", console.Flag(report.PresReady))
		console.Printf("INT_STS      %s\n", console.White(report.InterruptFlags))
		console.Printf("FIFO_STS     %s\n", console.White(report.FIFOFlags))
		return nil
	},
}

func readStatus(s *session, ready *dps3xx.Configured) (statusReport, error) {
	st, err := ready.ReadStatus(s.ctx)
	if err != nil {
		return statusReport{}, err
	}
	intSts, err := ready.ReadInterruptStatus(s.ctx)
	if err != nil {
		return statusReport{}, err
	}
	fifoSts, err := ready.ReadFIFOStatus(s.ctx)
	if err != nil {
		return statusReport{}, err
	}
	return newStatusReport(st, intSts, fifoSts), nil
}

func newStatusReport(st dps3xx.Status, intSts, fifoSts byte) statusReport {
	return statusReport{
		Raw:            formatBits(byte(st)),
		CoefReady:      st.CoefReady(),
		SensorReady:    st.SensorReady(),
		TempReady:      st.TempReady(),
		PresReady:      st.PresReady(),
		Mode:           st.Mode().String(),
		InterruptFlags: formatBits(intSts),
		FIFOFlags:      formatBits(fifoSts),
	}
}

func formatBits(b byte) string {
	s := strconv.FormatUint(uint64(b), 2)
	for len(s) < 8 {
		s = "0" + s
	}
	return "0b" + s
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
