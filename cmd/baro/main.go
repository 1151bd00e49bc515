package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baro/cmd/baro/console"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app := newApp()
	err := app.RunContext(ctx, args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			console.Errorf("%s", err)
			return exerr.ExitCode()
		}
		console.Errorf("unexpected error: %s", err)
		return console.ExitFailure
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "baro"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "DPS310/DPS368 barometer cli"
	// run reports errors and picks the exit code
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and bus frame dumps",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   adapterMCP2221,
			Usage:   "bus adapter: mcp2221, periph or nanopi",
			EnvVars: []string{"BARO_ADAPTER"},
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Usage:   "periph bus name (e.g. /dev/i2c-1) or nanopi bus number",
			EnvVars: []string{"BARO_DEVICE"},
		},
		&cli.IntFlag{
			Name:  "usb-index",
			Value: -1,
			Usage: "MCP2221 index when several bridges are attached",
		},
		&cli.StringFlag{
			Name:  "addr",
			Value: "0x77",
			Usage: "sensor I2C address (0x77 or 0x76)",
		},
		&cli.IntFlag{
			Name:  "speed",
			Usage: "bus clock in kHz; 0 keeps the adapter default",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "sensor configuration file (yaml)",
			EnvVars: []string{"BARO_CONFIG"},
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&statusCmd,
		&coefficientsCmd,
		&resetCmd,
		&busyCmd,
		&serveCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	return app
}
