package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/baro"
	"github.com/mklimuk/baro/adapter"
	"github.com/mklimuk/baro/cmd/baro/console"
	"github.com/mklimuk/baro/dps3xx"
	"github.com/mklimuk/baro/i2c"
	"github.com/mklimuk/baro/snsctx"
)

// resetRecovery is how long the sensor ignores the bus after a soft reset.
const resetRecovery = 40 * time.Millisecond

const (
	adapterMCP2221 = "mcp2221"
	adapterPeriph  = "periph"
	adapterNanoPi  = "nanopi"
)

// session bundles what every sensor command needs: the bus, the parsed
// configuration and a context carrying the verbose flag.
type session struct {
	ctx     context.Context
	bus     baro.I2CBus
	addr    byte
	file    fileConfig
	config  dps3xx.Config
	closeFn func()
}

func (s *session) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func openSession(c *cli.Context) (*session, error) {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	addr, err := parseAddr(c.String("addr"))
	if err != nil {
		return nil, console.Exit(console.ExitConfig, "invalid address: %s", console.Red(err))
	}
	fc, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, console.Exit(console.ExitConfig, "%s", console.Red(err))
	}
	cfg, err := fc.sensorConfig()
	if err != nil {
		return nil, console.ExitErr("invalid sensor configuration", err)
	}
	bus, closeFn, err := openBus(ctx, c)
	if err != nil {
		return nil, console.ExitErr("adapter initialization error", err)
	}
	return &session{ctx: ctx, bus: bus, addr: addr, file: fc, config: cfg, closeFn: closeFn}, nil
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	if v > 0x7F {
		return 0, fmt.Errorf("%#x is not a 7-bit address", v)
	}
	return byte(v), nil
}

func openBus(ctx context.Context, c *cli.Context) (baro.I2CBus, func(), error) {
	speed := physic.Frequency(c.Int("speed")) * physic.KiloHertz
	switch c.String("adapter") {
	case adapterMCP2221:
		bridge := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("usb-index")))
		if speed > 0 {
			if err := bridge.SetSpeed(ctx, speed); err != nil {
				return nil, nil, err
			}
		}
		return bridge, func() {}, nil
	case adapterPeriph:
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		if speed > 0 {
			if err = bus.SetSpeed(speed); err != nil {
				_ = bus.Close()
				return nil, nil, err
			}
		}
		return bus, func() { _ = bus.Close() }, nil
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		var opts []i2c.GobotOption
		if dev := c.String("device"); dev != "" {
			n, err := strconv.Atoi(dev)
			if err != nil {
				_ = npi.I2cBusAdaptor.Finalize()
				return nil, nil, fmt.Errorf("nanopi bus must be a number: %w", err)
			}
			opts = append(opts, i2c.WithBusNumber(n))
		}
		bus := i2c.NewGobotBus(npi, opts...)
		return bus, func() {
			if err := bus.Release(ctx); err != nil {
				slog.Warn("could not release bus", "error", err)
			}
			_ = npi.I2cBusAdaptor.Finalize()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// configured runs construction and waits out the settling gate.
func (s *session) configured() (*dps3xx.Configured, error) {
	dev, err := dps3xx.New(s.ctx, s.bus, s.addr, s.config)
	if err != nil {
		return nil, err
	}
	pending, err := dev.StartInit(time.Now())
	if err != nil {
		return nil, err
	}
	for {
		poll, err := pending.TryFinishInit(time.Now())
		if err != nil {
			return nil, err
		}
		if poll.Ready != nil {
			return poll.Ready, nil
		}
		if err = sleep(s.ctx, time.Until(pending.Deadline())); err != nil {
			return nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *session) calibrated() (*dps3xx.Calibrated, error) {
	ready, err := s.configured()
	if err != nil {
		return nil, err
	}
	return ready.ReadCalibrationCoefficients(s.ctx)
}
