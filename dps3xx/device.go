// Package dps3xx drives the Infineon DPS310/DPS368 barometric pressure and
// temperature sensor over I2C.
//
// Datasheet: https://www.infineon.com/dgdl/Infineon-DPS310-DataSheet-v01_02-EN.pdf
//
// The driver is a chain of handles, one per lifecycle phase. Every transition
// consumes the handle it is called on and returns the next one:
//
//	dev, err := dps3xx.New(ctx, bus, dps3xx.DefaultAddress, dps3xx.NewConfig())
//	pending, err := dev.StartInit(time.Now())
//	var ready *dps3xx.Configured
//	for ready == nil {
//		time.Sleep(time.Millisecond) // the caller decides how to wait
//		poll, err := pending.TryFinishInit(time.Now())
//		ready = poll.Ready
//	}
//	cal, err := ready.ReadCalibrationCoefficients(ctx)
//	t, err := cal.ReadTempCalibrated(ctx)
//
// The package itself never sleeps and starts no goroutines.
package dps3xx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/baro"
)

// readyPollLimit bounds the MEAS_CFG reads while waiting for the start-up temperature result.
const readyPollLimit = 32

// erratumSequence is the vendor workaround for the temperature sensor start-up
// defect. The addresses are undocumented; the bytes are written verbatim.
var erratumSequence = [...][2]byte{
	{byte(regScratchA), 0xA5},
	{byte(regScratchB), 0x96},
	{byte(regTrigger), 0x02},
	{byte(regScratchA), 0x00},
	{byte(regScratchB), 0x00},
}

type device struct {
	transport baro.I2CBus
	address   byte
	config    Config
	log       *slog.Logger
}

type Option func(*device)

// WithLogger replaces slog.Default for the device's debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *device) {
		d.log = logger
	}
}

// New verifies the product id, applies config, runs the start-up erratum
// workaround and flushes one temperature conversion. The returned handle
// exclusively owns bus.
func New(ctx context.Context, bus baro.I2CBus, address byte, config Config, opts ...Option) (*Unconfigured, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d := &device{
		transport: bus,
		address:   address,
		config:    config,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.configure(ctx); err != nil {
		return nil, err
	}
	return &Unconfigured{dev: d}, nil
}

func (d *device) configure(ctx context.Context) error {
	id, err := d.readByte(ctx, RegProdID)
	if err != nil {
		return err
	}
	if id != productID {
		return fmt.Errorf("%w: got 0x%02x at address 0x%02x", ErrWrongDevice, id, d.address)
	}

	prsCfg, err := d.readByte(ctx, RegPRSCfg)
	if err != nil {
		return err
	}
	if err = d.writeByte(ctx, RegPRSCfg, prsCfgValue(prsCfg, d.config)); err != nil {
		return err
	}

	tmpCfg, err := d.readByte(ctx, RegTMPCfg)
	if err != nil {
		return err
	}
	srce, err := d.readByte(ctx, RegCoefSrce)
	if err != nil {
		return err
	}
	coefSource := srce&tmpExtBit != 0
	if err = d.writeByte(ctx, RegTMPCfg, tmpCfgValue(tmpCfg, d.config, &coefSource)); err != nil {
		return err
	}

	cfgReg, err := cfgRegValue(d.config)
	if err != nil {
		return err
	}
	if err = d.writeByte(ctx, RegCfgReg, cfgReg); err != nil {
		return err
	}
	if err = d.writeByte(ctx, RegMeasCfg, byte(ModeIdle)); err != nil {
		return err
	}

	for _, w := range erratumSequence {
		if err = d.writeByte(ctx, Register(w[0]), w[1]); err != nil {
			return fmt.Errorf("dps3xx: erratum workaround: %w", err)
		}
	}

	if err = d.flushTemperature(ctx); err != nil {
		return err
	}
	d.log.Debug("dps3xx configured", "addr", d.address, "coef_source_external", coefSource)
	return nil
}

// flushTemperature runs one temperature conversion and discards the result;
// the first conversion after the erratum sequence is not trustworthy.
func (d *device) flushTemperature(ctx context.Context) error {
	if err := d.setMode(ctx, ModeTemperature); err != nil {
		return err
	}
	ready := false
	for i := 0; i < readyPollLimit; i++ {
		status, err := d.readByte(ctx, RegMeasCfg)
		if err != nil {
			return err
		}
		if status&measTempReady != 0 {
			ready = true
			break
		}
	}
	if !ready {
		return fmt.Errorf("%w: no temperature result after %d status reads", ErrInitTimeout, readyPollLimit)
	}
	if _, err := d.readRaw(ctx, RegTMPB2); err != nil {
		return err
	}
	return d.writeByte(ctx, RegMeasCfg, byte(ModeIdle))
}

// setMode rewrites the MEAS_CTRL field and keeps the remaining MEAS_CFG bits.
func (d *device) setMode(ctx context.Context, mode MeasurementMode) error {
	current, err := d.readByte(ctx, RegMeasCfg)
	if err != nil {
		return err
	}
	return d.writeByte(ctx, RegMeasCfg, current&^measCtrlMask|byte(mode))
}

func (d *device) triggerMeasurement(ctx context.Context, pressure, temperature, background bool) error {
	mode, err := modeFor(pressure, temperature, background)
	if err != nil {
		return err
	}
	if err = backgroundBudget(d.config, mode); err != nil {
		return err
	}
	d.log.Debug("dps3xx trigger measurement", "addr", d.address, "mode", mode)
	return d.setMode(ctx, mode)
}

func (d *device) reset(ctx context.Context) error {
	if err := d.writeByte(ctx, RegReset, resetMagic); err != nil {
		return err
	}
	d.log.Debug("dps3xx soft reset", "addr", d.address)
	return nil
}

func (d *device) readByte(ctx context.Context, reg Register) (byte, error) {
	var buf [1]byte
	if err := d.read(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readRaw reads a 24-bit result register block starting at reg.
func (d *device) readRaw(ctx context.Context, reg Register) (int32, error) {
	var buf [3]byte
	if err := d.read(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return SignExtend24(buf), nil
}

func (d *device) read(ctx context.Context, reg Register, buf []byte) error {
	err := d.transport.WriteToAddr(ctx, d.address, []byte{byte(reg)})
	if err != nil {
		return &BusError{Op: "select", Register: reg, Err: err}
	}
	err = d.transport.ReadFromAddr(ctx, d.address, buf)
	if err != nil {
		return &BusError{Op: "read", Register: reg, Err: err}
	}
	return nil
}

func (d *device) writeByte(ctx context.Context, reg Register, value byte) error {
	err := d.transport.WriteToAddr(ctx, d.address, []byte{byte(reg), value})
	if err != nil {
		return &BusError{Op: "write", Register: reg, Err: err}
	}
	return nil
}
