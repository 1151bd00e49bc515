package dps3xx

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/baro"
)

// Unconfigured is a device that passed construction and waits for the
// settling gate to be started.
type Unconfigured struct {
	dev *device
}

// StartInit starts the settling gate at now. It issues no bus traffic.
func (u *Unconfigured) StartInit(now time.Time) (*InitInProgress, error) {
	d, err := take(&u.dev)
	if err != nil {
		return nil, err
	}
	wait := settlingTime(d.config, true, true)
	d.log.Debug("dps3xx settling", "addr", d.address, "wait", wait)
	return &InitInProgress{dev: d, started: now, deadline: now.Add(wait)}, nil
}

func (u *Unconfigured) Reset(ctx context.Context) (*Uninitialized, error) {
	return resetHandle(ctx, &u.dev)
}

// InitInProgress is a device inside its settling time.
type InitInProgress struct {
	dev      *device
	started  time.Time
	deadline time.Time
}

// InitPoll is the outcome of TryFinishInit; exactly one field is set.
type InitPoll struct {
	Ready   *Configured
	Pending *InitInProgress
}

// Deadline is the earliest time TryFinishInit reports the device ready.
func (p *InitInProgress) Deadline() time.Time {
	return p.deadline
}

// TryFinishInit compares now against the settling deadline. Once the deadline
// has passed the handle is consumed and InitPoll.Ready is set; before that
// the same handle comes back in InitPoll.Pending. ErrInitTimeout is returned
// once the init timeout has elapsed on a device whose settling window is
// longer than that timeout, however often it was polled; the handle then
// stays usable for Reset.
func (p *InitInProgress) TryFinishInit(now time.Time) (InitPoll, error) {
	if p.dev == nil {
		return InitPoll{}, ErrConsumed
	}
	timeout := p.dev.config.initTimeout()
	if p.deadline.Sub(p.started) > timeout && !now.Before(p.started.Add(timeout)) {
		return InitPoll{}, fmt.Errorf("%w: settling needs %s, timeout is %s",
			ErrInitTimeout, p.deadline.Sub(p.started), timeout)
	}
	if !now.Before(p.deadline) {
		d, _ := take(&p.dev)
		d.log.Debug("dps3xx ready", "addr", d.address)
		return InitPoll{Ready: &Configured{session{dev: d}}}, nil
	}
	return InitPoll{Pending: p}, nil
}

func (p *InitInProgress) Reset(ctx context.Context) (*Uninitialized, error) {
	return resetHandle(ctx, &p.dev)
}

// Session is the capability set shared by Configured and Calibrated.
type Session interface {
	TriggerMeasurement(ctx context.Context, pressure, temperature, background bool) error
	ReadStatus(ctx context.Context) (Status, error)
	CoefReady(ctx context.Context) (bool, error)
	InitComplete(ctx context.Context) (bool, error)
	TempReady(ctx context.Context) (bool, error)
	PresReady(ctx context.Context) (bool, error)
	MeasurementWait(pressure, temperature bool) time.Duration
	Reset(ctx context.Context) (*Uninitialized, error)
}

var (
	_ Session = &Configured{}
	_ Session = &Calibrated{}
)

type session struct {
	dev *device
}

// TriggerMeasurement sets the measurement mode and returns without waiting
// for the result. Single pressure together with single temperature is
// rejected; background selects the continuous variants.
func (s *session) TriggerMeasurement(ctx context.Context, pressure, temperature, background bool) error {
	if s.dev == nil {
		return ErrConsumed
	}
	return s.dev.triggerMeasurement(ctx, pressure, temperature, background)
}

// MeasurementWait returns how long a triggered measurement takes to settle.
func (s *session) MeasurementWait(pressure, temperature bool) time.Duration {
	if s.dev == nil {
		return 0
	}
	return settlingTime(s.dev.config, pressure, temperature)
}

// ReadStatus reads MEAS_CFG.
func (s *session) ReadStatus(ctx context.Context) (Status, error) {
	if s.dev == nil {
		return 0, ErrConsumed
	}
	v, err := s.dev.readByte(ctx, RegMeasCfg)
	return Status(v), err
}

func (s *session) CoefReady(ctx context.Context) (bool, error) {
	st, err := s.ReadStatus(ctx)
	return st.CoefReady(), err
}

func (s *session) InitComplete(ctx context.Context) (bool, error) {
	st, err := s.ReadStatus(ctx)
	return st.SensorReady(), err
}

func (s *session) TempReady(ctx context.Context) (bool, error) {
	st, err := s.ReadStatus(ctx)
	return st.TempReady(), err
}

func (s *session) PresReady(ctx context.Context) (bool, error) {
	st, err := s.ReadStatus(ctx)
	return st.PresReady(), err
}

// ReadInterruptStatus reads INT_STS; reading clears the flags.
func (s *session) ReadInterruptStatus(ctx context.Context) (byte, error) {
	if s.dev == nil {
		return 0, ErrConsumed
	}
	return s.dev.readByte(ctx, RegIntSts)
}

func (s *session) ReadFIFOStatus(ctx context.Context) (byte, error) {
	if s.dev == nil {
		return 0, ErrConsumed
	}
	return s.dev.readByte(ctx, RegFIFOSts)
}

// Reset issues a soft reset. The device loses its configuration; the
// returned handle can only re-run construction.
func (s *session) Reset(ctx context.Context) (*Uninitialized, error) {
	return resetHandle(ctx, &s.dev)
}

// Configured is a settled device whose calibration has not been loaded.
type Configured struct {
	session
}

// ReadCalibrationCoefficients reads and decodes the COEF block.
func (c *Configured) ReadCalibrationCoefficients(ctx context.Context) (*Calibrated, error) {
	if c.dev == nil {
		return nil, ErrConsumed
	}
	var raw [CoefficientBytes]byte
	if err := c.dev.read(ctx, RegCoef, raw[:]); err != nil {
		return nil, err
	}
	d, _ := take(&c.dev)
	coef := DecodeCoefficients(raw)
	d.log.Debug("dps3xx calibrated", "addr", d.address, "coefficients", coef)
	return &Calibrated{session: session{dev: d}, coef: coef}, nil
}

// Calibrated is a device with decoded calibration coefficients.
type Calibrated struct {
	session
	coef Coefficients
}

func (c *Calibrated) Coefficients() Coefficients {
	return c.coef
}

// ReadTempCalibrated returns the last temperature result in degrees Celsius.
func (c *Calibrated) ReadTempCalibrated(ctx context.Context) (float64, error) {
	if c.dev == nil {
		return 0, ErrConsumed
	}
	raw, scale, err := c.dev.readResult(ctx, RegTMPCfg, RegTMPB2)
	if err != nil {
		return 0, err
	}
	return CompensateTemperature(raw, c.coef, scale), nil
}

// ReadPressureCalibrated returns the last pressure result in Pascal,
// compensated with the last temperature result.
func (c *Calibrated) ReadPressureCalibrated(ctx context.Context) (float64, error) {
	_, p, err := c.readBoth(ctx)
	return p, err
}

// Sense fills e with the last temperature and pressure results.
func (c *Calibrated) Sense(ctx context.Context, e *physic.Env) error {
	t, p, err := c.readBoth(ctx)
	if err != nil {
		return err
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(t*float64(physic.Kelvin))
	e.Pressure = physic.Pressure(p * float64(physic.Pascal))
	return nil
}

func (c *Calibrated) readBoth(ctx context.Context) (temperature, pressure float64, err error) {
	if c.dev == nil {
		return 0, 0, ErrConsumed
	}
	rawP, scaleP, err := c.dev.readResult(ctx, RegPRSCfg, RegPSRB2)
	if err != nil {
		return 0, 0, err
	}
	rawT, scaleT, err := c.dev.readResult(ctx, RegTMPCfg, RegTMPB2)
	if err != nil {
		return 0, 0, err
	}
	return CompensateTemperature(rawT, c.coef, scaleT),
		CompensatePressure(rawP, rawT, c.coef, scaleP, scaleT), nil
}

// readResult reads the oversampling from cfg and the raw result at result.
func (d *device) readResult(ctx context.Context, cfg, result Register) (int32, float64, error) {
	v, err := d.readByte(ctx, cfg)
	if err != nil {
		return 0, 0, err
	}
	raw, err := d.readRaw(ctx, result)
	if err != nil {
		return 0, 0, err
	}
	return raw, ScaleFactor(Resolution(v & 0x07)), nil
}

// Uninitialized is a device after a soft reset. It still owns the bus,
// address and config.
type Uninitialized struct {
	dev *device
}

// Init re-runs construction with the original bus, address and config.
// The device needs about 40 ms after a reset before it answers again.
func (u *Uninitialized) Init(ctx context.Context) (*Unconfigured, error) {
	if u.dev == nil {
		return nil, ErrConsumed
	}
	if err := u.dev.configure(ctx); err != nil {
		return nil, err
	}
	d, _ := take(&u.dev)
	return &Unconfigured{dev: d}, nil
}

// Release gives up the device and hands back its bus.
func (u *Uninitialized) Release() (baro.I2CBus, error) {
	d, err := take(&u.dev)
	if err != nil {
		return nil, err
	}
	return d.transport, nil
}

// Status is the MEAS_CFG register content.
type Status byte

func (s Status) CoefReady() bool       { return byte(s)&measCoefReady != 0 }
func (s Status) SensorReady() bool     { return byte(s)&measSensorReady != 0 }
func (s Status) TempReady() bool       { return byte(s)&measTempReady != 0 }
func (s Status) PresReady() bool       { return byte(s)&measPresReady != 0 }
func (s Status) Mode() MeasurementMode { return MeasurementMode(byte(s) & measCtrlMask) }

func take(p **device) (*device, error) {
	if *p == nil {
		return nil, ErrConsumed
	}
	d := *p
	*p = nil
	return d, nil
}

func resetHandle(ctx context.Context, p **device) (*Uninitialized, error) {
	if *p == nil {
		return nil, ErrConsumed
	}
	if err := (*p).reset(ctx); err != nil {
		return nil, err
	}
	d, _ := take(p)
	return &Uninitialized{dev: d}, nil
}
