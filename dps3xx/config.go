package dps3xx

import (
	"fmt"
	"time"
)

// Rate is the measurement rate as log2 of measurements per second (PM_RATE / TMP_RATE).
type Rate uint8

const (
	Rate1Hz Rate = iota
	Rate2Hz
	Rate4Hz
	Rate8Hz
	Rate16Hz
	Rate32Hz
	Rate64Hz
	Rate128Hz // background mode only
)

// Resolution is the oversampling as log2 of samples per result (PM_PRC / TMP_PRC).
type Resolution uint8

const (
	Samples1 Resolution = iota
	Samples2
	Samples4
	Samples8
	Samples16
	Samples32
	Samples64
	Samples128 // background mode only
)

const DefaultInitTimeout = 5 * time.Second

// Count returns measurements per second.
func (r Rate) Count() int { return 1 << r }

// Count returns samples per result.
func (r Resolution) Count() int { return 1 << r }

// needsShift reports whether results at this resolution no longer fit the
// 24-bit result register without the CFG_REG shift bit.
func (r Resolution) needsShift() bool { return r > Samples8 }

// RateFromCount converts 1, 2, 4, ... 128 measurements per second into a Rate.
func RateFromCount(n int) (Rate, error) {
	step, err := log2Step(n)
	if err != nil {
		return 0, fmt.Errorf("rate %d: %w", n, err)
	}
	return Rate(step), nil
}

// ResolutionFromCount converts 1, 2, 4, ... 128 samples into a Resolution.
func ResolutionFromCount(n int) (Resolution, error) {
	step, err := log2Step(n)
	if err != nil {
		return 0, fmt.Errorf("resolution %d: %w", n, err)
	}
	return Resolution(step), nil
}

func log2Step(n int) (uint8, error) {
	for step := uint8(0); step < 8; step++ {
		if 1<<step == n {
			return step, nil
		}
	}
	return 0, fmt.Errorf("%w: expected a power of two between 1 and 128", ErrInvalidConfig)
}

// Config holds the settings applied during construction. Nil optional fields
// fall back to the lowest rate/resolution, the device-reported coefficient
// source and shift bits derived from the resolution.
type Config struct {
	PressureRate          *Rate
	PressureResolution    *Resolution
	TemperatureRate       *Rate
	TemperatureResolution *Resolution
	TemperatureExternal   *bool

	IntActiveHigh  bool
	IntFIFO        bool
	IntTemperature bool
	IntPressure    bool

	// TempShift and PresShift force the result bit-shift. Leaving them nil
	// enables the shift exactly when the resolution exceeds 8 samples.
	TempShift *bool
	PresShift *bool

	FIFOEnable bool
	SPI3Wire   bool

	InitTimeout time.Duration
}

type ConfigOption func(*Config)

func WithPressureRate(rate Rate) ConfigOption {
	return func(c *Config) {
		c.PressureRate = &rate
	}
}

func WithPressureResolution(res Resolution) ConfigOption {
	return func(c *Config) {
		c.PressureResolution = &res
	}
}

func WithTemperatureRate(rate Rate) ConfigOption {
	return func(c *Config) {
		c.TemperatureRate = &rate
	}
}

func WithTemperatureResolution(res Resolution) ConfigOption {
	return func(c *Config) {
		c.TemperatureResolution = &res
	}
}

// WithExternalTemperature selects the external (MEMS) temperature sensor
// instead of the one the calibration coefficients were derived against.
func WithExternalTemperature(external bool) ConfigOption {
	return func(c *Config) {
		c.TemperatureExternal = &external
	}
}

// WithInterruptActiveHigh sets the interrupt (SDO pin) active level.
func WithInterruptActiveHigh(high bool) ConfigOption {
	return func(c *Config) {
		c.IntActiveHigh = high
	}
}

// WithInterrupts selects the interrupt sources.
func WithInterrupts(fifoFull, temperature, pressure bool) ConfigOption {
	return func(c *Config) {
		c.IntFIFO = fifoFull
		c.IntTemperature = temperature
		c.IntPressure = pressure
	}
}

// WithTemperatureShift forces the temperature result bit-shift. It must be
// enabled when the temperature resolution exceeds 8 samples.
func WithTemperatureShift(enable bool) ConfigOption {
	return func(c *Config) {
		c.TempShift = &enable
	}
}

// WithPressureShift forces the pressure result bit-shift. It must be
// enabled when the pressure resolution exceeds 8 samples.
func WithPressureShift(enable bool) ConfigOption {
	return func(c *Config) {
		c.PresShift = &enable
	}
}

func WithFIFO(interruptOnFull, enable bool) ConfigOption {
	return func(c *Config) {
		c.IntFIFO = interruptOnFull
		c.FIFOEnable = enable
	}
}

// WithSPIThreeWire sets the SPI mode bit (false: 4-wire, true: 3-wire).
func WithSPIThreeWire(threeWire bool) ConfigOption {
	return func(c *Config) {
		c.SPI3Wire = threeWire
	}
}

func WithInitTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.InitTimeout = timeout
	}
}

// NewConfig returns the default configuration modified by opts.
func NewConfig(opts ...ConfigOption) Config {
	config := Config{InitTimeout: DefaultInitTimeout}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func (c Config) pressureRate() Rate {
	if c.PressureRate == nil {
		return Rate1Hz
	}
	return *c.PressureRate
}

func (c Config) pressureResolution() Resolution {
	if c.PressureResolution == nil {
		return Samples1
	}
	return *c.PressureResolution
}

func (c Config) temperatureRate() Rate {
	if c.TemperatureRate == nil {
		return Rate1Hz
	}
	return *c.TemperatureRate
}

func (c Config) temperatureResolution() Resolution {
	if c.TemperatureResolution == nil {
		return Samples1
	}
	return *c.TemperatureResolution
}

func (c Config) initTimeout() time.Duration {
	if c.InitTimeout <= 0 {
		return DefaultInitTimeout
	}
	return c.InitTimeout
}

// Validate reports statically detectable inconsistencies. New calls it
// before any bus traffic.
func (c Config) Validate() error {
	if c.pressureRate() > Rate128Hz || c.temperatureRate() > Rate128Hz {
		return fmt.Errorf("%w: rate out of range", ErrInvalidConfig)
	}
	if c.pressureResolution() > Samples128 || c.temperatureResolution() > Samples128 {
		return fmt.Errorf("%w: resolution out of range", ErrInvalidConfig)
	}
	if _, err := cfgRegValue(c); err != nil {
		return err
	}
	if wait, timeout := settlingTime(c, true, true), c.initTimeout(); wait > timeout {
		return fmt.Errorf("%w: settling takes %s, longer than the init timeout %s", ErrInvalidConfig, wait, timeout)
	}
	return nil
}
