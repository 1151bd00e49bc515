package dps3xx

import (
	"fmt"
	"time"
)

const (
	// BusyTimeScaling converts busy-time units into milliseconds.
	BusyTimeScaling = 10
	// BusyTimeFailsafeMs is added on top of every computed wait.
	BusyTimeFailsafeMs = 10
	// MaxBusyTimeUnits is the background-mode budget for one second of measurements.
	MaxBusyTimeUnits = (1000 - BusyTimeFailsafeMs) * BusyTimeScaling
)

// CalcBusyTimeUnits returns the conversion time of one second worth of
// measurements at the given rate and oversampling, in tenths of a millisecond.
func CalcBusyTimeUnits(rate Rate, oversampling Resolution) uint32 {
	return (20 << uint(rate)) + (16 << (uint(oversampling) + uint(rate)))
}

func CalcBusyTimeMs(rate Rate, oversampling Resolution) uint32 {
	return CalcBusyTimeUnits(rate, oversampling) / BusyTimeScaling
}

func CalcTotalWaitMs(rate Rate, oversampling Resolution) uint32 {
	return CalcBusyTimeMs(rate, oversampling) + BusyTimeFailsafeMs
}

// settlingTime is the wait after starting the selected measurements: the
// busy times of each active measurement add up, the failsafe is added once.
func settlingTime(config Config, pressure, temperature bool) time.Duration {
	var ms uint32
	if pressure {
		ms += CalcBusyTimeMs(config.pressureRate(), config.pressureResolution())
	}
	if temperature {
		ms += CalcBusyTimeMs(config.temperatureRate(), config.temperatureResolution())
	}
	return time.Duration(ms+BusyTimeFailsafeMs) * time.Millisecond
}

func prsCfgValue(current byte, config Config) byte {
	return (current & 0x80) |
		byte(config.pressureRate())<<4 |
		byte(config.pressureResolution())
}

// tmpCfgValue picks the temperature sensor from the config, then from the
// coefficient source reported by the device, then keeps the current bit.
func tmpCfgValue(current byte, config Config, coefSource *bool) byte {
	external := config.TemperatureExternal
	if external == nil {
		external = coefSource
	}
	ext := current & tmpExtBit
	if external != nil {
		ext = 0
		if *external {
			ext = tmpExtBit
		}
	}
	return ext |
		byte(config.temperatureRate())<<4 |
		byte(config.temperatureResolution())
}

func cfgRegValue(config Config) (byte, error) {
	tempShift, err := shiftFlag(config.TempShift, config.temperatureResolution())
	if err != nil {
		return 0, fmt.Errorf("%w: temperature resolution %d samples requires the result shift",
			ErrInvalidConfig, config.temperatureResolution().Count())
	}
	presShift, err := shiftFlag(config.PresShift, config.pressureResolution())
	if err != nil {
		return 0, fmt.Errorf("%w: pressure resolution %d samples requires the result shift",
			ErrInvalidConfig, config.pressureResolution().Count())
	}
	return bit(config.IntActiveHigh, 7) |
		bit(config.IntFIFO, 6) |
		bit(config.IntTemperature, 5) |
		bit(config.IntPressure, 4) |
		bit(tempShift, 3) |
		bit(presShift, 2) |
		bit(config.FIFOEnable, 1) |
		bit(config.SPI3Wire, 0), nil
}

func shiftFlag(explicit *bool, res Resolution) (bool, error) {
	if explicit == nil {
		return res.needsShift(), nil
	}
	if !*explicit && res.needsShift() {
		return false, ErrInvalidConfig
	}
	return *explicit, nil
}

func bit(set bool, pos uint) byte {
	if set {
		return 1 << pos
	}
	return 0
}

// MeasurementMode is the MEAS_CTRL field of MEAS_CFG.
type MeasurementMode byte

const (
	ModeIdle                  MeasurementMode = 0b000
	ModePressure              MeasurementMode = 0b001
	ModeTemperature           MeasurementMode = 0b010
	ModeContinuousPressure    MeasurementMode = 0b101
	ModeContinuousTemperature MeasurementMode = 0b110
	ModeContinuousBoth        MeasurementMode = 0b111
)

func (m MeasurementMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePressure:
		return "pressure"
	case ModeTemperature:
		return "temperature"
	case ModeContinuousPressure:
		return "continuous pressure"
	case ModeContinuousTemperature:
		return "continuous temperature"
	case ModeContinuousBoth:
		return "continuous pressure and temperature"
	}
	return fmt.Sprintf("invalid (0b%b)", byte(m))
}

func modeFor(pressure, temperature, background bool) (MeasurementMode, error) {
	switch {
	case !pressure && !temperature:
		return ModeIdle, nil
	case pressure && temperature && !background:
		return 0, fmt.Errorf("%w: single pressure and temperature measurements cannot run together", ErrInvalidConfig)
	case pressure && temperature:
		return ModeContinuousBoth, nil
	case pressure && background:
		return ModeContinuousPressure, nil
	case pressure:
		return ModePressure, nil
	case background:
		return ModeContinuousTemperature, nil
	default:
		return ModeTemperature, nil
	}
}

// backgroundBudget checks that the measurements selected for background
// mode fit into one second of conversion time.
func backgroundBudget(config Config, mode MeasurementMode) error {
	var units uint32
	if mode == ModeContinuousPressure || mode == ModeContinuousBoth {
		units += CalcBusyTimeUnits(config.pressureRate(), config.pressureResolution())
	}
	if mode == ModeContinuousTemperature || mode == ModeContinuousBoth {
		units += CalcBusyTimeUnits(config.temperatureRate(), config.temperatureResolution())
	}
	if units > MaxBusyTimeUnits {
		return fmt.Errorf("%w: background busy time %d exceeds %d units", ErrInvalidConfig, units, MaxBusyTimeUnits)
	}
	return nil
}
