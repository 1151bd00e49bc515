package dps3xx

import "math"

// scaleFactors normalize raw results per oversampling setting (datasheet table 9).
var scaleFactors = [8]float64{
	524288,
	1572864,
	3670016,
	7864320,
	253952,
	516096,
	1040384,
	2088960,
}

// ScaleFactor returns the compensation scale factor for an oversampling setting.
func ScaleFactor(res Resolution) float64 {
	return scaleFactors[res&0x07]
}

// Coefficients are the factory calibration coefficients of one device.
type Coefficients struct {
	C0  int32 `yaml:"c0"`
	C1  int32 `yaml:"c1"`
	C00 int32 `yaml:"c00"`
	C10 int32 `yaml:"c10"`
	C01 int32 `yaml:"c01"`
	C11 int32 `yaml:"c11"`
	C20 int32 `yaml:"c20"`
	C21 int32 `yaml:"c21"`
	C30 int32 `yaml:"c30"`
}

// DecodeCoefficients unpacks the COEF register block. c0 and c1 are 12 bit,
// c00 and c10 are 20 bit, the rest are 16 bit, all two's complement:
//
//	c0  = raw[0]<<4 | raw[1]>>4
//	c1  = (raw[1]&0x0F)<<8 | raw[2]
//	c00 = raw[3]<<12 | raw[4]<<4 | raw[5]>>4
//	c10 = (raw[5]&0x0F)<<16 | raw[6]<<8 | raw[7]
//	c01..c30 = raw[8..17] as big-endian pairs
func DecodeCoefficients(raw [CoefficientBytes]byte) Coefficients {
	u := func(i int) uint32 { return uint32(raw[i]) }
	pair := func(i int) int32 { return signExtend(u(i)<<8|u(i+1), 16) }
	return Coefficients{
		C0:  signExtend(u(0)<<4|u(1)>>4, 12),
		C1:  signExtend((u(1)&0x0F)<<8|u(2), 12),
		C00: signExtend(u(3)<<12|u(4)<<4|u(5)>>4, 20),
		C10: signExtend((u(5)&0x0F)<<16|u(6)<<8|u(7), 20),
		C01: pair(8),
		C11: pair(10),
		C20: pair(12),
		C21: pair(14),
		C30: pair(16),
	}
}

// signExtend interprets the low width bits of v as a two's complement value.
func signExtend(v uint32, width uint) int32 {
	v &= 1<<width - 1
	if v&(1<<(width-1)) != 0 {
		return int32(v) - int32(1<<width)
	}
	return int32(v)
}

// SignExtend24 converts a big-endian 24-bit result register into a signed value.
func SignExtend24(b [3]byte) int32 {
	return signExtend(uint32(b[0])<<16|uint32(b[1])<<8|uint32(b[2]), 24)
}

// CompensateTemperature returns the temperature in degrees Celsius.
func CompensateTemperature(raw int32, c Coefficients, scale float64) float64 {
	return float64(c.C0)*0.5 + float64(c.C1)*(float64(raw)/scale)
}

// CompensatePressure returns the pressure in Pascal.
func CompensatePressure(rawP, rawT int32, c Coefficients, scaleP, scaleT float64) float64 {
	pSc := float64(rawP) / scaleP
	tSc := float64(rawT) / scaleT
	c00, c10, c20, c30 := float64(c.C00), float64(c.C10), float64(c.C20), float64(c.C30)
	c01, c11, c21 := float64(c.C01), float64(c.C11), float64(c.C21)
	return c00 + pSc*(c10+pSc*(c20+pSc*c30)) + tSc*c01 + tSc*pSc*(c11+pSc*c21)
}

// Altitude converts a pressure into metres above the given sea level pressure
// using the international barometric formula. Both pressures are in Pascal.
func Altitude(pressure, seaLevel float64) float64 {
	return 44330 * (1 - math.Pow(pressure/seaLevel, 0.1903))
}
