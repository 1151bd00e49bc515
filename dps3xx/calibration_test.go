package dps3xx

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// referenceCoef exercises sign extension in every coefficient field.
var referenceCoef = [CoefficientBytes]byte{
	0x12, 0x3F, 0xAB, 0x80, 0x01, 0x2F, 0xFF, 0xFF, 0x7F,
	0xFF, 0x80, 0x00, 0x00, 0x01, 0xFF, 0xFE, 0x12, 0x34,
}

// encodeCoefficients packs c the way the device lays out the COEF block.
func encodeCoefficients(c Coefficients) [CoefficientBytes]byte {
	var raw [CoefficientBytes]byte
	u := func(v int32, width uint) uint32 { return uint32(v) & (1<<width - 1) }
	c0, c1 := u(c.C0, 12), u(c.C1, 12)
	raw[0] = byte(c0 >> 4)
	raw[1] = byte(c0&0x0F)<<4 | byte(c1>>8)
	raw[2] = byte(c1)
	c00, c10 := u(c.C00, 20), u(c.C10, 20)
	raw[3] = byte(c00 >> 12)
	raw[4] = byte(c00 >> 4)
	raw[5] = byte(c00&0x0F)<<4 | byte(c10>>16)
	raw[6] = byte(c10 >> 8)
	raw[7] = byte(c10)
	for i, v := range []int32{c.C01, c.C11, c.C20, c.C21, c.C30} {
		binary.BigEndian.PutUint16(raw[8+2*i:], uint16(v))
	}
	return raw
}

func TestDecodeCoefficients(t *testing.T) {
	expected := Coefficients{
		C0:  291,
		C1:  -85,
		C00: -524270,
		C10: -1,
		C01: 32767,
		C11: -32768,
		C20: 1,
		C21: -2,
		C30: 4660,
	}
	assert.Equal(t, expected, DecodeCoefficients(referenceCoef))
	assert.Equal(t, Coefficients{}, DecodeCoefficients([CoefficientBytes]byte{}))
}

func TestDecodeCoefficients_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(310))
	for i := 0; i < 200; i++ {
		var raw [CoefficientBytes]byte
		rnd.Read(raw[:])
		t.Run(hex.EncodeToString(raw[:]), func(t *testing.T) {
			c := DecodeCoefficients(raw)
			assert.Equal(t, raw, encodeCoefficients(c))
			assert.GreaterOrEqual(t, c.C0, int32(-2048))
			assert.Less(t, c.C0, int32(2048))
			assert.GreaterOrEqual(t, c.C00, int32(-524288))
			assert.Less(t, c.C00, int32(524288))
			assert.GreaterOrEqual(t, c.C30, int32(-32768))
			assert.Less(t, c.C30, int32(32768))
		})
	}
}

func TestSignExtend24(t *testing.T) {
	tests := []struct {
		given    [3]byte
		expected int32
	}{
		{[3]byte{0x00, 0x00, 0x00}, 0},
		{[3]byte{0x00, 0x04, 0x00}, 1024},
		{[3]byte{0x7F, 0xFF, 0xFF}, 8388607},
		{[3]byte{0x80, 0x00, 0x00}, -8388608},
		{[3]byte{0xFF, 0xFF, 0xFF}, -1},
		{[3]byte{0xFC, 0x00, 0x00}, -262144},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given[:]), func(t *testing.T) {
			assert.Equal(t, test.expected, SignExtend24(test.given))
		})
	}
}

func TestScaleFactor(t *testing.T) {
	assert.Equal(t, 524288.0, ScaleFactor(Samples1))
	assert.Equal(t, 253952.0, ScaleFactor(Samples16))
	assert.Equal(t, 2088960.0, ScaleFactor(Samples128))
}

func TestCompensateTemperature(t *testing.T) {
	c := Coefficients{C0: 100, C1: -50}
	tests := []struct {
		name     string
		raw      int32
		expected float64
	}{
		{"full scale", 524288, 0},
		{"zero", 0, 50},
		{"negative half scale", -262144, 75},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expected, CompensateTemperature(test.raw, c, 524288), 1e-9)
		})
	}
	assert.Equal(t, 0.0, CompensateTemperature(1024, Coefficients{}, 524288))
}

func TestCompensatePressure(t *testing.T) {
	c := Coefficients{C00: 100000, C10: 2000, C20: 400, C30: 80}
	assert.InDelta(t, 101110.0, CompensatePressure(262144, 0, c, 524288, 524288), 1e-9)

	c.C01, c.C11, c.C21 = -30, 20, 8
	assert.InDelta(t, 101092.0, CompensatePressure(262144, 524288, c, 524288, 524288), 1e-9)

	assert.Equal(t, 0.0, CompensatePressure(1024, 1024, Coefficients{}, 524288, 524288))
}

func TestAltitude(t *testing.T) {
	assert.Equal(t, 0.0, Altitude(101325, 101325))
	assert.InDelta(t, 1000, Altitude(89874.6, 101325), 2)
	assert.Less(t, Altitude(102000, 101325), 0.0)
}
