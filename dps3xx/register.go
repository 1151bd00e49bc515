package dps3xx

import "fmt"

// Register is a DPS3xx register address.
type Register byte

const (
	RegPSRB2    Register = 0x00
	RegPSRB1    Register = 0x01
	RegPSRB0    Register = 0x02
	RegTMPB2    Register = 0x03
	RegTMPB1    Register = 0x04
	RegTMPB0    Register = 0x05
	RegPRSCfg   Register = 0x06
	RegTMPCfg   Register = 0x07
	RegMeasCfg  Register = 0x08
	RegCfgReg   Register = 0x09
	RegIntSts   Register = 0x0A
	RegFIFOSts  Register = 0x0B
	RegReset    Register = 0x0C
	RegProdID   Register = 0x0D
	RegCoef     Register = 0x10 // first of CoefficientBytes consecutive registers
	RegCoefSrce Register = 0x28
)

// Undocumented addresses used only by the start-up erratum sequence.
const (
	regScratchA Register = 0x0E
	regScratchB Register = 0x0F
	regTrigger  Register = 0x62
)

const (
	DefaultAddress   byte = 0x77
	AlternateAddress byte = 0x76 // SDO pulled low

	productID  byte = 0x10
	resetMagic byte = 0x89 // SOFT_RST=1001, FIFO_FLUSH=1

	// CoefficientBytes is the size of the calibration block starting at RegCoef.
	CoefficientBytes = 18
)

// MEAS_CFG bits
const (
	measCoefReady   byte = 1 << 7
	measSensorReady byte = 1 << 6
	measTempReady   byte = 1 << 5
	measPresReady   byte = 1 << 4
	measCtrlMask    byte = 0b0000_0111
)

// bit 7 of TMP_CFG and COEF_SRCE selects the external (MEMS) temperature sensor
const tmpExtBit byte = 1 << 7

func (r Register) String() string {
	switch r {
	case RegPSRB2:
		return "PSR_B2"
	case RegPSRB1:
		return "PSR_B1"
	case RegPSRB0:
		return "PSR_B0"
	case RegTMPB2:
		return "TMP_B2"
	case RegTMPB1:
		return "TMP_B1"
	case RegTMPB0:
		return "TMP_B0"
	case RegPRSCfg:
		return "PRS_CFG"
	case RegTMPCfg:
		return "TMP_CFG"
	case RegMeasCfg:
		return "MEAS_CFG"
	case RegCfgReg:
		return "CFG_REG"
	case RegIntSts:
		return "INT_STS"
	case RegFIFOSts:
		return "FIFO_STS"
	case RegReset:
		return "RESET"
	case RegProdID:
		return "PROD_ID"
	case RegCoefSrce:
		return "COEF_SRCE"
	}
	if r >= RegCoef && r < RegCoef+CoefficientBytes {
		return fmt.Sprintf("COEF_%d", int(r-RegCoef)+1)
	}
	return fmt.Sprintf("0x%02x", byte(r))
}
