package adapter

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/baro"
)

// hidScript answers each written report with the next scripted response.
type hidScript struct {
	requests  [][]byte
	responses [][]byte
	closed    int
}

func (s *hidScript) Write(p []byte) (int, error) {
	s.requests = append(s.requests, append([]byte(nil), p...))
	return len(p), nil
}

func (s *hidScript) Read(p []byte) (int, error) {
	if len(s.responses) == 0 {
		return 0, io.EOF
	}
	resp := make([]byte, reportSize)
	copy(resp, s.responses[0])
	s.responses = s.responses[1:]
	return copy(p, resp), nil
}

func (s *hidScript) Close() error {
	s.closed++
	return nil
}

func newScripted(responses ...[]byte) (*MCP2221, *hidScript) {
	script := &hidScript{responses: responses}
	d := NewMCP2221(WithResponseWait(0))
	d.open = func(int) (io.ReadWriteCloser, error) { return script, nil }
	return d, script
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	d, script := newScripted([]byte{cmdI2CWriteData, 0x00})
	require.NoError(t, d.WriteToAddr(context.Background(), 0x77, []byte{0x0C, 0x89}))
	require.Len(t, script.requests, 1)
	req := script.requests[0]
	assert.Len(t, req, reportSize)
	assert.Equal(t, []byte{cmdI2CWriteData, 0x02, 0x00, 0xEE, 0x0C, 0x89}, req[:6])
	assert.Equal(t, 1, script.closed)
}

func TestMCP2221_WriteToAddr_Busy(t *testing.T) {
	d, _ := newScripted([]byte{cmdI2CWriteData, 0x01})
	err := d.WriteToAddr(context.Background(), 0x77, []byte{0x0D})
	assert.ErrorIs(t, err, baro.ErrBusBusy)
}

func TestMCP2221_ReadFromAddr(t *testing.T) {
	d, script := newScripted(
		[]byte{cmdI2CReadData, 0x00},
		[]byte{cmdI2CGetData, 0x00, 0x00, 0x03, 0xAA, 0xBB, 0xCC},
	)
	buf := make([]byte, 3)
	require.NoError(t, d.ReadFromAddr(context.Background(), 0x77, buf))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, buf)
	require.Len(t, script.requests, 2)
	assert.Equal(t, []byte{cmdI2CReadData, 0x03, 0x00, 0xEF}, script.requests[0][:4])
	assert.Equal(t, cmdI2CGetData, script.requests[1][0])
}

func TestMCP2221_ReadFromAddr_Errors(t *testing.T) {
	tests := []struct {
		name    string
		getData []byte
	}{
		{"engine error", []byte{cmdI2CGetData, i2cGetDataError}},
		{"size mismatch", []byte{cmdI2CGetData, 0x00, 0x00, 0x02}},
		{"invalid size", []byte{cmdI2CGetData, 0x00, 0x00, 127}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, _ := newScripted([]byte{cmdI2CReadData, 0x00}, test.getData)
			err := d.ReadFromAddr(context.Background(), 0x77, make([]byte, 3))
			assert.Error(t, err)
		})
	}
}

func TestMCP2221_SetSpeed(t *testing.T) {
	d, script := newScripted([]byte{cmdStatusSetParameters, 0x00, 0x00, statusSetSpeed})
	require.NoError(t, d.SetSpeed(context.Background(), 100*physic.KiloHertz))
	assert.Equal(t, byte(117), script.requests[0][4])
	assert.Equal(t, statusSetSpeed, script.requests[0][3])

	d, _ = newScripted([]byte{cmdStatusSetParameters, 0x00, 0x00, speedNotSet})
	err := d.SetSpeed(context.Background(), 400*physic.KiloHertz)
	assert.ErrorIs(t, err, baro.ErrBusBusy)

	assert.Error(t, d.SetSpeed(context.Background(), 10*physic.KiloHertz))
	assert.Error(t, d.SetSpeed(context.Background(), 4*physic.MegaHertz))
}

func TestMCP2221_Status(t *testing.T) {
	resp := make([]byte, reportSize)
	resp[0] = cmdStatusSetParameters
	resp[9], resp[10] = 0x12, 0x00
	resp[11], resp[12] = 0x10, 0x00
	resp[13] = 4
	resp[14] = 117
	resp[15] = 9
	resp[16], resp[17] = 0xEE, 0x00
	resp[25] = 1
	d, script := newScripted(resp)
	status, err := d.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        117,
		I2CTimeout:             9,
		CurrentAddress:         "ee00",
		LastWriteRequestedSize: 0x12,
		LastWriteSentSize:      0x10,
		ReadPending:            1,
	}, status)
	assert.Equal(t, byte(0x00), script.requests[0][2])
}

func TestMCP2221_Release(t *testing.T) {
	d, script := newScripted([]byte{cmdStatusSetParameters})
	require.NoError(t, d.Release(context.Background()))
	assert.Equal(t, statusCancelTransfer, script.requests[0][2])
}

func TestMCP2221_OpenError(t *testing.T) {
	d := NewMCP2221()
	d.open = func(int) (io.ReadWriteCloser, error) { return nil, ErrDeviceNotFound }
	err := d.WriteToAddr(context.Background(), 0x77, nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_ContextCancelled(t *testing.T) {
	script := &hidScript{responses: [][]byte{{cmdI2CWriteData}}}
	d := NewMCP2221(WithResponseWait(time.Hour))
	d.open = func(int) (io.ReadWriteCloser, error) { return script, nil }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.WriteToAddr(ctx, 0x77, []byte{0x00})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, script.closed)
}
