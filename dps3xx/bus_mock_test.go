package dps3xx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

const testAddr = DefaultAddress

// MockI2CBus is a mock implementation of baro.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	// copy so recorded calls do not alias driver buffers
	args := m.Called(ctx, address, append([]byte(nil), buffer...))
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// transcript records the exact bus traffic a test expects, in order.
type transcript struct {
	bus   *MockI2CBus
	calls []*mock.Call
}

func newTranscript() *transcript {
	return &transcript{bus: new(MockI2CBus)}
}

func (s *transcript) write(data ...byte) *transcript {
	call := s.bus.On("WriteToAddr", mock.Anything, testAddr, data).Return(nil).Once()
	s.calls = append(s.calls, call)
	return s
}

func (s *transcript) writeFails(err error, data ...byte) *transcript {
	call := s.bus.On("WriteToAddr", mock.Anything, testAddr, data).Return(err).Once()
	s.calls = append(s.calls, call)
	return s
}

// read expects a register select followed by a read of len(resp) bytes.
func (s *transcript) read(reg Register, resp ...byte) *transcript {
	s.write(byte(reg))
	n := len(resp)
	call := s.bus.On("ReadFromAddr", mock.Anything, testAddr,
		mock.MatchedBy(func(b []byte) bool { return len(b) == n })).
		Return(resp, nil).Once()
	s.calls = append(s.calls, call)
	return s
}

func (s *transcript) readFails(reg Register, n int, err error) *transcript {
	s.write(byte(reg))
	call := s.bus.On("ReadFromAddr", mock.Anything, testAddr,
		mock.MatchedBy(func(b []byte) bool { return len(b) == n })).
		Return(nil, err).Once()
	s.calls = append(s.calls, call)
	return s
}

// construction appends the default-config start-up sequence.
func (s *transcript) construction() *transcript {
	return s.
		read(RegProdID, 0x10).
		read(RegPRSCfg, 0x00).
		write(byte(RegPRSCfg), 0x00).
		read(RegTMPCfg, 0x00).
		read(RegCoefSrce, 0x00).
		write(byte(RegTMPCfg), 0x00).
		write(byte(RegCfgReg), 0x00).
		write(byte(RegMeasCfg), 0x00).
		erratum().
		read(RegMeasCfg, 0x00).
		write(byte(RegMeasCfg), 0x02).
		read(RegMeasCfg, 0x20).
		read(RegTMPB2, 0x00, 0x00, 0x00).
		write(byte(RegMeasCfg), 0x00)
}

func (s *transcript) erratum() *transcript {
	return s.
		write(0x0E, 0xA5).
		write(0x0F, 0x96).
		write(0x62, 0x02).
		write(0x0E, 0x00).
		write(0x0F, 0x00)
}

// seal fixes the order of all expectations recorded so far.
func (s *transcript) seal(t *testing.T) *MockI2CBus {
	s.bus.Test(t)
	if len(s.calls) > 1 {
		mock.InOrder(s.calls...)
	}
	return s.bus
}

func (s *transcript) done(t *testing.T) {
	t.Helper()
	s.bus.AssertExpectations(t)
}
