package i2c

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/baro"
	"github.com/mklimuk/baro/snsctx"
)

var _ baro.I2CBus = &GobotBus{}

// GobotBus adapts a gobot i2c.Connector (e.g. a NanoPi adaptor) to baro.I2CBus.
// Connections are opened lazily, one per device address.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	bus       int
	conns     map[byte]i2c.Connection
}

type GobotOption func(*GobotBus)

// WithBusNumber selects the bus instead of the connector's default one.
func WithBusNumber(bus int) GobotOption {
	return func(b *GobotBus) {
		b.bus = bus
	}
}

func NewGobotBus(connector i2c.Connector, opts ...GobotOption) *GobotBus {
	b := &GobotBus{
		connector: connector,
		bus:       connector.DefaultI2cBus(),
		conns:     make(map[byte]i2c.Connection),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %d addr %x: %w", b.bus, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from addr %x: %d of %d bytes: %w", address, n, len(buffer), io.ErrUnexpectedEOF)
	}
	snsctx.DumpFrame(ctx, "i2c read", address, buffer, "bus", b.bus)
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	snsctx.DumpFrame(ctx, "i2c write", address, buffer, "bus", b.bus)
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %d addr %x: %w", b.bus, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to addr %x: %d of %d bytes: %w", address, n, len(buffer), io.ErrShortWrite)
	}
	return nil
}

// Release closes every connection opened so far.
func (b *GobotBus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	return firstErr
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %d addr %x: %w", b.bus, address, err)
	}
	b.conns[address] = conn
	return conn, nil
}
