package baro

import (
	"context"
	"fmt"
)

// ErrBusBusy is returned by transports whose I2C engine has not completed the previous command.
var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// AddressableReader reads len(buffer) bytes from the device at a 7-bit address.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes buffer to the device at a 7-bit address. Register
// addressed devices expect the register pointer as the first byte.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the transport consumed by the device drivers.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
