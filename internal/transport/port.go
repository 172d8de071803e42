package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

var ErrDeviceOpen = errors.New("transport: device open failed")

// Port is the narrow serial device surface the transport drives. Drain
// blocks until the output buffer reaches the wire; the embedded receiver
// requires a flush after every byte, so the writer calls it per byte.
type Port interface {
	io.ReadWriteCloser
	Drain() error
	SetReadTimeout(d time.Duration) error
}

// Open opens the named serial device at the given baud rate. Failure here is
// fatal to the process: there is no retry and no fallback port.
func Open(device string, baud int) (Port, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("%w (%s @ %d): %v", ErrDeviceOpen, device, baud, err)
	}
	return port, nil
}
