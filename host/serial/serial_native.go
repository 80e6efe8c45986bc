//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// ttyPort adapts tarm/serial, which reports every expired read timeout
// as io.EOF.
type ttyPort struct {
	*serial.Port
}

// Open opens a serial device.
func Open(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("no serial device given")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return ttyPort{p}, nil
}

func (p ttyPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}
