//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// USB IDs of the board's CDC port.
const (
	VendorID  = 0x2E8A // Raspberry Pi
	ProductID = 0x000A // RP2040 CDC
)

// ErrNoBoard is returned when no matching USB device is attached.
var ErrNoBoard = errors.New("no Synkino board found")

// Candidate is a serial port that looks like a board.
type Candidate struct {
	Device       string
	SerialNumber string
	Product      string
}

// Discover lists attached ports whose USB IDs match the board.
func Discover() ([]Candidate, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return matchPorts(ports), nil
}

// FindBoard returns the device path of the first attached board.
func FindBoard() (string, error) {
	found, err := Discover()
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", ErrNoBoard
	}
	return found[0].Device, nil
}

func matchPorts(ports []*enumerator.PortDetails) []Candidate {
	var out []Candidate
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		vid, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		pid, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}
		if uint16(vid) == VendorID && uint16(pid) == ProductID {
			out = append(out, Candidate{
				Device:       port.Name,
				SerialNumber: port.SerialNumber,
				Product:      port.Product,
			})
		}
	}
	return out
}
