//go:build rp2040 || rp2350

package main

import (
	"machine"
)

// spiBusConfig names a SPI controller and the GPIOs it is routed to.
type spiBusConfig struct {
	spi  *machine.SPI // SPI controller (SPI0 or SPI1)
	sck  machine.Pin  // Clock pin
	mosi machine.Pin  // Master Out Slave In
	miso machine.Pin  // Master In Slave Out
	name string       // Human-readable name
}

// Board wiring: decoder on SPI0, SD card on SPI1.
var (
	decoderBus = spiBusConfig{spi: machine.SPI0, sck: machine.GPIO18, mosi: machine.GPIO19, miso: machine.GPIO16, name: "spi0c"}
	cardBus    = spiBusConfig{spi: machine.SPI1, sck: machine.GPIO10, mosi: machine.GPIO11, miso: machine.GPIO12, name: "spi1d"}
)

// VS1053 SCI is limited to CLKI/7 for reads; 1 MHz is safe before the
// clock multiplier is set and fast enough for 320 kbit/s streams.
const decoderSPIRate = 1000000

// configureDecoderBus sets up SPI mode 0 for the decoder. *machine.SPI
// satisfies drivers.SPI.
func configureDecoderBus() (*machine.SPI, error) {
	bus := decoderBus
	err := bus.spi.Configure(machine.SPIConfig{
		Frequency: decoderSPIRate,
		SCK:       bus.sck,
		SDO:       bus.mosi, // SDO = Serial Data Out (MOSI)
		SDI:       bus.miso, // SDI = Serial Data In (MISO)
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return bus.spi, nil
}
