//go:build rp2040 || rp2350

package main

import (
	"errors"
	"io"
	"machine"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"
)

var errNoCard = errors.New("sd card not mounted")

const cardCS = machine.GPIO13

// card is the FAT volume holding the soundtrack files.
type card struct {
	sd *sdcard.Device
	fs *fatfs.FATFS
}

// mountCard brings up the SD card on its own bus and mounts the FAT
// filesystem.
func mountCard() (*card, error) {
	sd := sdcard.New(cardBus.spi, cardBus.sck, cardBus.mosi, cardBus.miso, cardCS)
	if err := sd.Configure(); err != nil {
		return nil, err
	}
	fs := fatfs.New(&sd)
	fs.Configure(&fatfs.Config{SectorSize: 512})
	if err := fs.Mount(); err != nil {
		return nil, err
	}
	return &card{sd: &sd, fs: fs}, nil
}

// Exists implements track.Store.
func (c *card) Exists(name string) bool {
	if c == nil {
		return false
	}
	_, err := c.fs.Stat(name)
	return err == nil
}

// Open implements vs1053.Opener.
func (c *card) Open(name string) (io.ReadCloser, error) {
	if c == nil {
		return nil, errNoCard
	}
	return c.fs.Open(name)
}
