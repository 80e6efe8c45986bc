package vs1053

import (
	"encoding/binary"
	"errors"
	"io"
)

var errPluginTruncated = errors.New("vs1053: plugin truncated")

// ApplyPlugin loads a VLSI compressed plugin image (such as patches.053)
// from r. The image is a sequence of little-endian words: a register
// address, a count, then either count values or, when the count has bit 15
// set, one value repeated count&0x7fff times. It returns the number of
// register writes performed.
func (d *Device) ApplyPlugin(r io.Reader) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var word [2]byte
	next := func() (uint16, error) {
		if _, err := io.ReadFull(r, word[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(word[:]), nil
	}

	writes := 0
	for {
		addr, err := next()
		if err == io.EOF {
			return writes, nil
		}
		if err != nil {
			return writes, errPluginTruncated
		}
		n, err := next()
		if err != nil {
			return writes, errPluginTruncated
		}

		if n&0x8000 != 0 {
			val, err := next()
			if err != nil {
				return writes, errPluginTruncated
			}
			for n &= 0x7FFF; n > 0; n-- {
				if err := d.sciWrite(uint8(addr), val); err != nil {
					return writes, err
				}
				writes++
			}
			continue
		}

		for ; n > 0; n-- {
			val, err := next()
			if err != nil {
				return writes, errPluginTruncated
			}
			if err := d.sciWrite(uint8(addr), val); err != nil {
				return writes, err
			}
			writes++
		}
	}
}
