package main

import (
	"bytes"
	"io"
	"sync"
)

// keyOperator is the operator panel on a keyboard: y/n answer the
// manual-start prompt, space toggles sync-offset editing, +/- turn the
// value and q quits.
type keyOperator struct {
	mu      sync.Mutex
	answer  int // 0 pending, 1 yes, -1 no
	presses int
	value   int
}

// feed handles one key and reports whether it asks to quit.
func (o *keyOperator) feed(key byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch key {
	case 'y', 'Y', '\r', '\n':
		o.answer = 1
	case 'n', 'N':
		o.answer = -1
	case ' ':
		o.presses++
	case '+', '=':
		o.value++
	case '-', '_':
		o.value--
	case 'q', 'Q', 3:
		return true
	}
	return false
}

func (o *keyOperator) ConfirmManualStart() (confirmed, answered bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.answer > 0, o.answer != 0
}

func (o *keyOperator) ButtonPressed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.presses == 0 {
		return false
	}
	o.presses--
	return true
}

func (o *keyOperator) Value() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

func (o *keyOperator) SetValue(v int) {
	o.mu.Lock()
	o.value = v
	o.mu.Unlock()
}

// readKeys feeds every byte from r to o until r fails or a quit key.
func readKeys(r io.Reader, o *keyOperator, quit func()) {
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if o.feed(b) {
				quit()
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// crlfWriter turns \n into \r\n for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
