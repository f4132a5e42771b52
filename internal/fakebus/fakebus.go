// Package fakebus provides an in-memory LP5562 register file behind the
// tinygo drivers.I2C interface, for tests.
package fakebus

import "errors"

var (
	ErrNack    = errors.New("fakebus: no device at address")
	ErrTooLong = errors.New("fakebus: write longer than 32 bytes")
	ErrFault   = errors.New("fakebus: injected fault")
)

const (
	regCount    = 0x80
	regStatus   = 0x0c
	regReset    = 0x0d
	maxTransfer = 32
	// Power-on current is 17.5mA.
	resetCurrent = 0xaf
)

// Tx is a recorded bus transaction.
type Tx struct {
	Addr uint16
	// W holds the bytes written, starting with the register address.
	W []byte
	// R is the number of bytes read.
	R int
}

// Bus simulates one LP5562. Register addresses auto-increment on multi byte
// reads and writes.
type Bus struct {
	Addr uint16
	Regs [regCount]byte
	Log  []Tx

	faults map[int]error
}

// New returns a bus with a device at addr in its power-on state.
func New(addr uint16) *Bus {
	b := &Bus{Addr: addr}
	b.reset()
	return b
}

// FailAt makes the n-th transaction from now (0 based) fail with err without
// touching the registers. A nil err fails with ErrFault.
func (b *Bus) FailAt(n int, err error) {
	if err == nil {
		err = ErrFault
	}
	if b.faults == nil {
		b.faults = make(map[int]error)
	}
	b.faults[len(b.Log)+n] = err
}

// Tx implements drivers.I2C.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	n := len(b.Log)
	b.Log = append(b.Log, Tx{Addr: addr, W: append([]byte(nil), w...), R: len(r)})
	if err, ok := b.faults[n]; ok {
		return err
	}
	if addr != b.Addr {
		return ErrNack
	}
	if len(w) > maxTransfer {
		return ErrTooLong
	}
	if len(w) == 0 {
		return nil
	}
	ptr := int(w[0])
	for _, v := range w[1:] {
		b.write(ptr, v)
		ptr++
	}
	for i := range r {
		r[i] = b.read(ptr)
		ptr++
	}
	return nil
}

func (b *Bus) write(reg int, v byte) {
	if reg >= regCount {
		return
	}
	if reg == regReset {
		if v == 0xff {
			b.reset()
		}
		return
	}
	b.Regs[reg] = v
}

func (b *Bus) read(reg int) byte {
	if reg >= regCount {
		return 0
	}
	v := b.Regs[reg]
	if reg == regStatus {
		b.Regs[reg] = 0
	}
	return v
}

func (b *Bus) reset() {
	b.Regs = [regCount]byte{}
	for _, reg := range []int{0x05, 0x06, 0x07, 0x0f} {
		b.Regs[reg] = resetCurrent
	}
}

// Writes returns the write-only transactions in the log.
func (b *Bus) Writes() []Tx {
	var txs []Tx
	for _, tx := range b.Log {
		if tx.R == 0 {
			txs = append(txs, tx)
		}
	}
	return txs
}

// Program returns the 16 program words stored at base.
func (b *Bus) Program(base uint8) [16]uint16 {
	var words [16]uint16
	for i := range words {
		words[i] = uint16(b.Regs[int(base)+2*i])<<8 | uint16(b.Regs[int(base)+2*i+1])
	}
	return words
}

// ClearLog forgets all recorded transactions and pending faults.
func (b *Bus) ClearLog() {
	b.Log = nil
	b.faults = nil
}
