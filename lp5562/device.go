// Package lp5562 drives the Texas Instruments LP5562 four channel LED
// controller over I2C, including its three program engines.
//
// Programs for the engines are assembled in host memory with [Program] and
// loaded with [Engine.SetProgram]. Higher level lighting effects built on top
// of this package live in the ledlib package.
package lp5562

import (
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/drivers"
)

// LP5562 errors.
var (
	ErrProgramFull         = errors.New("lp5562: program has no free instruction slots")
	ErrInvalidStep         = errors.New("lp5562: step number out of range")
	ErrInvalidBranchTarget = errors.New("lp5562: branch target step out of range")
	ErrDelayOutOfRange     = errors.New("lp5562: delay out of range")
	ErrTransport           = errors.New("lp5562: transport failure")
)

const (
	badEngineIndex   = "invalid engine index"
	badChannel       = "invalid LED channel"
	badProgramBounds = "invalid program bounds"
)

// DefaultAddress is the I2C address with both address pins low.
const DefaultAddress = 0x30

// startupDelay is the time the chip needs after CHIP_EN is set.
const startupDelay = 500 * time.Microsecond

// Device represents an LP5562 on an I2C bus.
type Device struct {
	bus  drivers.I2C
	addr uint16
	buf  [maxTransaction]byte
}

// New returns a device on bus at address addr. The addresses 0 to 3 are
// shorthand for 0x30 to 0x33, selected by the chip's address pins.
// Call Configure before use.
func New(bus drivers.I2C, addr uint16) *Device {
	if addr < 4 {
		addr |= DefaultAddress
	}
	return &Device{bus: bus, addr: addr}
}

// Address returns the I2C address of the device.
func (d *Device) Address() uint16 { return d.addr }

// Engine returns the program engine with the given index (1-3).
func (d *Device) Engine(index uint8) Engine {
	mustEngineIndex(index)
	return Engine{dev: d, index: index}
}

// Configure resets the chip and applies cfg. The zero Config is replaced by
// DefaultConfig. After Configure all channels are off and directly
// controlled, and all engines are disabled.
func (d *Device) Configure(cfg Config) error {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	// Resetting the host does not reset the chip.
	if err := d.Reset(); err != nil {
		return err
	}
	// Currents must be set before the chip is enabled.
	for ch := ChannelRed; ch < numChannels; ch++ {
		if err := d.SetCurrent(ch, cfg.current(ch)); err != nil {
			return err
		}
	}
	if err := d.SetRGBW(0, 0, 0, 0); err != nil {
		return err
	}
	if err := d.WriteRegister(RegEnable, cfg.enableReg()); err != nil {
		return err
	}
	time.Sleep(startupDelay)
	if err := d.WriteRegister(RegConfig, cfg.configReg()); err != nil {
		return err
	}
	return d.SetLEDMap(LEDMap{})
}

// Reset returns all registers to their power-on values.
func (d *Device) Reset() error {
	return d.WriteRegister(RegReset, resetValue)
}

// WriteRegister writes a single register.
func (d *Device) WriteRegister(reg Register, value uint8) error {
	d.buf[0] = uint8(reg)
	d.buf[1] = value
	if err := d.bus.Tx(d.addr, d.buf[:2], nil); err != nil {
		return fmt.Errorf("%w: write %#02x: %w", ErrTransport, uint8(reg), err)
	}
	return nil
}

// ReadRegister reads a single register.
func (d *Device) ReadRegister(reg Register) (uint8, error) {
	d.buf[0] = uint8(reg)
	if err := d.bus.Tx(d.addr, d.buf[:1], d.buf[1:2]); err != nil {
		return 0, fmt.Errorf("%w: read %#02x: %w", ErrTransport, uint8(reg), err)
	}
	return d.buf[1], nil
}

// writeProgram writes a full program memory block. A write is limited to
// 32 bytes including the address, so the first 15 instructions go in one
// transaction and the last in a second one. If the second write fails the
// first 15 instructions have already been written.
func (d *Device) writeProgram(base Register, words [MaxInstructions]uint16) error {
	addr := base
	for start := 0; start < MaxInstructions; start += maxProgramWords {
		end := min(start+maxProgramWords, MaxInstructions)
		d.buf[0] = uint8(addr)
		n := 1
		for _, w := range words[start:end] {
			d.buf[n] = uint8(w >> 8)
			d.buf[n+1] = uint8(w)
			n += 2
		}
		if err := d.bus.Tx(d.addr, d.buf[:n], nil); err != nil {
			return fmt.Errorf("%w: write program %#02x: %w", ErrTransport, uint8(addr), err)
		}
		addr += Register(n - 1)
	}
	return nil
}

// ReadProgram reads back the program memory of the engine with the given
// index. The engine must be in load mode for the chip to return its content.
func (d *Device) ReadProgram(index uint8) (words [MaxInstructions]uint16, err error) {
	base := d.Engine(index).programAddr()
	var raw [programBlockSize]byte
	d.buf[0] = uint8(base)
	if err := d.bus.Tx(d.addr, d.buf[:1], raw[:]); err != nil {
		return words, fmt.Errorf("%w: read program %#02x: %w", ErrTransport, uint8(base), err)
	}
	for i := range words {
		words[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return words, nil
}

// SetExecMode sets the execution mode of every engine in mask with a single
// register write, so engines started together begin executing together.
// The chip enable and logarithmic mode bits are preserved.
func (d *Device) SetExecMode(mask EngineMask, mode ExecMode) error {
	reg, err := d.ReadRegister(RegEnable)
	if err != nil {
		return err
	}
	for index := uint8(1); index <= NumEngines; index++ {
		if mask.Has(index) {
			reg = setEngineField(reg, index, uint8(mode))
		}
	}
	return d.WriteRegister(RegEnable, reg)
}

// ClearAllPrograms clears the program memory of every engine and disables them.
func (d *Device) ClearAllPrograms() error {
	for index := uint8(1); index <= NumEngines; index++ {
		if err := d.Engine(index).Clear(); err != nil {
			return err
		}
	}
	return nil
}

// SetPWM sets the direct PWM level of a channel. It only has a visible effect
// while the channel is routed to RouteDirect.
func (d *Device) SetPWM(ch Channel, level uint8) error {
	return d.WriteRegister(ch.pwmReg(), level)
}

// SetRGB sets the direct PWM levels of the red, green and blue channels.
func (d *Device) SetRGB(r, g, b uint8) error {
	if err := d.SetPWM(ChannelRed, r); err != nil {
		return err
	}
	if err := d.SetPWM(ChannelGreen, g); err != nil {
		return err
	}
	return d.SetPWM(ChannelBlue, b)
}

// SetRGBW sets the direct PWM levels of all four channels.
func (d *Device) SetRGBW(r, g, b, w uint8) error {
	if err := d.SetRGB(r, g, b); err != nil {
		return err
	}
	return d.SetPWM(ChannelWhite, w)
}

// SetCurrent sets the current limit of a channel.
func (d *Device) SetCurrent(ch Channel, c Current) error {
	return d.WriteRegister(ch.currentReg(), uint8(c))
}

// SetLEDMap sets the routing of all channels.
func (d *Device) SetLEDMap(m LEDMap) error {
	return d.WriteRegister(RegLEDMap, m.Encode())
}

// LEDMap reads the routing of all channels.
func (d *Device) LEDMap() (LEDMap, error) {
	v, err := d.ReadRegister(RegLEDMap)
	return DecodeLEDMap(v), err
}

// SetRoute routes a single channel, leaving the others unchanged. When route
// is RouteDirect the channel's PWM level is set to level first.
func (d *Device) SetRoute(ch Channel, route Route, level uint8) error {
	m, err := d.LEDMap()
	if err != nil {
		return err
	}
	if route == RouteDirect {
		if err := d.SetPWM(ch, level); err != nil {
			return err
		}
	}
	m[ch] = route
	return d.SetLEDMap(m)
}

// UseDirectRGB routes the red, green and blue channels back to their direct
// PWM registers, holding the engines that drove them.
func (d *Device) UseDirectRGB() error {
	return d.useDirect(ChannelRed, ChannelGreen, ChannelBlue)
}

// UseDirectW routes the white channel back to its direct PWM register,
// holding the engine that drove it.
func (d *Device) UseDirectW() error {
	return d.useDirect(ChannelWhite)
}

func (d *Device) useDirect(channels ...Channel) error {
	m, err := d.LEDMap()
	if err != nil {
		return err
	}
	var sub LEDMap
	for _, ch := range channels {
		sub[ch] = m[ch]
		m[ch] = RouteDirect
	}
	engines := sub.Engines()
	if engines == 0 {
		return nil
	}
	if err = d.SetExecMode(engines, ExecHold); err != nil {
		return err
	}
	return d.SetLEDMap(m)
}

// Status reads the status register. Reading clears the interrupt flags.
func (d *Device) Status() (Status, error) {
	v, err := d.ReadRegister(RegStatus)
	return Status(v), err
}
