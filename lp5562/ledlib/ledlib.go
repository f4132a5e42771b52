// Package ledlib compiles lighting effects into LP5562 engine programs and
// applies them to a device.
//
// Every effect is first compiled into a [Plan], plain data that can be
// inspected or tested without hardware, and then written by [Apply].
package ledlib

import (
	"errors"
	"image/color"

	"github.com/tinygo-org/lp5562/lp5562"
)

// ErrInvalidLevels is returned by Breathe when highLevel is not above lowLevel.
var ErrInvalidLevels = errors.New("ledlib: high level must be above low level")

// Plan is a compiled effect: the programs to load, the routing and the
// engines to start.
type Plan struct {
	// Programs holds the program for each engine, index 0 being engine 1.
	// A nil entry leaves that engine with an empty program.
	Programs [lp5562.NumEngines]*lp5562.Program
	// Map is the LED routing applied once programs are loaded.
	Map lp5562.LEDMap
	// Direct holds the direct PWM level of each channel, written if SetDirect is true.
	Direct    [4]uint8
	SetDirect bool
	// Start is the set of engines put in run mode together at the end.
	Start lp5562.EngineMask
}

// Apply writes plan to dev.
//
// If the plan has programs, all engines are cleared first. Otherwise every
// engine is put on hold. Programs are loaded with their engines held, then
// the direct levels and routing are written, and finally the engines in
// plan.Start are started with a single register write so they run in phase.
//
// Nothing is rolled back if a transfer fails; the effect must be applied again.
func Apply(dev *lp5562.Device, plan Plan) error {
	if plan.hasPrograms() {
		if err := dev.ClearAllPrograms(); err != nil {
			return err
		}
	} else if err := dev.SetExecMode(lp5562.MaskAllEngines, lp5562.ExecHold); err != nil {
		return err
	}
	for i, p := range plan.Programs {
		if p == nil {
			continue
		}
		if err := dev.Engine(uint8(i+1)).SetProgram(p, false); err != nil {
			return err
		}
	}
	if plan.SetDirect {
		d := plan.Direct
		if err := dev.SetRGBW(d[lp5562.ChannelRed], d[lp5562.ChannelGreen], d[lp5562.ChannelBlue], d[lp5562.ChannelWhite]); err != nil {
			return err
		}
	}
	if err := dev.SetLEDMap(plan.Map); err != nil {
		return err
	}
	if plan.Start == 0 {
		return nil
	}
	return dev.SetExecMode(plan.Start, lp5562.ExecRun)
}

func (plan *Plan) hasPrograms() bool {
	for _, p := range plan.Programs {
		if p != nil {
			return true
		}
	}
	return false
}

// RGB unpacks a 0xRRGGBB value.
func RGB(rgb uint32) color.RGBA {
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
}

// toRGBA converts c the same way the tinygo LED drivers do, taking the
// top 8 bits of each component.
func toRGBA(c color.Color) color.RGBA {
	if rgba, ok := c.(color.RGBA); ok {
		return rgba
	}
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
