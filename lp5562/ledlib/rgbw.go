package ledlib

import (
	"image/color"
	"time"

	"github.com/tinygo-org/lp5562/lp5562"
)

// RGBW drives an RGBW LED connected to the four channels of an LP5562.
type RGBW struct {
	dev *lp5562.Device
}

// NewRGBW returns an RGBW LED on dev. The device should be configured
// beforehand with [lp5562.Device.Configure].
func NewRGBW(dev *lp5562.Device) *RGBW {
	return &RGBW{dev: dev}
}

// Device returns the underlying device.
func (l *RGBW) Device() *lp5562.Device { return l.dev }

// SetRGBW sets a steady color, stopping any running effect.
func (l *RGBW) SetRGBW(r, g, b, w uint8) error {
	return Apply(l.dev, Solid(r, g, b, w))
}

// SetRGB sets a steady color with the white channel off.
func (l *RGBW) SetRGB(r, g, b uint8) error {
	return l.SetRGBW(r, g, b, 0)
}

// SetColor wraps SetRGB for a [color.Color] type.
func (l *RGBW) SetColor(c color.Color) error {
	rgba := toRGBA(c)
	return l.SetRGB(rgba.R, rgba.G, rgba.B)
}

// SetBlink blinks the red, green and blue channels with color c.
func (l *RGBW) SetBlink(c color.Color, on, off time.Duration) error {
	plan, err := Blink(toRGBA(c), on, off)
	if err != nil {
		return err
	}
	return Apply(l.dev, plan)
}

// SetBlink2 alternates between two colors.
func (l *RGBW) SetBlink2(c1 color.Color, d1 time.Duration, c2 color.Color, d2 time.Duration) error {
	plan, err := Blink2(toRGBA(c1), d1, toRGBA(c2), d2)
	if err != nil {
		return err
	}
	return Apply(l.dev, plan)
}

// SetBreathe makes the channels in set breathe between lowLevel and highLevel.
func (l *RGBW) SetBreathe(set ChannelSet, stepTime, lowLevel, highLevel uint8) error {
	plan, err := Breathe(set, stepTime, lowLevel, highLevel)
	if err != nil {
		return err
	}
	return Apply(l.dev, plan)
}

// SetIndicatorMode loads the indicator programs and returns the handle used
// to attach channels to them. Every channel starts off.
func (l *RGBW) SetIndicatorMode(cfg IndicatorConfig) (*Indicator, error) {
	plan, err := IndicatorPlan(cfg)
	if err != nil {
		return nil, err
	}
	if err := Apply(l.dev, plan); err != nil {
		return nil, err
	}
	return &Indicator{dev: l.dev}, nil
}

// SetRawProgram loads program words into an engine, starting it if start is true.
// Other engines and the routing are left as they are.
func (l *RGBW) SetRawProgram(engine uint8, words []uint16, start bool) error {
	return l.dev.Engine(engine).SetWords(words, start)
}

// SetRoute routes a single channel. See [lp5562.Device.SetRoute].
func (l *RGBW) SetRoute(ch lp5562.Channel, route lp5562.Route, level uint8) error {
	return l.dev.SetRoute(ch, route, level)
}

// SetEngineEnable sets the execution mode of the engines in mask together.
func (l *RGBW) SetEngineEnable(mask lp5562.EngineMask, mode lp5562.ExecMode) error {
	return l.dev.SetExecMode(mask, mode)
}

// IndicatorMode selects what a channel shows in indicator mode.
type IndicatorMode uint8

const (
	IndicatorDirect IndicatorMode = iota
	IndicatorBlink
	IndicatorFastBlink
	IndicatorBreathe
)

// Route returns the channel routing that shows mode.
func (m IndicatorMode) Route() lp5562.Route {
	switch m {
	case IndicatorBlink:
		return lp5562.RouteEngine1
	case IndicatorFastBlink:
		return lp5562.RouteEngine2
	case IndicatorBreathe:
		return lp5562.RouteEngine3
	default:
		return lp5562.RouteDirect
	}
}

func (m IndicatorMode) String() string {
	switch m {
	case IndicatorDirect:
		return "direct"
	case IndicatorBlink:
		return "blink"
	case IndicatorFastBlink:
		return "fastblink"
	case IndicatorBreathe:
		return "breathe"
	default:
		return "unknown"
	}
}

// ParseIndicatorMode is the inverse of IndicatorMode.String.
func ParseIndicatorMode(s string) (IndicatorMode, bool) {
	for m := IndicatorDirect; m <= IndicatorBreathe; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// Indicator switches the channels of a device in indicator mode between the
// three running engines. Only the routing register is written, so the
// engines keep running and stay in phase.
type Indicator struct {
	dev *lp5562.Device
}

// Set attaches ch to the engine showing mode. IndicatorDirect turns the
// channel off.
func (ind *Indicator) Set(ch lp5562.Channel, mode IndicatorMode) error {
	return ind.dev.SetRoute(ch, mode.Route(), 0)
}

// SetLevel detaches ch from the engines and drives it at a steady level.
func (ind *Indicator) SetLevel(ch lp5562.Channel, level uint8) error {
	return ind.dev.SetRoute(ch, lp5562.RouteDirect, level)
}
