package ledlib

import (
	"image/color"
	"time"

	"github.com/tinygo-org/lp5562/lp5562"
)

// ChannelSet is a set of LED channels.
type ChannelSet uint8

const (
	ChannelsRed ChannelSet = 1 << iota
	ChannelsGreen
	ChannelsBlue
	ChannelsWhite

	ChannelsRGB = ChannelsRed | ChannelsGreen | ChannelsBlue
)

// Channels returns the set holding chs.
func Channels(chs ...lp5562.Channel) ChannelSet {
	var s ChannelSet
	for _, ch := range chs {
		s |= 1 << ch
	}
	return s
}

// Has returns true if ch is in the set.
func (s ChannelSet) Has(ch lp5562.Channel) bool { return s&(1<<ch) != 0 }

// Routing used by the synchronized effects: one engine per color, white direct.
var rgbEngineMap = lp5562.LEDMap{
	lp5562.ChannelRed:   lp5562.RouteEngine1,
	lp5562.ChannelGreen: lp5562.RouteEngine2,
	lp5562.ChannelBlue:  lp5562.RouteEngine3,
	lp5562.ChannelWhite: lp5562.RouteDirect,
}

// Solid returns the plan for a steady color: every channel directly driven
// at the given level and every engine on hold.
func Solid(r, g, b, w uint8) Plan {
	return Plan{
		Direct:    [4]uint8{r, g, b, w},
		SetDirect: true,
	}
}

// Blink returns the plan for c turning on for on and off for off, forever.
//
// Engine 1 runs the timing and drives red. Engines 2 and 3 run a copy of its
// program with their own level for green and blue, and where engine 1 sends a
// trigger to them they wait for it. This keeps the three engines, each on its
// own clock, switching colors together.
func Blink(c color.RGBA, on, off time.Duration) (Plan, error) {
	// At most 8 instructions; only the delays can fail.
	var red lp5562.Program
	red.AddSetPWM(c.R)
	if err := red.AddDelay(on); err != nil {
		return Plan{}, err
	}
	red.AddSetPWM(0)
	if err := red.AddDelay(off); err != nil {
		return Plan{}, err
	}
	triggerStep := red.Len()
	red.AddTriggerSend(lp5562.MaskEngine2 | lp5562.MaskEngine3)
	red.AddGotoStart()

	green := red
	green.AddAt(0, lp5562.EncodeSetPWM(c.G))
	green.AddAt(triggerStep, lp5562.EncodeTriggerWait(lp5562.MaskEngine1))

	blue := green
	blue.AddAt(0, lp5562.EncodeSetPWM(c.B))

	return Plan{
		Programs: [lp5562.NumEngines]*lp5562.Program{&red, &green, &blue},
		Map:      rgbEngineMap,
		Start:    lp5562.MaskAllEngines,
	}, nil
}

// Blink2 returns the plan for alternating between c1 for d1 and c2 for d2.
// The engines are synchronized the same way as in Blink.
func Blink2(c1 color.RGBA, d1 time.Duration, c2 color.RGBA, d2 time.Duration) (Plan, error) {
	var red lp5562.Program
	red.AddSetPWM(c1.R)
	if err := red.AddDelay(d1); err != nil {
		return Plan{}, err
	}
	colorStep := red.Len()
	red.AddSetPWM(c2.R)
	if err := red.AddDelay(d2); err != nil {
		return Plan{}, err
	}
	triggerStep := red.Len()
	red.AddTriggerSend(lp5562.MaskEngine2 | lp5562.MaskEngine3)
	red.AddGotoStart()

	green := red
	green.AddAt(0, lp5562.EncodeSetPWM(c1.G))
	green.AddAt(colorStep, lp5562.EncodeSetPWM(c2.G))
	green.AddAt(triggerStep, lp5562.EncodeTriggerWait(lp5562.MaskEngine1))

	blue := green
	blue.AddAt(0, lp5562.EncodeSetPWM(c1.B))
	blue.AddAt(colorStep, lp5562.EncodeSetPWM(c2.B))

	return Plan{
		Programs: [lp5562.NumEngines]*lp5562.Program{&red, &green, &blue},
		Map:      rgbEngineMap,
		Start:    lp5562.MaskAllEngines,
	}, nil
}

// Breathe returns the plan for the channels in set ramping from lowLevel up
// to highLevel and back down, one level every stepTime cycles of 0.49ms.
// Channels outside the set are turned off.
func Breathe(set ChannelSet, stepTime, lowLevel, highLevel uint8) (Plan, error) {
	if highLevel <= lowLevel {
		return Plan{}, ErrInvalidLevels
	}
	var p lp5562.Program
	p.AddSetPWM(lowLevel)
	p.AddRamp(false, stepTime, false, highLevel-lowLevel)
	p.AddRamp(false, stepTime, true, highLevel-lowLevel)

	var m lp5562.LEDMap
	for ch := lp5562.ChannelRed; ch <= lp5562.ChannelWhite; ch++ {
		if set.Has(ch) {
			m[ch] = lp5562.RouteEngine1
		}
	}
	return Plan{
		Programs:  [lp5562.NumEngines]*lp5562.Program{&p},
		Map:       m,
		SetDirect: true,
		Start:     lp5562.MaskEngine1,
	}, nil
}

// IndicatorConfig holds the timings of indicator mode.
type IndicatorConfig struct {
	BlinkOn, BlinkOff         time.Duration
	FastBlinkOn, FastBlinkOff time.Duration
	// BreatheStepTime is the ramp step time of the breathe engine in 0.49ms cycles.
	BreatheStepTime uint8
}

// DefaultIndicatorConfig returns the configuration used by IndicatorPlan
// when passed the zero IndicatorConfig.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		BlinkOn:         500 * time.Millisecond,
		BlinkOff:        500 * time.Millisecond,
		FastBlinkOn:     100 * time.Millisecond,
		FastBlinkOff:    100 * time.Millisecond,
		BreatheStepTime: 20,
	}
}

// IndicatorPlan returns the plan for indicator mode: engine 1 blinks, engine 2
// blinks fast and engine 3 breathes, all at full range, while every channel
// stays directly driven and off. Channels are then connected to an engine
// with [Indicator.Set] without reloading programs.
func IndicatorPlan(cfg IndicatorConfig) (Plan, error) {
	if cfg == (IndicatorConfig{}) {
		cfg = DefaultIndicatorConfig()
	}
	blink, err := blinkProgram(cfg.BlinkOn, cfg.BlinkOff)
	if err != nil {
		return Plan{}, err
	}
	fast, err := blinkProgram(cfg.FastBlinkOn, cfg.FastBlinkOff)
	if err != nil {
		return Plan{}, err
	}
	var breathe lp5562.Program
	breathe.AddSetPWM(0)
	breathe.AddRamp(false, cfg.BreatheStepTime, false, 0xff)
	breathe.AddRamp(false, cfg.BreatheStepTime, true, 0xff)

	return Plan{
		Programs:  [lp5562.NumEngines]*lp5562.Program{&blink, &fast, &breathe},
		SetDirect: true,
		Start:     lp5562.MaskAllEngines,
	}, nil
}

func blinkProgram(on, off time.Duration) (lp5562.Program, error) {
	var p lp5562.Program
	p.AddSetPWM(0xff)
	if err := p.AddDelay(on); err != nil {
		return p, err
	}
	p.AddSetPWM(0)
	if err := p.AddDelay(off); err != nil {
		return p, err
	}
	p.AddGotoStart()
	return p, nil
}
