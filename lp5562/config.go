package lp5562

// Current is an LED channel current limit in units of 0.1mA, from 0 to 25.5mA.
type Current uint8

// DefaultCurrent is the current set by DefaultConfig. The chip's own
// power-on value is 17.5mA.
const DefaultCurrent Current = 50

// CurrentFromMilliamps converts a current in mA, clamping it to 0-25.5mA.
func CurrentFromMilliamps(mA float32) Current {
	if mA < 0 {
		mA = 0
	} else if mA > 25.5 {
		mA = 25.5
	}
	return Current(mA*10 + 0.5)
}

// Milliamps returns the current in mA.
func (c Current) Milliamps() float32 { return float32(c) / 10 }

// DefaultConfig returns the configuration used by Configure when passed the
// zero Config: 5mA on every channel, internal oscillator, logarithmic PWM at
// 256Hz.
func DefaultConfig() Config {
	return Config{
		RedCurrent:   DefaultCurrent,
		GreenCurrent: DefaultCurrent,
		BlueCurrent:  DefaultCurrent,
		WhiteCurrent: DefaultCurrent,
	}
}

// Config holds the settings applied to an LP5562 by Configure.
type Config struct {
	// Channel current limits.
	RedCurrent   Current
	GreenCurrent Current
	BlueCurrent  Current
	WhiteCurrent Current
	// ExternalOscillator uses the 32kHz clock on the CLK_32K pin instead of
	// the internal oscillator.
	ExternalOscillator bool
	// Linear selects linear PWM brightness. The default is logarithmic,
	// which looks more even to the eye.
	Linear bool
	// HighFrequency sets the PWM frequency to 558Hz instead of 256Hz.
	HighFrequency bool
	// PowerSave lets the chip enter power save mode when all outputs are idle.
	PowerSave bool
}

func (cfg Config) current(ch Channel) Current {
	switch ch {
	case ChannelRed:
		return cfg.RedCurrent
	case ChannelGreen:
		return cfg.GreenCurrent
	case ChannelBlue:
		return cfg.BlueCurrent
	case ChannelWhite:
		return cfg.WhiteCurrent
	}
	panic(badChannel)
}

func (cfg Config) enableReg() uint8 {
	v := uint8(enableChipEn)
	if !cfg.Linear {
		v |= enableLogEn
	}
	return v
}

func (cfg Config) configReg() uint8 {
	var v uint8
	if !cfg.ExternalOscillator {
		v |= configIntClkEn
	}
	if cfg.HighFrequency {
		v |= configHF
	}
	if cfg.PowerSave {
		v |= configPSEn
	}
	return v
}
