package lp5562

import "time"

// Engine cycle times. A wait of n steps lasts n cycles.
const (
	CycleTime         = 490 * time.Microsecond
	PrescaleCycleTime = 15600 * time.Microsecond
)

// Delay regime boundaries.
const (
	// Shorter delays use the unscaled cycle.
	maxUnscaledDelay = 32 * time.Millisecond
	// Delays up to this use a single prescaled wait.
	maxSingleWaitDelay = 1000 * time.Millisecond
	// MaxDelay is the longest delay AddDelay can compile: 63 loops of a one
	// second wait.
	MaxDelay = 63000 * time.Millisecond
)

// DelaySteps works out how a delay is compiled into wait instructions.
// If loops is zero the delay is a single wait of steps cycles. Otherwise it is
// a wait(true, 63) repeated loops times by a branch, giving whole seconds.
func DelaySteps(d time.Duration) (prescale bool, steps, loops uint8, err error) {
	switch {
	case d < 0 || d > MaxDelay:
		return false, 0, 0, ErrDelayOutOfRange
	case d < maxUnscaledDelay:
		// Two steps per millisecond, rounded to the nearest half millisecond.
		halfMs := (d + 250*time.Microsecond) / (500 * time.Microsecond)
		if halfMs > MaxStepTime {
			halfMs = MaxStepTime
		}
		return false, uint8(halfMs), 0, nil
	case d <= maxSingleWaitDelay:
		return true, uint8(d.Milliseconds() / 16), 0, nil
	}
	return true, MaxStepTime, uint8(d.Milliseconds() / 1000), nil
}

// AddDelay appends the wait instructions for a delay of d. Delays up to a
// second take one instruction and longer ones take two: a wait and a branch
// back to it. The program is not modified on error. Delays over 63s return
// ErrDelayOutOfRange. A zero delay encodes as the all-zero word, which the
// chip runs as goto_start.
func (p *Program) AddDelay(d time.Duration) error {
	prescale, steps, loops, err := DelaySteps(d)
	if err != nil {
		return err
	}
	if loops == 0 {
		return p.AddWait(prescale, steps)
	}
	if p.next+2 > MaxInstructions {
		return ErrProgramFull
	}
	waitStep := p.next
	p.AddWait(prescale, steps)
	return p.AddBranch(loops, waitStep)
}
