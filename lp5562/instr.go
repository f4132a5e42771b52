package lp5562

import (
	"strconv"
	"strings"
)

// InstrKind is a enum for the engine instruction type. It only represents the kind of
// instruction. It cannot store the arguments.
type InstrKind uint8

const (
	InstrGotoStart InstrKind = iota
	InstrRamp
	InstrWait
	InstrSetPWM
	InstrBranch
	InstrEnd
	InstrTrigger
	// InstrUnknown is returned for words with no defined opcode (top bits 100).
	InstrUnknown
)

// This file contains the primitives for creating instructions dynamically
const (
	_INSTR_BITS_RAMP    = 0x0000
	_INSTR_BITS_SET_PWM = 0x4000
	_INSTR_BITS_BRANCH  = 0xa000
	_INSTR_BITS_END     = 0xc000
	_INSTR_BITS_TRIGGER = 0xe000

	// Bit mask for the branch/end/trigger opcode families.
	_INSTR_BITS_Msk = 0xe000

	_RAMP_PRESCALE_Msk = 0x4000
	_RAMP_STEPTIME_Pos = 8
	_RAMP_STEPTIME_Msk = 0x3f << _RAMP_STEPTIME_Pos
	_RAMP_DECREASE_Msk = 0x0080
	_RAMP_STEPS_Msk    = 0x007f

	_BRANCH_LOOP_Pos = 7
	_BRANCH_LOOP_Msk = 0x3f << _BRANCH_LOOP_Pos
	_BRANCH_STEP_Msk = 0x000f

	_END_INT_Msk   = 0x1000
	_END_RESET_Msk = 0x0800

	// Trigger send and trigger wait share the opcode but carry the engine
	// mask in different fields.
	_TRIGGER_SEND_Pos = 7
	_TRIGGER_SEND_Msk = 0b111 << _TRIGGER_SEND_Pos
	_TRIGGER_WAIT_Pos = 1
	_TRIGGER_WAIT_Msk = 0b111 << _TRIGGER_WAIT_Pos
)

// Limits of the instruction fields.
const (
	MaxStepTime  = 0x3f
	MaxRampSteps = 0x7f
	MaxLoopCount = 0x3f
)

// EncodeRamp encodes a ramp instruction. The PWM level changes by one every
// stepTime cycles for numSteps steps. stepTime is clamped to 63 and numSteps
// keeps its 7 low bits.
//   - prescale selects the 15.6ms cycle instead of the 0.49ms cycle.
//   - decrease ramps the level down instead of up.
func EncodeRamp(prescale bool, stepTime uint8, decrease bool, numSteps uint8) uint16 {
	if stepTime > MaxStepTime {
		stepTime = MaxStepTime
	}
	return _INSTR_BITS_RAMP |
		uint16(boolAsU8(prescale))<<14 |
		uint16(stepTime)<<_RAMP_STEPTIME_Pos |
		uint16(boolAsU8(decrease))<<7 |
		uint16(numSteps&_RAMP_STEPS_Msk)
}

// EncodeWait encodes a wait instruction, a ramp with no steps.
func EncodeWait(prescale bool, stepTime uint8) uint16 {
	return EncodeRamp(prescale, stepTime, false, 0)
}

// EncodeSetPWM encodes an instruction that sets the PWM level immediately.
func EncodeSetPWM(level uint8) uint16 {
	return _INSTR_BITS_SET_PWM | uint16(level)
}

// EncodeGotoStart encodes the instruction that resets the program counter to 0.
// It is the all zero word, which is also the power-on content of program memory.
func EncodeGotoStart() uint16 { return 0 }

// EncodeBranch encodes a loop that jumps to stepNum loopCount times before
// continuing with the next instruction. A loopCount of 0 loops forever.
// loopCount is clamped to 63; stepNum above 15 returns ErrInvalidBranchTarget.
func EncodeBranch(loopCount, stepNum uint8) (uint16, error) {
	if stepNum >= MaxInstructions {
		return 0, ErrInvalidBranchTarget
	}
	if loopCount > MaxLoopCount {
		loopCount = MaxLoopCount
	}
	return _INSTR_BITS_BRANCH | uint16(loopCount)<<_BRANCH_LOOP_Pos | uint16(stepNum), nil
}

// EncodeEnd encodes the instruction that stops the engine and returns it to hold.
//   - generateInterrupt raises the engine's interrupt flag in the status register.
//   - setPWMto0 resets the engine's PWM output to zero.
func EncodeEnd(generateInterrupt, setPWMto0 bool) uint16 {
	return _INSTR_BITS_END | uint16(boolAsU8(generateInterrupt))<<12 | uint16(boolAsU8(setPWMto0))<<11
}

// EncodeTriggerSend encodes an instruction that sends a trigger to the engines in mask.
func EncodeTriggerSend(mask EngineMask) uint16 {
	return _INSTR_BITS_TRIGGER | uint16(mask&MaskAllEngines)<<_TRIGGER_SEND_Pos
}

// EncodeTriggerWait encodes an instruction that blocks the engine until a
// trigger from every engine in mask was received.
func EncodeTriggerWait(mask EngineMask) uint16 {
	return _INSTR_BITS_TRIGGER | uint16(mask&MaskAllEngines)<<_TRIGGER_WAIT_Pos
}

// Kind returns the kind of an encoded instruction.
func Kind(instr uint16) InstrKind {
	switch {
	case instr == 0:
		return InstrGotoStart
	case instr&0x8000 == 0:
		if instr&(_RAMP_PRESCALE_Msk|_RAMP_STEPTIME_Msk) == _INSTR_BITS_SET_PWM {
			return InstrSetPWM
		}
		if instr&_RAMP_STEPS_Msk == 0 {
			return InstrWait
		}
		return InstrRamp
	}
	switch instr & _INSTR_BITS_Msk {
	case _INSTR_BITS_BRANCH:
		return InstrBranch
	case _INSTR_BITS_END:
		return InstrEnd
	case _INSTR_BITS_TRIGGER:
		return InstrTrigger
	}
	return InstrUnknown
}

// RampFields decodes the fields of a ramp, wait or set PWM instruction.
func RampFields(instr uint16) (prescale bool, stepTime uint8, decrease bool, numSteps uint8) {
	prescale = instr&_RAMP_PRESCALE_Msk != 0
	stepTime = uint8((instr & _RAMP_STEPTIME_Msk) >> _RAMP_STEPTIME_Pos)
	decrease = instr&_RAMP_DECREASE_Msk != 0
	numSteps = uint8(instr & _RAMP_STEPS_Msk)
	return prescale, stepTime, decrease, numSteps
}

// BranchFields decodes the fields of a branch instruction.
func BranchFields(instr uint16) (loopCount, stepNum uint8) {
	return uint8((instr & _BRANCH_LOOP_Msk) >> _BRANCH_LOOP_Pos), uint8(instr & _BRANCH_STEP_Msk)
}

// TriggerFields decodes the engine masks of a trigger instruction.
func TriggerFields(instr uint16) (send, wait EngineMask) {
	send = EngineMask((instr & _TRIGGER_SEND_Msk) >> _TRIGGER_SEND_Pos)
	wait = EngineMask((instr & _TRIGGER_WAIT_Msk) >> _TRIGGER_WAIT_Pos)
	return send, wait
}

func (k InstrKind) String() string {
	switch k {
	case InstrGotoStart:
		return "goto_start"
	case InstrRamp:
		return "ramp"
	case InstrWait:
		return "wait"
	case InstrSetPWM:
		return "set_pwm"
	case InstrBranch:
		return "branch"
	case InstrEnd:
		return "end"
	case InstrTrigger:
		return "trigger"
	}
	return "unknown"
}

// Disassemble returns the mnemonic form of an instruction word. The output is
// accepted by the lpasm assembler.
func Disassemble(instr uint16) string {
	var b strings.Builder
	switch Kind(instr) {
	case InstrGotoStart:
		b.WriteString("goto_start")
	case InstrSetPWM:
		b.WriteString("set_pwm ")
		b.WriteString(strconv.Itoa(int(instr & 0xff)))
	case InstrWait, InstrRamp:
		prescale, stepTime, decrease, numSteps := RampFields(instr)
		if numSteps == 0 {
			b.WriteString("wait ")
		} else {
			b.WriteString("ramp ")
		}
		if prescale {
			b.WriteString("prescale ")
		}
		b.WriteString(strconv.Itoa(int(stepTime)))
		if numSteps != 0 {
			if decrease {
				b.WriteString(" -")
			} else {
				b.WriteString(" +")
			}
			b.WriteString(strconv.Itoa(int(numSteps)))
		}
	case InstrBranch:
		loops, step := BranchFields(instr)
		b.WriteString("branch ")
		b.WriteString(strconv.Itoa(int(loops)))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(step)))
	case InstrEnd:
		b.WriteString("end")
		if instr&_END_INT_Msk != 0 {
			b.WriteString(" irq")
		}
		if instr&_END_RESET_Msk != 0 {
			b.WriteString(" reset")
		}
	case InstrTrigger:
		send, wait := TriggerFields(instr)
		switch {
		case send != 0 && wait != 0:
			return rawWord(instr)
		case wait != 0:
			b.WriteString("trigger_wait")
			writeEngines(&b, wait)
		default:
			b.WriteString("trigger_send")
			writeEngines(&b, send)
		}
	default:
		return rawWord(instr)
	}
	return b.String()
}

func writeEngines(b *strings.Builder, mask EngineMask) {
	for index := uint8(1); index <= NumEngines; index++ {
		if mask.Has(index) {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(int(index)))
		}
	}
}

func rawWord(instr uint16) string {
	return ".word 0x" + strconv.FormatUint(uint64(instr)|0x10000, 16)[1:]
}

func boolAsU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
