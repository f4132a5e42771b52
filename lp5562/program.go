package lp5562

import (
	"strconv"
	"strings"
)

// MaxInstructions is the size of each engine's program memory.
const MaxInstructions = 16

// Program is an engine program being assembled in host memory. The zero value
// is an empty program ready for use.
//
// Slots after the last instruction hold goto_start, the power-on content of
// program memory, so a program shorter than 16 instructions loops by itself.
type Program struct {
	instr [MaxInstructions]uint16
	// next is the slot the next appended instruction is written to.
	next uint8
}

// ProgramFromWords returns a program holding words. It fails with
// ErrProgramFull if more than 16 words are passed.
func ProgramFromWords(words []uint16) (Program, error) {
	var p Program
	if len(words) > MaxInstructions {
		return p, ErrProgramFull
	}
	p.next = uint8(copy(p.instr[:], words))
	return p, nil
}

// Len returns the number of instructions in the program, which is also
// the step number the next appended instruction is written to.
func (p *Program) Len() uint8 { return p.next }

// Add appends instr to the program. It returns ErrProgramFull and leaves the
// program untouched if all 16 slots are used.
func (p *Program) Add(instr uint16) error {
	if p.next >= MaxInstructions {
		return ErrProgramFull
	}
	p.instr[p.next] = instr
	p.next++
	return nil
}

// AddAt writes instr at step, overwriting what was there. If step is past
// the end of the program the program grows to include it; skipped slots keep
// their previous content (goto_start on a fresh program).
func (p *Program) AddAt(step uint8, instr uint16) error {
	if step >= MaxInstructions {
		return ErrInvalidStep
	}
	p.instr[step] = instr
	if step >= p.next {
		p.next = step + 1
	}
	return nil
}

// At returns the instruction at step. Steps past the end return goto_start.
func (p *Program) At(step uint8) uint16 {
	if step >= MaxInstructions {
		panic(badProgramBounds)
	}
	return p.instr[step]
}

func (p *Program) AddRamp(prescale bool, stepTime uint8, decrease bool, numSteps uint8) error {
	return p.Add(EncodeRamp(prescale, stepTime, decrease, numSteps))
}

func (p *Program) AddWait(prescale bool, stepTime uint8) error {
	return p.Add(EncodeWait(prescale, stepTime))
}

func (p *Program) AddSetPWM(level uint8) error {
	return p.Add(EncodeSetPWM(level))
}

func (p *Program) AddGotoStart() error {
	return p.Add(EncodeGotoStart())
}

// AddBranch appends a branch to stepNum. The program is not modified if the
// branch cannot be encoded.
func (p *Program) AddBranch(loopCount, stepNum uint8) error {
	instr, err := EncodeBranch(loopCount, stepNum)
	if err != nil {
		return err
	}
	return p.Add(instr)
}

func (p *Program) AddEnd(generateInterrupt, setPWMto0 bool) error {
	return p.Add(EncodeEnd(generateInterrupt, setPWMto0))
}

func (p *Program) AddTriggerSend(mask EngineMask) error {
	return p.Add(EncodeTriggerSend(mask))
}

func (p *Program) AddTriggerWait(mask EngineMask) error {
	return p.Add(EncodeTriggerWait(mask))
}

// Words returns a copy of the instructions in the program.
func (p *Program) Words() []uint16 {
	words := make([]uint16, p.next)
	copy(words, p.instr[:p.next])
	return words
}

// Padded returns the full 16 word image of the program as written to the device.
func (p *Program) Padded() [MaxInstructions]uint16 {
	return p.instr
}

// Clear empties the program.
func (p *Program) Clear() {
	*p = Program{}
}

// String returns a listing of the program, one instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	for i := uint8(0); i < p.next; i++ {
		if i < 10 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(i)))
		b.WriteString(": ")
		b.WriteString(Disassemble(p.instr[i]))
		b.WriteByte('\n')
	}
	return b.String()
}
