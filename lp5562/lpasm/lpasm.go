// Package lpasm assembles LP5562 engine programs from text.
//
// A source holds one instruction per line, using the mnemonics printed by
// lp5562.Disassemble:
//
//	goto_start
//	set_pwm <level>
//	wait [prescale] <steptime>
//	ramp [prescale] <steptime> <+steps|-steps>
//	branch <loops> <step|label>
//	end [irq] [reset]
//	trigger_send <engine>...
//	trigger_wait <engine>...
//	.word <value>
//	delay <duration>
//
// delay takes a Go duration ("250ms", "3s") and expands to one or two
// instructions. A line may start with a label ("loop:") that branch can
// refer to, and with @N to place the instruction in slot N instead of the
// next one. Everything after # is a comment.
package lpasm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/tinygo-org/lp5562/lp5562"
)

// ErrSyntax is returned for a line that can't be parsed.
var ErrSyntax = errors.New("lpasm: syntax error")

type fixup struct {
	line  int
	step  uint8
	loops uint8
	label string
}

type assembler struct {
	p      lp5562.Program
	labels map[string]uint8
	fixups []fixup
	line   int
}

// Assemble parses src into a program.
func Assemble(src string) (lp5562.Program, error) {
	a := assembler{labels: make(map[string]uint8)}
	for i, text := range strings.Split(src, "\n") {
		a.line = i + 1
		fields, err := shlex.Split(text)
		if err != nil {
			return lp5562.Program{}, a.errorf("%v", err)
		}
		if err := a.assembleLine(fields); err != nil {
			return lp5562.Program{}, err
		}
	}
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			a.line = f.line
			return lp5562.Program{}, a.errorf("undefined label %q", f.label)
		}
		instr, err := lp5562.EncodeBranch(f.loops, target)
		if err != nil {
			return lp5562.Program{}, fmt.Errorf("line %d: %w", f.line, err)
		}
		a.p.AddAt(f.step, instr)
	}
	return a.p, nil
}

// MustAssemble is like Assemble but panics on error. It is meant for
// programs written into the source code.
func MustAssemble(src string) lp5562.Program {
	p, err := Assemble(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (a *assembler) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, a.line, fmt.Sprintf(format, args...))
}

func (a *assembler) assembleLine(fields []string) error {
	var label string
	if len(fields) > 0 && strings.HasSuffix(fields[0], ":") {
		label = strings.TrimSuffix(fields[0], ":")
		if !isLabel(label) {
			return a.errorf("bad label %q", fields[0])
		}
		if _, dup := a.labels[label]; dup {
			return a.errorf("label %q redefined", label)
		}
		fields = fields[1:]
	}
	step := a.p.Len()
	explicit := false
	if len(fields) > 0 && strings.HasPrefix(fields[0], "@") {
		n, err := strconv.ParseUint(fields[0][1:], 0, 8)
		if err != nil || n >= lp5562.MaxInstructions {
			return a.errorf("bad slot %q", fields[0])
		}
		if len(fields) == 1 {
			return a.errorf("missing instruction after %s", fields[0])
		}
		step, explicit = uint8(n), true
		fields = fields[1:]
	}
	if label != "" {
		a.labels[label] = step
	}
	if len(fields) == 0 {
		return nil
	}

	op, args := fields[0], fields[1:]
	if op == "delay" {
		if explicit {
			return a.errorf("delay can't be placed with @")
		}
		if len(args) != 1 {
			return a.errorf("delay takes one duration")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return a.errorf("%v", err)
		}
		if err := a.p.AddDelay(d); err != nil {
			return fmt.Errorf("line %d: %w", a.line, err)
		}
		return nil
	}

	instr, err := a.encode(op, args, step)
	if err != nil {
		return err
	}
	if explicit {
		err = a.p.AddAt(step, instr)
	} else {
		err = a.p.Add(instr)
	}
	if err != nil {
		return fmt.Errorf("line %d: %w", a.line, err)
	}
	return nil
}

// encode returns the word for a single instruction placed at step.
func (a *assembler) encode(op string, args []string, step uint8) (uint16, error) {
	switch op {
	case "goto_start":
		if len(args) != 0 {
			return 0, a.errorf("goto_start takes no arguments")
		}
		return lp5562.EncodeGotoStart(), nil

	case "set_pwm":
		if len(args) != 1 {
			return 0, a.errorf("set_pwm takes one level")
		}
		level, err := a.number(args[0], 0xff)
		return lp5562.EncodeSetPWM(uint8(level)), err

	case "wait", "ramp":
		prescale := len(args) > 0 && args[0] == "prescale"
		if prescale {
			args = args[1:]
		}
		want := 1
		if op == "ramp" {
			want = 2
		}
		if len(args) != want {
			return 0, a.errorf("%s takes [prescale] and %d values", op, want)
		}
		stepTime, err := a.number(args[0], lp5562.MaxStepTime)
		if err != nil {
			return 0, err
		}
		if op == "wait" {
			return lp5562.EncodeWait(prescale, uint8(stepTime)), nil
		}
		steps := args[1]
		decrease := strings.HasPrefix(steps, "-")
		steps = strings.TrimLeft(steps, "+-")
		numSteps, err := a.number(steps, lp5562.MaxRampSteps)
		return lp5562.EncodeRamp(prescale, uint8(stepTime), decrease, uint8(numSteps)), err

	case "branch":
		if len(args) != 2 {
			return 0, a.errorf("branch takes a loop count and a step")
		}
		loops, err := a.number(args[0], lp5562.MaxLoopCount)
		if err != nil {
			return 0, err
		}
		if isLabel(args[1]) {
			// Resolved once every label is known.
			a.fixups = append(a.fixups, fixup{line: a.line, step: step, loops: uint8(loops), label: args[1]})
			return lp5562.EncodeGotoStart(), nil
		}
		target, err := a.number(args[1], 0xff)
		if err != nil {
			return 0, err
		}
		instr, err := lp5562.EncodeBranch(uint8(loops), uint8(target))
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", a.line, err)
		}
		return instr, nil

	case "end":
		var irq, reset bool
		for _, arg := range args {
			switch arg {
			case "irq":
				irq = true
			case "reset":
				reset = true
			default:
				return 0, a.errorf("unknown end flag %q", arg)
			}
		}
		return lp5562.EncodeEnd(irq, reset), nil

	case "trigger_send", "trigger_wait":
		var mask lp5562.EngineMask
		for _, arg := range args {
			n, err := strconv.ParseUint(arg, 10, 8)
			if err != nil || n < 1 || n > lp5562.NumEngines {
				return 0, a.errorf("bad engine %q", arg)
			}
			mask |= lp5562.EngineBit(uint8(n))
		}
		if op == "trigger_send" {
			return lp5562.EncodeTriggerSend(mask), nil
		}
		return lp5562.EncodeTriggerWait(mask), nil

	case ".word":
		if len(args) != 1 {
			return 0, a.errorf(".word takes one value")
		}
		v, err := a.number(args[0], 0xffff)
		return uint16(v), err
	}
	return 0, a.errorf("unknown instruction %q", op)
}

// number parses an unsigned decimal, hex or binary number no larger than limit.
func (a *assembler) number(s string, limit uint64) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, a.errorf("bad number %q", s)
	}
	if v > limit {
		return 0, a.errorf("%d out of range 0..%d", v, limit)
	}
	return v, nil
}

func isLabel(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
