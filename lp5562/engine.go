package lp5562

// NumEngines is the number of program engines in the LP5562.
const NumEngines = 3

// EngineMask selects a set of engines for enable and trigger operations.
type EngineMask uint8

const (
	MaskEngine1    EngineMask = 0b001
	MaskEngine2    EngineMask = 0b010
	MaskEngine3    EngineMask = 0b100
	MaskAllEngines EngineMask = 0b111
)

// EngineBit returns the mask of the engine with the given index (1-3).
func EngineBit(index uint8) EngineMask {
	mustEngineIndex(index)
	return 1 << (index - 1)
}

// Has returns true if the engine with the given index is in the mask.
func (m EngineMask) Has(index uint8) bool {
	return index >= 1 && index <= NumEngines && m&(1<<(index-1)) != 0
}

// OpMode is the operation mode of an engine, set in the OP_MODE register.
type OpMode uint8

const (
	// OpDisabled stops the engine.
	OpDisabled OpMode = iota
	// OpLoad holds the engine and allows writing its program memory.
	OpLoad
	// OpRun executes the program from the current program counter
	// according to the engine's ExecMode.
	OpRun
	// OpDirect holds the engine at its current program counter. Used with
	// ExecExecute to run single instructions.
	OpDirect
)

// ExecMode is the execution mode of an engine, set in the ENABLE register.
type ExecMode uint8

const (
	// ExecHold waits for the current instruction to finish and stops.
	ExecHold ExecMode = iota
	// ExecStep executes the instruction at the program counter, increments
	// the counter and returns to hold.
	ExecStep
	// ExecRun runs the program from the program counter.
	ExecRun
	// ExecExecute runs the instruction at the program counter without
	// incrementing it, then returns to hold.
	ExecExecute
)

func (m OpMode) String() string {
	switch m {
	case OpDisabled:
		return "disabled"
	case OpLoad:
		return "load"
	case OpRun:
		return "run"
	case OpDirect:
		return "direct"
	}
	return "invalid"
}

func (m ExecMode) String() string {
	switch m {
	case ExecHold:
		return "hold"
	case ExecStep:
		return "step"
	case ExecRun:
		return "run"
	case ExecExecute:
		return "execute"
	}
	return "invalid"
}

// EngineState is the combined operation and execution mode of an engine.
type EngineState struct {
	Op   OpMode
	Exec ExecMode
}

// Running returns true if the engine is executing its program.
func (s EngineState) Running() bool { return s.Op == OpRun && s.Exec == ExecRun }

func (s EngineState) String() string { return s.Op.String() + "/" + s.Exec.String() }

// Both OP_MODE and ENABLE hold a 2-bit field per engine: engine 1 in
// bits 5:4, engine 2 in bits 3:2, engine 3 in bits 1:0.
func engineFieldShift(index uint8) uint8 { return 2 * (NumEngines - index) }

func getEngineField(reg, index uint8) uint8 {
	return (reg >> engineFieldShift(index)) & 0b11
}

func setEngineField(reg, index, value uint8) uint8 {
	shift := engineFieldShift(index)
	return reg&^(0b11<<shift) | (value&0b11)<<shift
}

// Engine represents one of the three program engines of an LP5562.
type Engine struct {
	dev *Device
	// index of this engine, 1 to 3.
	index uint8
}

// Index returns the engine number, 1 to 3.
func (e Engine) Index() uint8 { return e.index }

// Mask returns the engine's bit for enable and trigger masks.
func (e Engine) Mask() EngineMask { return EngineBit(e.index) }

// Route returns the LED routing value that connects a channel to this engine.
func (e Engine) Route() Route { return EngineRoute(e.index) }

// Device returns the device this engine is part of.
func (e Engine) Device() *Device { return e.dev }

func (e Engine) programAddr() Register {
	return RegProgram1 + Register(e.index-1)*programBlockSize
}

// SetOpMode sets the engine's operation mode, leaving the other engines unchanged.
func (e Engine) SetOpMode(mode OpMode) error {
	reg, err := e.dev.ReadRegister(RegOpMode)
	if err != nil {
		return err
	}
	return e.dev.WriteRegister(RegOpMode, setEngineField(reg, e.index, uint8(mode)))
}

// OpMode reads the engine's operation mode.
func (e Engine) OpMode() (OpMode, error) {
	reg, err := e.dev.ReadRegister(RegOpMode)
	return OpMode(getEngineField(reg, e.index)), err
}

// SetExecMode sets the engine's execution mode. See [Device.SetExecMode].
func (e Engine) SetExecMode(mode ExecMode) error {
	return e.dev.SetExecMode(e.Mask(), mode)
}

// ExecMode reads the engine's execution mode.
func (e Engine) ExecMode() (ExecMode, error) {
	reg, err := e.dev.ReadRegister(RegEnable)
	return ExecMode(getEngineField(reg, e.index)), err
}

// State reads the engine's operation and execution mode.
func (e Engine) State() (EngineState, error) {
	op, err := e.OpMode()
	if err != nil {
		return EngineState{}, err
	}
	exec, err := e.ExecMode()
	return EngineState{Op: op, Exec: exec}, err
}

// PC reads the engine's program counter (0-15).
func (e Engine) PC() (uint8, error) {
	pc, err := e.dev.ReadRegister(RegEngine1PC + Register(e.index-1))
	return pc & 0x0f, err
}

// SetProgram loads p into the engine. See [Engine.SetWords].
func (e Engine) SetProgram(p *Program, start bool) error {
	return e.SetWords(p.Words(), start)
}

// SetWords loads a program into the engine's memory. Unused slots are filled
// with goto_start so the program loops.
//
// The engine is put on hold and in load mode before program memory is
// written. Afterwards its operation mode is set to run, or disabled if words
// is empty, and only then is execution started if start is true.
//
// A transport error leaves the engine in whatever state it reached; the whole
// load should be repeated.
func (e Engine) SetWords(words []uint16, start bool) error {
	p, err := ProgramFromWords(words)
	if err != nil {
		return err
	}
	if err = e.SetExecMode(ExecHold); err != nil {
		return err
	}
	if err = e.SetOpMode(OpLoad); err != nil {
		return err
	}
	if err = e.dev.writeProgram(e.programAddr(), p.Padded()); err != nil {
		return err
	}
	mode := OpRun
	if len(words) == 0 {
		mode = OpDisabled
	}
	if err = e.SetOpMode(mode); err != nil {
		return err
	}
	if start && len(words) > 0 {
		return e.SetExecMode(ExecRun)
	}
	return nil
}

// Clear zeroes the engine's program memory and disables it.
func (e Engine) Clear() error {
	return e.SetWords(nil, false)
}

func mustEngineIndex(index uint8) {
	if index < 1 || index > NumEngines {
		panic(badEngineIndex)
	}
}
