package lp5562

import (
	"errors"
	"testing"

	"github.com/tinygo-org/lp5562/internal/fakebus"
)

func newTestDevice(t *testing.T) (*Device, *fakebus.Bus) {
	t.Helper()
	bus := fakebus.New(DefaultAddress)
	dev := New(bus, 0)
	if err := dev.Configure(Config{}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	bus.ClearLog()
	return dev, bus
}

func writeRegs(txs []fakebus.Tx) []uint8 {
	regs := make([]uint8, len(txs))
	for i, tx := range txs {
		regs[i] = tx.W[0]
	}
	return regs
}

func equalBytes(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_address(t *testing.T) {
	for _, tt := range []struct{ in, want uint16 }{{0, 0x30}, {3, 0x33}, {0x32, 0x32}} {
		if got := New(nil, tt.in).Address(); got != tt.want {
			t.Errorf("New(%#x).Address() = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestConfigure_default(t *testing.T) {
	bus := fakebus.New(0x31)
	dev := New(bus, 1)
	if err := dev.Configure(Config{}); err != nil {
		t.Fatal(err)
	}
	for _, reg := range []Register{RegRedCurr, RegGreenCurr, RegBlueCurr, RegWhiteCurr} {
		if got := bus.Regs[reg]; got != uint8(DefaultCurrent) {
			t.Errorf("current register %#02x = %d", reg, got)
		}
	}
	if got := bus.Regs[RegEnable]; got != enableChipEn|enableLogEn {
		t.Errorf("enable = %#02x", got)
	}
	if got := bus.Regs[RegConfig]; got != configIntClkEn {
		t.Errorf("config = %#02x", got)
	}
	if bus.Log[0].W[0] != uint8(RegReset) || bus.Log[0].W[1] != 0xff {
		t.Errorf("first transaction %#02x is not a reset", bus.Log[0].W)
	}
}

func TestConfigure_custom(t *testing.T) {
	bus := fakebus.New(DefaultAddress)
	dev := New(bus, DefaultAddress)
	cfg := Config{
		RedCurrent:         CurrentFromMilliamps(10),
		GreenCurrent:       CurrentFromMilliamps(30),
		BlueCurrent:        CurrentFromMilliamps(-1),
		WhiteCurrent:       CurrentFromMilliamps(0.25),
		ExternalOscillator: true,
		Linear:             true,
		HighFrequency:      true,
		PowerSave:          true,
	}
	if err := dev.Configure(cfg); err != nil {
		t.Fatal(err)
	}
	want := map[Register]uint8{
		RegRedCurr:   100,
		RegGreenCurr: 255,
		RegBlueCurr:  0,
		RegWhiteCurr: 3,
		RegEnable:    enableChipEn,
		RegConfig:    configHF | configPSEn,
	}
	for reg, v := range want {
		if got := bus.Regs[reg]; got != v {
			t.Errorf("register %#02x = %#02x, want %#02x", reg, got, v)
		}
	}
}

func TestEngine_SetWords(t *testing.T) {
	dev, bus := newTestDevice(t)
	words := []uint16{0x40ff, 0x5f00, 0x4000, 0x5f00, 0xe300, 0x0000}
	if err := dev.Engine(2).SetWords(words, true); err != nil {
		t.Fatal(err)
	}
	writes := bus.Writes()
	// hold, load, program (two parts), run mode, start.
	wantRegs := []uint8{0x00, 0x01, 0x30, 0x30 + 30, 0x01, 0x00}
	if got := writeRegs(writes); !equalBytes(got, wantRegs) {
		t.Fatalf("write sequence %#02x, want %#02x", got, wantRegs)
	}
	if n := len(writes[2].W); n != 31 {
		t.Errorf("first program write is %d bytes, want 31", n)
	}
	if n := len(writes[3].W); n != 3 {
		t.Errorf("second program write is %d bytes, want 3", n)
	}
	prog := bus.Program(0x30)
	for i, w := range prog {
		var want uint16
		if i < len(words) {
			want = words[i]
		}
		if w != want {
			t.Errorf("step %d: %#04x, want %#04x", i, w, want)
		}
	}
	if got := bus.Regs[RegOpMode]; got != 0b00_00_10_00 {
		t.Errorf("op mode = %08b", got)
	}
	if got := bus.Regs[RegEnable]; got != enableChipEn|enableLogEn|0b00_00_10_00 {
		t.Errorf("enable = %08b", got)
	}
	state, err := dev.Engine(2).State()
	if err != nil || !state.Running() {
		t.Errorf("State = %v, %v", state, err)
	}
}

func TestEngine_SetWordsNoStart(t *testing.T) {
	dev, bus := newTestDevice(t)
	if err := dev.Engine(1).SetWords([]uint16{0x40ff}, false); err != nil {
		t.Fatal(err)
	}
	state, _ := dev.Engine(1).State()
	if state != (EngineState{Op: OpRun, Exec: ExecHold}) {
		t.Errorf("State = %v, want run/hold", state)
	}
	if got := bus.Regs[RegEnable] & enableExecMsk; got != 0 {
		t.Errorf("engine enabled: %08b", got)
	}
}

func TestEngine_SetWordsSecondWriteFails(t *testing.T) {
	dev, bus := newTestDevice(t)
	// Stale last instruction from an earlier program.
	bus.Regs[0x10+30] = 0xaa
	bus.Regs[0x10+31] = 0xaa
	words := make([]uint16, MaxInstructions)
	for i := range words {
		words[i] = EncodeSetPWM(uint8(i + 1))
	}
	// Transactions: read+write enable, read+write op mode, program part 1, program part 2.
	bus.FailAt(5, nil)
	err := dev.Engine(1).SetWords(words, true)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, fakebus.ErrFault) {
		t.Fatalf("got %v, want transport failure", err)
	}
	prog := bus.Program(0x10)
	for i := 0; i < 15; i++ {
		if prog[i] != words[i] {
			t.Errorf("step %d not written: %#04x", i, prog[i])
		}
	}
	if prog[15] != 0xaaaa {
		t.Errorf("step 15 = %#04x, want stale 0xaaaa", prog[15])
	}
	// The engine stays in load mode and is not started.
	state, _ := dev.Engine(1).State()
	if state.Op != OpLoad || state.Exec != ExecHold {
		t.Errorf("State = %v, want load/hold", state)
	}
}

func TestEngine_SetWordsTooLong(t *testing.T) {
	dev, bus := newTestDevice(t)
	if err := dev.Engine(3).SetWords(make([]uint16, 17), true); !errors.Is(err, ErrProgramFull) {
		t.Fatalf("got %v, want ErrProgramFull", err)
	}
	if len(bus.Log) != 0 {
		t.Errorf("%d transactions for an invalid program", len(bus.Log))
	}
}

func TestEngine_Clear(t *testing.T) {
	dev, bus := newTestDevice(t)
	e := dev.Engine(3)
	if err := e.SetWords([]uint16{0x40ff, 0x5f00}, true); err != nil {
		t.Fatal(err)
	}
	if err := e.Clear(); err != nil {
		t.Fatal(err)
	}
	if prog := bus.Program(0x50); prog != [MaxInstructions]uint16{} {
		t.Errorf("program memory not zeroed: %#04x", prog)
	}
	state, _ := e.State()
	if state != (EngineState{Op: OpDisabled, Exec: ExecHold}) {
		t.Errorf("State = %v, want disabled/hold", state)
	}
}

func TestDevice_ReadProgram(t *testing.T) {
	dev, _ := newTestDevice(t)
	words := []uint16{0x037f, 0x4d00, 0x03ff, 0x6000}
	if err := dev.Engine(1).SetWords(words, false); err != nil {
		t.Fatal(err)
	}
	got, err := dev.ReadProgram(1)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range words {
		if got[i] != w {
			t.Errorf("step %d: %#04x, want %#04x", i, got[i], w)
		}
	}
}

func TestDevice_SetExecMode(t *testing.T) {
	dev, bus := newTestDevice(t)
	if err := dev.SetExecMode(MaskAllEngines, ExecRun); err != nil {
		t.Fatal(err)
	}
	if writes := bus.Writes(); len(writes) != 1 {
		t.Fatalf("%d register writes, want 1", len(writes))
	}
	if got := bus.Regs[RegEnable]; got != enableChipEn|enableLogEn|0b10_10_10 {
		t.Errorf("enable = %08b", got)
	}
	if err := dev.SetExecMode(MaskEngine2, ExecStep); err != nil {
		t.Fatal(err)
	}
	if got := bus.Regs[RegEnable]; got != enableChipEn|enableLogEn|0b10_01_10 {
		t.Errorf("enable = %08b", got)
	}
}

func TestDevice_SetRoute(t *testing.T) {
	dev, bus := newTestDevice(t)
	if err := dev.SetRoute(ChannelGreen, RouteEngine2, 0); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetRoute(ChannelWhite, RouteDirect, 77); err != nil {
		t.Fatal(err)
	}
	m, err := dev.LEDMap()
	if err != nil {
		t.Fatal(err)
	}
	if want := (LEDMap{ChannelGreen: RouteEngine2}); m != want {
		t.Errorf("LEDMap = %v, want %v", m, want)
	}
	if got := bus.Regs[RegWhitePWM]; got != 77 {
		t.Errorf("white PWM = %d", got)
	}
}

func TestDevice_UseDirectRGB(t *testing.T) {
	dev, bus := newTestDevice(t)
	m := LEDMap{ChannelRed: RouteEngine1, ChannelGreen: RouteEngine2, ChannelWhite: RouteEngine3}
	if err := dev.SetLEDMap(m); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetExecMode(MaskAllEngines, ExecRun); err != nil {
		t.Fatal(err)
	}
	if err := dev.UseDirectRGB(); err != nil {
		t.Fatal(err)
	}
	got, _ := dev.LEDMap()
	if want := (LEDMap{ChannelWhite: RouteEngine3}); got != want {
		t.Errorf("LEDMap = %v, want %v", got, want)
	}
	// Engines 1 and 2 held, engine 3 still running.
	if got := bus.Regs[RegEnable] & enableExecMsk; got != 0b00_00_10 {
		t.Errorf("exec modes = %06b", got)
	}
	if err := dev.UseDirectW(); err != nil {
		t.Fatal(err)
	}
	if got, _ := dev.LEDMap(); got != (LEDMap{}) {
		t.Errorf("LEDMap = %v, want all direct", got)
	}
}

func TestDevice_SetRGBW(t *testing.T) {
	dev, bus := newTestDevice(t)
	if err := dev.SetRGBW(1, 2, 3, 4); err != nil {
		t.Fatal(err)
	}
	got := []uint8{bus.Regs[RegRedPWM], bus.Regs[RegGreenPWM], bus.Regs[RegBluePWM], bus.Regs[RegWhitePWM]}
	if !equalBytes(got, []uint8{1, 2, 3, 4}) {
		t.Errorf("PWM registers = %v", got)
	}
}

func TestDevice_Status(t *testing.T) {
	dev, bus := newTestDevice(t)
	bus.Regs[RegStatus] = statusExtClkUsed | statusEngine1Int | statusEngine3Int
	st, err := dev.Status()
	if err != nil {
		t.Fatal(err)
	}
	if !st.ExternalClock() || st.Interrupts() != MaskEngine1|MaskEngine3 {
		t.Errorf("Status = %08b", st)
	}
	st, _ = dev.Status()
	if st != 0 {
		t.Errorf("status not cleared by read: %08b", st)
	}
}

func TestDevice_readFailure(t *testing.T) {
	dev, bus := newTestDevice(t)
	bus.FailAt(0, nil)
	if _, err := dev.Engine(1).PC(); !errors.Is(err, ErrTransport) {
		t.Errorf("got %v, want ErrTransport", err)
	}
}

func TestDevice_EnginePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Engine(0) did not panic")
		}
	}()
	New(nil, 0).Engine(0)
}
