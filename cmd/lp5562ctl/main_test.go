package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tinygo.org/x/drivers"

	"github.com/tinygo-org/lp5562/internal/fakebus"
	"github.com/tinygo-org/lp5562/lp5562"
)

func withFakeBus(t *testing.T) *fakebus.Bus {
	t.Helper()
	bus := fakebus.New(lp5562.DefaultAddress)
	saved := openBus
	openBus = func(string) (drivers.I2C, func() error, error) {
		return bus, func() error { return nil }, nil
	}
	t.Cleanup(func() { openBus = saved })
	return bus
}

func runCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func checkRegs(t *testing.T, bus *fakebus.Bus, want map[lp5562.Register]uint8) {
	t.Helper()
	for reg, v := range want {
		if got := bus.Regs[reg]; got != v {
			t.Errorf("register %#02x = %#02x, want %#02x", reg, got, v)
		}
	}
}

func TestInit(t *testing.T) {
	bus := withFakeBus(t)
	if _, _, err := runCmd(t, "", "-current", "10", "-hf", "init"); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegRedCurr:   100,
		lp5562.RegWhiteCurr: 100,
		lp5562.RegEnable:    0xc0,
		lp5562.RegConfig:    0x41,
	})
}

func TestSolid(t *testing.T) {
	bus := withFakeBus(t)
	if _, _, err := runCmd(t, "", "solid", "#ff8000", "20"); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegRedPWM:   0xff,
		lp5562.RegGreenPWM: 0x80,
		lp5562.RegBluePWM:  0,
		lp5562.RegWhitePWM: 20,
		lp5562.RegLEDMap:   0,
	})
}

func TestEffects(t *testing.T) {
	tests := []struct {
		args []string
		lmap uint8
	}{
		{[]string{"blink", "ff0000", "500ms", "500ms"}, 0b00_01_10_11},
		{[]string{"blink2", "ff0000", "1s", "0000ff", "2s"}, 0b00_01_10_11},
		{[]string{"breathe", "rw", "20", "0", "255"}, 0b01_01_00_00},
		{[]string{"indicator", "g=fastblink", "b=breathe", "w=40"}, 0b00_00_10_11},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			bus := withFakeBus(t)
			if _, _, err := runCmd(t, "", tt.args...); err != nil {
				t.Fatal(err)
			}
			if got := bus.Regs[lp5562.RegLEDMap]; got != tt.lmap {
				t.Errorf("led map = %08b, want %08b", got, tt.lmap)
			}
		})
	}
}

func TestIndicator_level(t *testing.T) {
	bus := withFakeBus(t)
	if _, _, err := runCmd(t, "", "indicator", "r=blink", "white=40"); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegWhitePWM: 40,
		lp5562.RegLEDMap:   0b00_01_00_00,
	})
	if _, _, err := runCmd(t, "", "indicator", "r:blink"); !errors.Is(err, errUsage) {
		t.Errorf("got %v, want errUsage", err)
	}
}

func TestRoute(t *testing.T) {
	bus := withFakeBus(t)
	if _, _, err := runCmd(t, "", "route", "r", "2"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCmd(t, "", "route", "g", "direct", "77"); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegLEDMap:   0b00_10_00_00,
		lp5562.RegGreenPWM: 77,
	})
}

func TestLoadDumpExec(t *testing.T) {
	bus := withFakeBus(t)
	src := writeFile(t, "blink.lp", "set_pwm 255\ndelay 100ms\nset_pwm 0\ndelay 100ms\n")
	if _, _, err := runCmd(t, "", "load", "-start", "2", src); err != nil {
		t.Fatal(err)
	}
	prog := bus.Program(uint8(lp5562.RegProgram2))
	if prog[0] != 0x40ff || prog[1] != 0x4600 || prog[4] != 0 {
		t.Errorf("program %04x", prog)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegOpMode: 0b00_10_00,
		lp5562.RegEnable: 0b00_10_00,
	})

	out, _, err := runCmd(t, "", "dump", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, " 0: set_pwm 255\n 1: wait prescale 6\n") {
		t.Errorf("dump output:\n%s", out)
	}

	if _, _, err := runCmd(t, "", "exec", "13", "run"); err != nil {
		t.Fatal(err)
	}
	if got := bus.Regs[lp5562.RegEnable]; got != 0b10_10_10 {
		t.Errorf("enable = %08b", got)
	}
}

func TestLoad_badProgram(t *testing.T) {
	withFakeBus(t)
	src := writeFile(t, "bad.lp", "set_pwm 999\n")
	_, _, err := runCmd(t, "", "load", "1", src)
	if err == nil || !strings.Contains(err.Error(), "bad.lp") {
		t.Errorf("got %v", err)
	}
	if _, _, err := runCmd(t, "", "load", "4", src); !errors.Is(err, errUsage) {
		t.Errorf("engine 4: got %v", err)
	}
}

func TestStatus(t *testing.T) {
	bus := withFakeBus(t)
	bus.Regs[lp5562.RegStatus] = 0x0c
	bus.Regs[lp5562.RegLEDMap] = 0b11_00_00_00
	out, _, err := runCmd(t, "", "status")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"external clock: true\n",
		"interrupts: 1\n",
		"engine 1: disabled/hold pc=0\n",
		"red: direct\n",
		"white: engine3\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output lacks %q:\n%s", want, out)
		}
	}
	if bus.Regs[lp5562.RegStatus] != 0 {
		t.Error("status register not cleared by reading")
	}
}

func TestScript(t *testing.T) {
	bus := withFakeBus(t)
	path := writeFile(t, "show.txt", "init\n\n# comment\nsolid 102030\nroute w 1\nsleep 1ms\n")
	if _, _, err := runCmd(t, "", "script", path); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegRedPWM:  0x10,
		lp5562.RegBluePWM: 0x30,
		lp5562.RegLEDMap:  0b01_00_00_00,
		lp5562.RegEnable:  0xc0,
	})
}

func TestScript_stdin(t *testing.T) {
	bus := withFakeBus(t)
	if _, _, err := runCmd(t, "solid 'ffffff' 1\n", "script"); err != nil {
		t.Fatal(err)
	}
	if got := bus.Regs[lp5562.RegWhitePWM]; got != 1 {
		t.Errorf("white = %d", got)
	}
}

func TestScript_errorLine(t *testing.T) {
	withFakeBus(t)
	_, _, err := runCmd(t, "solid 000000\nsolid zz\n", "script", "-")
	if !errors.Is(err, errUsage) || !strings.Contains(err.Error(), "stdin:2:") {
		t.Errorf("got %v", err)
	}
	_, _, err = runCmd(t, "script\n", "script")
	if !errors.Is(err, errUsage) {
		t.Errorf("nested script: got %v", err)
	}
}

func TestLua(t *testing.T) {
	bus := withFakeBus(t)
	path := writeFile(t, "show.lua", `
for i = 0, 2 do
	lp("solid", rgb(i * 100, 0, 300))
	sleep(1)
end
lp("route", "w", 3)
`)
	if _, _, err := runCmd(t, "", "lua", path); err != nil {
		t.Fatal(err)
	}
	checkRegs(t, bus, map[lp5562.Register]uint8{
		lp5562.RegRedPWM:  200,
		lp5562.RegBluePWM: 0xff,
		lp5562.RegLEDMap:  0b11_00_00_00,
	})
}

func TestLua_error(t *testing.T) {
	withFakeBus(t)
	path := writeFile(t, "bad.lua", `lp("bogus")`)
	_, _, err := runCmd(t, "", "lua", path)
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("got %v", err)
	}
}

func TestAsmDisasm(t *testing.T) {
	path := writeFile(t, "p.lp", "ramp 3 +127\nwait prescale 13\n")
	out, _, err := runCmd(t, "", "asm", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "0x037f\n0x4d00\n" {
		t.Errorf("asm output %q", out)
	}
	out, _, err = runCmd(t, "", "disasm", "0x40ff", "0xe300")
	if err != nil {
		t.Fatal(err)
	}
	if out != " 0: set_pwm 255\n 1: trigger_send 2 3\n" {
		t.Errorf("disasm output %q", out)
	}
}

func TestVerboseTrace(t *testing.T) {
	withFakeBus(t)
	_, stderr, err := runCmd(t, "", "-v", "solid", "010203")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "i2c tx") || !strings.Contains(stderr, "w=0401") {
		t.Errorf("trace output:\n%s", stderr)
	}
}

func TestErrors(t *testing.T) {
	withFakeBus(t)
	if _, _, err := runCmd(t, ""); !errors.Is(err, errUsage) {
		t.Errorf("no command: got %v", err)
	}
	if _, _, err := runCmd(t, "", "strobe"); !errors.Is(err, errUsage) {
		t.Errorf("unknown command: got %v", err)
	}
	if _, _, err := runCmd(t, "", "blink", "ff0000", "2m", "1s"); !errors.Is(err, lp5562.ErrDelayOutOfRange) {
		t.Errorf("long delay: got %v", err)
	}
	if _, _, err := runCmd(t, "", "breathe", "r", "1", "9", "9"); err == nil {
		t.Error("breathe with equal levels succeeded")
	}
	_, _, err := runCmd(t, "", "-addr", "0x31", "solid", "000000")
	if !errors.Is(err, lp5562.ErrTransport) || !errors.Is(err, fakebus.ErrNack) {
		t.Errorf("wrong address: got %v", err)
	}
}

func TestOpenBusError(t *testing.T) {
	saved := openBus
	openBus = func(string) (drivers.I2C, func() error, error) {
		return nil, nil, errors.New("no bus")
	}
	t.Cleanup(func() { openBus = saved })
	if _, _, err := runCmd(t, "", "status"); err == nil || !strings.Contains(err.Error(), "open bus") {
		t.Errorf("got %v", err)
	}
}
