// Command lp5562ctl drives an LP5562 LED controller from a Linux host.
//
// Usage:
//
//	lp5562ctl [flags] <command> [arguments]
//
// Commands:
//
//	init                                 reset and configure the chip
//	solid <rrggbb> [white]               steady color
//	blink <rrggbb> <on> <off>            blink, durations like 500ms or 2s
//	blink2 <rrggbb> <d1> <rrggbb> <d2>   alternate between two colors
//	breathe <channels> <steptime> <low> <high>
//	indicator [<channel>=<mode|level>]...
//	route <channel> <direct|1|2|3> [level]
//	load [-start] <engine> <file>        assemble and load an engine program
//	exec <engines> <hold|step|run|execute>
//	dump <engine>                        disassemble an engine's program memory
//	status
//	sleep <duration>
//	script [file]                        run commands from a file or stdin
//	lua <file>                           run a Lua light show
//	asm <file>                           print the words of an assembled program
//	disasm <word>...
//
// Channels are r, g, b and w. The chip keeps its state between invocations,
// so init is only needed once after power-up.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"golang.org/x/term"

	"github.com/tinygo-org/lp5562/lp5562"
	"github.com/tinygo-org/lp5562/lp5562/ledlib"
	"github.com/tinygo-org/lp5562/lp5562/lpasm"
)

var errUsage = errors.New("lp5562ctl: bad usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ctl executes commands against one device.
type ctl struct {
	dev   *lp5562.Device
	led   *ledlib.RGBW
	cfg   lp5562.Config
	in    io.Reader
	out   io.Writer
	log   *slog.Logger
	sleep func(time.Duration)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lp5562ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	busName := fs.String("bus", "", "I2C bus name or number (default: first bus)")
	addr := fs.Uint("addr", lp5562.DefaultAddress, "device address; 0-3 are shorthand for 0x30-0x33")
	verbose := fs.Bool("v", false, "log every bus transaction")
	current := fs.Float64("current", float64(lp5562.DefaultCurrent.Milliamps()), "init: LED current limit in mA")
	linear := fs.Bool("linear", false, "init: linear instead of logarithmic PWM")
	hf := fs.Bool("hf", false, "init: 558Hz instead of 256Hz PWM")
	extclk := fs.Bool("extclk", false, "init: use the external 32kHz clock")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: lp5562ctl [flags] <command> [arguments]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// Commands that don't need the device.
	switch cmd {
	case "asm":
		return asm(stdout, cmdArgs)
	case "disasm":
		return disasm(stdout, cmdArgs)
	case "help":
		fs.Usage()
		return nil
	}

	bus, closeBus, err := openBus(*busName)
	if err != nil {
		return fmt.Errorf("open bus: %w", err)
	}
	defer closeBus()
	if *verbose {
		bus = traceBus{bus: bus, log: logger}
	}
	dev := lp5562.New(bus, uint16(*addr))
	logger.Debug("device", "addr", dev.Address())

	c := &ctl{
		dev:   dev,
		led:   ledlib.NewRGBW(dev),
		in:    stdin,
		out:   stdout,
		log:   logger,
		sleep: time.Sleep,
	}
	cur := lp5562.CurrentFromMilliamps(float32(*current))
	c.cfg = lp5562.Config{
		RedCurrent:         cur,
		GreenCurrent:       cur,
		BlueCurrent:        cur,
		WhiteCurrent:       cur,
		ExternalOscillator: *extclk,
		Linear:             *linear,
		HighFrequency:      *hf,
	}
	return c.do(cmd, cmdArgs)
}

func nargs(args []string, lo, hi int, syntax string) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("%w: %s", errUsage, syntax)
	}
	return nil
}

// do runs a single command.
func (c *ctl) do(cmd string, args []string) error {
	c.log.Debug("command", "cmd", cmd, "args", args)
	switch cmd {
	case "init":
		if err := nargs(args, 0, 0, "init"); err != nil {
			return err
		}
		return c.dev.Configure(c.cfg)

	case "solid":
		if err := nargs(args, 1, 2, "solid <rrggbb> [white]"); err != nil {
			return err
		}
		rgb, err := parseColor(args[0])
		if err != nil {
			return err
		}
		var w uint8
		if len(args) == 2 {
			if w, err = parseLevel(args[1]); err != nil {
				return err
			}
		}
		return c.led.SetRGBW(rgb.R, rgb.G, rgb.B, w)

	case "blink":
		if err := nargs(args, 3, 3, "blink <rrggbb> <on> <off>"); err != nil {
			return err
		}
		rgb, err := parseColor(args[0])
		if err != nil {
			return err
		}
		on, err := time.ParseDuration(args[1])
		if err != nil {
			return err
		}
		off, err := time.ParseDuration(args[2])
		if err != nil {
			return err
		}
		return c.led.SetBlink(rgb, on, off)

	case "blink2":
		if err := nargs(args, 4, 4, "blink2 <rrggbb> <d1> <rrggbb> <d2>"); err != nil {
			return err
		}
		c1, err := parseColor(args[0])
		if err != nil {
			return err
		}
		d1, err := time.ParseDuration(args[1])
		if err != nil {
			return err
		}
		c2, err := parseColor(args[2])
		if err != nil {
			return err
		}
		d2, err := time.ParseDuration(args[3])
		if err != nil {
			return err
		}
		return c.led.SetBlink2(c1, d1, c2, d2)

	case "breathe":
		if err := nargs(args, 4, 4, "breathe <channels> <steptime> <low> <high>"); err != nil {
			return err
		}
		set, err := parseChannels(args[0])
		if err != nil {
			return err
		}
		var levels [3]uint8
		for i, s := range args[1:] {
			if levels[i], err = parseLevel(s); err != nil {
				return err
			}
		}
		return c.led.SetBreathe(set, levels[0], levels[1], levels[2])

	case "indicator":
		return c.indicator(args)

	case "route":
		if err := nargs(args, 2, 3, "route <channel> <direct|1|2|3> [level]"); err != nil {
			return err
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		route, err := parseRoute(args[1])
		if err != nil {
			return err
		}
		var level uint8
		if len(args) == 3 {
			if level, err = parseLevel(args[2]); err != nil {
				return err
			}
		}
		return c.led.SetRoute(ch, route, level)

	case "load":
		return c.load(args)

	case "exec":
		if err := nargs(args, 2, 2, "exec <engines> <hold|step|run|execute>"); err != nil {
			return err
		}
		mask, err := parseEngines(args[0])
		if err != nil {
			return err
		}
		mode, err := parseExecMode(args[1])
		if err != nil {
			return err
		}
		return c.led.SetEngineEnable(mask, mode)

	case "dump":
		if err := nargs(args, 1, 1, "dump <engine>"); err != nil {
			return err
		}
		index, err := parseEngine(args[0])
		if err != nil {
			return err
		}
		words, err := c.readProgram(index)
		if err != nil {
			return err
		}
		p, _ := lp5562.ProgramFromWords(words[:])
		fmt.Fprint(c.out, p.String())
		return nil

	case "status":
		if err := nargs(args, 0, 0, "status"); err != nil {
			return err
		}
		return c.status()

	case "sleep":
		if err := nargs(args, 1, 1, "sleep <duration>"); err != nil {
			return err
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return err
		}
		c.sleep(d)
		return nil

	case "script":
		return c.script(args)

	case "lua":
		return c.runLua(args)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (c *ctl) indicator(args []string) error {
	type setting struct {
		ch    lp5562.Channel
		mode  ledlib.IndicatorMode
		level uint8
	}
	// Parse everything before touching the device.
	settings := make([]setting, 0, len(args))
	for _, arg := range args {
		chName, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: indicator setting %q is not <channel>=<mode|level>", errUsage, arg)
		}
		ch, err := parseChannel(chName)
		if err != nil {
			return err
		}
		s := setting{ch: ch}
		if mode, ok := ledlib.ParseIndicatorMode(value); ok {
			s.mode = mode
		} else if s.level, err = parseLevel(value); err != nil {
			return err
		}
		settings = append(settings, s)
	}
	ind, err := c.led.SetIndicatorMode(ledlib.IndicatorConfig{})
	if err != nil {
		return err
	}
	for _, s := range settings {
		if s.mode == ledlib.IndicatorDirect {
			err = ind.SetLevel(s.ch, s.level)
		} else {
			err = ind.Set(s.ch, s.mode)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ctl) load(args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	start := fs.Bool("start", false, "start the engine after loading")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := nargs(fs.Args(), 2, 2, "load [-start] <engine> <file>"); err != nil {
		return err
	}
	index, err := parseEngine(fs.Arg(0))
	if err != nil {
		return err
	}
	src, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	p, err := lpasm.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(1), err)
	}
	c.log.Debug("loading program", "engine", index, "words", p.Len())
	return c.led.SetRawProgram(index, p.Words(), *start)
}

// readProgram reads an engine's program memory. The chip only returns it in
// load mode, so the engine is held and switched to load mode for the read,
// then put back in its previous modes. It restarts from step 0.
func (c *ctl) readProgram(index uint8) ([lp5562.MaxInstructions]uint16, error) {
	e := c.dev.Engine(index)
	state, err := e.State()
	if err != nil {
		return [lp5562.MaxInstructions]uint16{}, err
	}
	if err := e.SetExecMode(lp5562.ExecHold); err != nil {
		return [lp5562.MaxInstructions]uint16{}, err
	}
	if err := e.SetOpMode(lp5562.OpLoad); err != nil {
		return [lp5562.MaxInstructions]uint16{}, err
	}
	words, err := c.dev.ReadProgram(index)
	if err != nil {
		return words, err
	}
	if err := e.SetOpMode(state.Op); err != nil {
		return words, err
	}
	return words, e.SetExecMode(state.Exec)
}

func (c *ctl) status() error {
	st, err := c.dev.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "external clock: %v\n", st.ExternalClock())
	fmt.Fprintf(c.out, "interrupts: %s\n", engineList(st.Interrupts()))
	for index := uint8(1); index <= lp5562.NumEngines; index++ {
		e := c.dev.Engine(index)
		state, err := e.State()
		if err != nil {
			return err
		}
		pc, err := e.PC()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "engine %d: %v pc=%d\n", index, state, pc)
	}
	m, err := c.dev.LEDMap()
	if err != nil {
		return err
	}
	for ch := lp5562.ChannelRed; ch <= lp5562.ChannelWhite; ch++ {
		fmt.Fprintf(c.out, "%s: %v\n", ch, m[ch])
	}
	return nil
}

func (c *ctl) script(args []string) error {
	if err := nargs(args, 0, 1, "script [file]"); err != nil {
		return err
	}
	in, name := c.in, "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, name = f, args[0]
	}
	interactive := false
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		interactive = true
	}

	sc := bufio.NewScanner(in)
	for line := 1; ; line++ {
		if interactive {
			fmt.Fprint(c.out, "lp5562> ")
		}
		if !sc.Scan() {
			break
		}
		fields, err := shlex.Split(sc.Text())
		switch {
		case err != nil:
		case len(fields) == 0:
			continue
		case fields[0] == "script":
			err = fmt.Errorf("%w: scripts can't be nested", errUsage)
		default:
			err = c.do(fields[0], fields[1:])
		}
		if err == nil {
			continue
		}
		if interactive {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}
		return fmt.Errorf("%s:%d: %w", name, line, err)
	}
	return sc.Err()
}

func asm(out io.Writer, args []string) error {
	if err := nargs(args, 1, 1, "asm <file>"); err != nil {
		return err
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	p, err := lpasm.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	for _, w := range p.Words() {
		fmt.Fprintf(out, "0x%04x\n", w)
	}
	return nil
}

func disasm(out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: disasm <word>...", errUsage)
	}
	words := make([]uint16, len(args))
	for i, s := range args {
		v, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return err
		}
		words[i] = uint16(v)
	}
	p, err := lp5562.ProgramFromWords(words)
	if err != nil {
		return err
	}
	fmt.Fprint(out, p.String())
	return nil
}
