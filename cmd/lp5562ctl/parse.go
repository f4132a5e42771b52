package main

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/tinygo-org/lp5562/lp5562"
	"github.com/tinygo-org/lp5562/lp5562/ledlib"
)

// parseColor parses rrggbb, #rrggbb or 0xrrggbb.
func parseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not rrggbb", errUsage, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not rrggbb", errUsage, s)
	}
	return ledlib.RGB(uint32(v)), nil
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: level %q is not 0-255", errUsage, s)
	}
	return uint8(v), nil
}

// parseChannel accepts a channel name or its first letter.
func parseChannel(s string) (lp5562.Channel, error) {
	for ch := lp5562.ChannelRed; ch <= lp5562.ChannelWhite; ch++ {
		name := ch.String()
		if s == name || s == name[:1] {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown channel %q", errUsage, s)
}

// parseChannels parses a set of channel letters such as "rgb", or "all".
func parseChannels(s string) (ledlib.ChannelSet, error) {
	if s == "all" {
		s = "rgbw"
	}
	var set ledlib.ChannelSet
	for _, r := range s {
		ch, err := parseChannel(string(r))
		if err != nil {
			return 0, err
		}
		set |= ledlib.Channels(ch)
	}
	if set == 0 {
		return 0, fmt.Errorf("%w: no channels", errUsage)
	}
	return set, nil
}

func parseEngine(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "engine"), 10, 8)
	if err != nil || v < 1 || v > lp5562.NumEngines {
		return 0, fmt.Errorf("%w: engine %q is not 1-3", errUsage, s)
	}
	return uint8(v), nil
}

// parseEngines parses a set of engine digits such as "13", or "all".
func parseEngines(s string) (lp5562.EngineMask, error) {
	if s == "all" {
		return lp5562.MaskAllEngines, nil
	}
	var mask lp5562.EngineMask
	for _, r := range s {
		index, err := parseEngine(string(r))
		if err != nil {
			return 0, err
		}
		mask |= lp5562.EngineBit(index)
	}
	if mask == 0 {
		return 0, fmt.Errorf("%w: no engines", errUsage)
	}
	return mask, nil
}

func parseRoute(s string) (lp5562.Route, error) {
	if s == "direct" || s == "d" {
		return lp5562.RouteDirect, nil
	}
	index, err := parseEngine(s)
	if err != nil {
		return 0, fmt.Errorf("%w: route %q is not direct or an engine", errUsage, s)
	}
	return lp5562.EngineRoute(index), nil
}

func parseExecMode(s string) (lp5562.ExecMode, error) {
	for m := lp5562.ExecHold; m <= lp5562.ExecExecute; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown execution mode %q", errUsage, s)
}

func engineList(mask lp5562.EngineMask) string {
	var engines []string
	for index := uint8(1); index <= lp5562.NumEngines; index++ {
		if mask.Has(index) {
			engines = append(engines, strconv.Itoa(int(index)))
		}
	}
	if len(engines) == 0 {
		return "none"
	}
	return strings.Join(engines, " ")
}
