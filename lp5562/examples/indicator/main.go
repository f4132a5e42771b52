//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/tinygo-org/lp5562/lp5562"
	"github.com/tinygo-org/lp5562/lp5562/ledlib"
)

func main() {
	time.Sleep(2 * time.Second)
	bus := machine.I2C0
	err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	if err != nil {
		panic(err.Error())
	}
	dev := lp5562.New(bus, lp5562.DefaultAddress)
	if err := dev.Configure(lp5562.Config{}); err != nil {
		panic(err.Error())
	}
	ind, err := ledlib.NewRGBW(dev).SetIndicatorMode(ledlib.IndicatorConfig{})
	if err != nil {
		panic(err.Error())
	}

	// Each channel is an independent status light. Cycle them through the
	// modes; switching only rewrites the routing so the engines stay in phase.
	channels := []lp5562.Channel{lp5562.ChannelRed, lp5562.ChannelGreen, lp5562.ChannelBlue, lp5562.ChannelWhite}
	for step := 0; ; step++ {
		for i, ch := range channels {
			mode := ledlib.IndicatorMode((step + i) % 4)
			var err error
			if mode == ledlib.IndicatorDirect {
				err = ind.SetLevel(ch, 40)
			} else {
				err = ind.Set(ch, mode)
			}
			if err != nil {
				println(ch.String(), "failed:", err.Error())
			}
		}
		println("step", step)
		time.Sleep(3 * time.Second)
	}
}
