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
	dev := lp5562.New(bus, 0)
	cfg := lp5562.DefaultConfig()
	cfg.WhiteCurrent = lp5562.CurrentFromMilliamps(10)
	if err := dev.Configure(cfg); err != nil {
		panic(err.Error())
	}
	led := ledlib.NewRGBW(dev)

	// Slow full range breathe on white, then a faster shallow one on blue.
	for {
		if err := led.SetBreathe(ledlib.ChannelsWhite, 20, 0, 255); err != nil {
			println("breathe:", err.Error())
		}
		time.Sleep(10 * time.Second)
		if err := led.SetBreathe(ledlib.ChannelsBlue, 4, 30, 120); err != nil {
			println("breathe:", err.Error())
		}
		time.Sleep(10 * time.Second)
	}
}
