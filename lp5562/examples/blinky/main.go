//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/tinygo-org/lp5562/lp5562"
	"github.com/tinygo-org/lp5562/lp5562/ledlib"
)

func main() {
	// Sleep to catch prints.
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
	led := ledlib.NewRGBW(dev)

	colors := []uint32{0xff0000, 0x00ff00, 0x0000ff, 0xffa000}
	for i := 0; ; i++ {
		c := ledlib.RGB(colors[i%len(colors)])
		err = led.SetBlink(c, 250*time.Millisecond, 750*time.Millisecond)
		if err != nil {
			println("blink failed:", err.Error())
		} else {
			println("blinking", c.R, c.G, c.B)
		}
		// The engines keep blinking on their own.
		time.Sleep(5 * time.Second)
	}
}
