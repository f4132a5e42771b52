//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/tinygo-org/lp5562/lp5562"
	"github.com/tinygo-org/lp5562/lp5562/lpasm"
)

// Test program from the LP5562 datasheet: ramp up, wait, ramp down, wait.
var ramp = lpasm.MustAssemble(`
	ramp 3 +127
	wait prescale 13
	ramp 3 -127
	wait prescale 32
`)

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
	print(ramp.String())

	e := dev.Engine(1)
	if err := e.SetProgram(&ramp, false); err != nil {
		panic(err.Error())
	}
	m := lp5562.LEDMap{
		lp5562.ChannelRed:   e.Route(),
		lp5562.ChannelGreen: e.Route(),
		lp5562.ChannelBlue:  e.Route(),
	}
	if err := dev.SetLEDMap(m); err != nil {
		panic(err.Error())
	}
	if err := e.SetExecMode(lp5562.ExecRun); err != nil {
		panic(err.Error())
	}
	for {
		time.Sleep(time.Second)
		pc, err := e.PC()
		if err != nil {
			println("pc:", err.Error())
			continue
		}
		println("engine 1 at step", pc)
	}
}
