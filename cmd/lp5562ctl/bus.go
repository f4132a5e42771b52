package main

import (
	"encoding/hex"
	"log/slog"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

const busSpeed = 400 * physic.KiloHertz

// openBus opens the named I2C bus. An empty name opens the first bus found.
// Replaced in tests.
var openBus = openPeriphBus

func openPeriphBus(name string) (drivers.I2C, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, err
	}
	if err := b.SetSpeed(busSpeed); err != nil {
		b.Close()
		return nil, nil, err
	}
	return b, b.Close, nil
}

// traceBus logs every transaction at debug level.
type traceBus struct {
	bus drivers.I2C
	log *slog.Logger
}

func (t traceBus) Tx(addr uint16, w, r []byte) error {
	err := t.bus.Tx(addr, w, r)
	attrs := []any{
		slog.Int("addr", int(addr)),
		slog.String("w", hex.EncodeToString(w)),
	}
	if len(r) > 0 {
		attrs = append(attrs, slog.String("r", hex.EncodeToString(r)))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	t.log.Debug("i2c tx", attrs...)
	return err
}
