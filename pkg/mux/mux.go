package mux

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

// Addr is the TCA9548A's address with A0-A2 tied low.
const Addr = 0x70

const NumPorts = 8

var ErrInvalidPort = errors.New("invalid mux port")

type Interface interface {
	DisableAllPorts() error
	SelectSinglePort(num int) error
	Close() error
}

type port interface {
	Write(buf []byte) error
	Close() error
}

// Mux drives a TCA9548A I2C switch. Each bit of the control register
// connects one downstream bus.
type Mux struct {
	dev port
}

func New(deviceFile string) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mux on %s", deviceFile)
	}
	return &Mux{dev: dev}, nil
}

func (m *Mux) SelectSinglePort(num int) error {
	if num < 0 || num >= NumPorts {
		return errors.Wrapf(ErrInvalidPort, "%d", num)
	}
	return m.dev.Write([]byte{1 << uint(num)})
}

func (m *Mux) DisableAllPorts() error {
	return m.dev.Write([]byte{0})
}

func (m *Mux) Close() error {
	return m.dev.Close()
}

func Dummy() Interface {
	return &dummyMux{}
}

type dummyMux struct{}

func (d *dummyMux) SelectSinglePort(num int) error {
	fmt.Printf("Dummy Mux setting port=%d\n", num)
	return nil
}

func (d *dummyMux) DisableAllPorts() error {
	fmt.Printf("Dummy Mux disabling all ports\n")
	return nil
}

func (d *dummyMux) Close() error {
	return nil
}
