package ina219

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004

	// The distance calibrations assume the ADC reference is this rail.
	NominalRailVolts = 5.0
	RailTolerance    = 0.05
)

type Interface interface {
	Configure(shuntOhms float64, maxCurrent float64) error
	ReadBusVoltage() (float64, error)
	ReadCurrent() (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
	Close() error
}

// INA219 monitors the supply rail shared by the distance sensors and the
// ADC.
type INA219 struct {
	currentLSB float64
	dev        port
}

func NewI2C(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open INA219 at 0x%x", addr)
	}
	return &INA219{dev: dev}, nil
}

func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalculateCalibrationValue(m.currentLSB, shuntOhms)
	fmt.Printf("INA219 calibration value: 0x%x\n", cval)
	return m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
}

func (m *INA219) ReadBusVoltage() (float64, error) {
	raw, err := m.read16(RegBusV)
	return float64(raw>>3) * BusVoltageLSB, err
}

func (m *INA219) ReadCurrent() (float64, error) {
	raw, err := m.read16(RegCurrent)
	return float64(int16(raw)) * m.currentLSB, err
}

func (m *INA219) read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func (m *INA219) Close() error {
	return m.dev.Close()
}

func CalculateCalibrationValue(currentLSB float64, shuntOhms float64) int16 {
	return int16(0.04096 / (currentLSB * shuntOhms))
}

// RailOK reports whether volts is close enough to the nominal rail for the
// distance curves to hold.
func RailOK(volts float64) bool {
	return math.Abs(volts-NominalRailVolts) <= NominalRailVolts*RailTolerance
}

func Dummy() Interface {
	return &dummyINA219{}
}

type dummyINA219 struct{}

func (d *dummyINA219) Configure(shuntOhms float64, maxCurrent float64) error {
	fmt.Printf("Dummy INA219 configured shunt=%v max=%v\n", shuntOhms, maxCurrent)
	return nil
}

func (d *dummyINA219) ReadBusVoltage() (float64, error) {
	return NominalRailVolts, nil
}

func (d *dummyINA219) ReadCurrent() (float64, error) {
	return 0, nil
}

func (d *dummyINA219) Close() error {
	return nil
}
