package adc

import (
	"strings"

	"github.com/pkg/errors"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// Chip selects between the pin compatible MCP3008 and MCP3208 converters.
type Chip uint8

const (
	MCP3008 Chip = iota // 10-bit
	MCP3208             // 12-bit
)

const NumChannels = 8

var ErrUnknownChip = errors.New("unknown ADC chip")

// ParseChip maps a config name onto a Chip.
func ParseChip(name string) (Chip, error) {
	switch strings.ToLower(name) {
	case "mcp3008", "":
		return MCP3008, nil
	case "mcp3208":
		return MCP3208, nil
	}
	return 0, errors.Wrapf(ErrUnknownChip, "%q", name)
}

func (c Chip) String() string {
	if c == MCP3208 {
		return "MCP3208"
	}
	return "MCP3008"
}

type txer interface {
	Tx(w, r []byte) error
}

// MCP3x08 reads single-ended channels from an MCP3008/MCP3208 over SPI.
type MCP3x08 struct {
	chip   Chip
	conn   txer
	closer interface{ Close() error }

	w, r [3]byte
}

// NewSPI opens the SPI device and returns a reader for the chip on it.
func NewSPI(deviceFile string, chip Chip) (*MCP3x08, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", deviceFile)
	}

	// Both chips are good for 1MHz at 2.7V; mode 0 is supported by each.
	c, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "connect %s", deviceFile)
	}
	return &MCP3x08{
		chip:   chip,
		conn:   c,
		closer: p,
	}, nil
}

func newMCP3x08(chip Chip, conn txer) *MCP3x08 {
	return &MCP3x08{chip: chip, conn: conn}
}

func (m *MCP3x08) Resolution() Resolution {
	if m.chip == MCP3208 {
		return Bits12
	}
	return Bits10
}

// Read performs one single-ended conversion.
func (m *MCP3x08) Read(channel int) (int, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, errors.Wrapf(ErrInvalidChannel, "%s channel %d", m.chip, channel)
	}
	ch := byte(channel)
	switch m.chip {
	case MCP3208:
		// Start bit and SGL/DIFF in the first byte, D2 is the lowest bit.
		m.w = [3]byte{0x06 | ch>>2, (ch & 0x03) << 6, 0}
	default:
		m.w = [3]byte{0x01, (0x08 | ch) << 4, 0}
	}
	if err := m.conn.Tx(m.w[:], m.r[:]); err != nil {
		return 0, errors.Wrapf(err, "%s channel %d", m.chip, channel)
	}
	if m.chip == MCP3208 {
		return int(m.r[1]&0x0f)<<8 | int(m.r[2]), nil
	}
	return int(m.r[1]&0x03)<<8 | int(m.r[2]), nil
}

func (m *MCP3x08) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
