// Package adc reads analog inputs through an MCP3x08 SPI converter.
package adc

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
)

// Reader returns raw conversions from an analog channel.
type Reader interface {
	ReadChannel(ch int) (uint16, error)
}

// Tx is a full-duplex SPI exchange: w is clocked out while r is filled.
type Tx interface {
	Tx(w, r []byte) error
}

// Chip describes the command framing of one converter family.
type Chip struct {
	Name     string
	Bits     int
	Channels int
	request  func(ch int) []byte
	decode   func(rx []byte) uint16
}

// MCP3008 is the 10-bit, 8-channel converter.
var MCP3008 = Chip{
	Name:     "mcp3008",
	Bits:     10,
	Channels: 8,
	request: func(ch int) []byte {
		// start bit, then single-ended + channel in the high nibble
		return []byte{0x01, byte(0x80 | ch<<4), 0x00}
	},
	decode: func(rx []byte) uint16 {
		return uint16(rx[1]&0x03)<<8 | uint16(rx[2])
	},
}

// MCP3208 is the 12-bit, 8-channel converter. Its readings match the
// 12-bit scale of the accelerometer calibration.
var MCP3208 = Chip{
	Name:     "mcp3208",
	Bits:     12,
	Channels: 8,
	request: func(ch int) []byte {
		return []byte{0x06 | byte(ch>>2), byte(ch&0x03) << 6, 0x00}
	},
	decode: func(rx []byte) uint16 {
		return uint16(rx[1]&0x0F)<<8 | uint16(rx[2])
	},
}

// ChipByName returns the converter named in the config.
func ChipByName(name string) (Chip, error) {
	switch name {
	case MCP3008.Name:
		return MCP3008, nil
	case MCP3208.Name, "":
		return MCP3208, nil
	default:
		return Chip{}, fmt.Errorf("unknown adc chip: %q", name)
	}
}

// Max returns the largest value a conversion can produce.
func (c Chip) Max() uint16 {
	return 1<<c.Bits - 1
}

// Converter is a Reader backed by an MCP3x08 on an SPI bus.
type Converter struct {
	chip Chip
	tx   Tx
}

func NewConverter(chip Chip, tx Tx) *Converter {
	return &Converter{chip: chip, tx: tx}
}

// ReadChannel performs one single-ended conversion on ch.
func (c *Converter) ReadChannel(ch int) (uint16, error) {
	if ch < 0 || ch >= c.chip.Channels {
		return 0, fmt.Errorf("%s: channel %d out of range", c.chip.Name, ch)
	}
	w := c.chip.request(ch)
	r := make([]byte, len(w))
	if err := c.tx.Tx(w, r); err != nil {
		return 0, fmt.Errorf("%s: read channel %d: %w", c.chip.Name, ch, err)
	}
	v := c.chip.decode(r)
	debug.Trace("ADC %s ch%d = %d", c.chip.Name, ch, v)
	return v, nil
}

// MockReader returns fixed values per channel, for development without an
// SPI bus. Unknown channels read as zero.
type MockReader struct {
	Values map[int]uint16
}

func (m *MockReader) ReadChannel(ch int) (uint16, error) {
	return m.Values[ch], nil
}
