package adc

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiSPI is the SPI0 controller of a Raspberry Pi, through go-rpio. GPIO
// memory must already be mapped (rpio.Open, done by the rpio gpio backend).
type RPiSPI struct{}

// OpenRPiSPI claims SPI0 and selects chip-select line cs.
func OpenRPiSPI(cs uint8, speedHz int) (*RPiSPI, error) {
	debug.Info("Initializing SPI0 (go-rpio), CE%d at %d Hz", cs, speedHz)
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return nil, fmt.Errorf("failed to open SPI0: %w", err)
	}
	rpio.SpiSpeed(speedHz)
	rpio.SpiChipSelect(cs)
	return &RPiSPI{}, nil
}

// Tx implements adc.Tx. go-rpio exchanges in place, so w is copied into r
// first.
func (s *RPiSPI) Tx(w, r []byte) error {
	if len(r) != len(w) {
		return fmt.Errorf("spi: read buffer %d bytes, want %d", len(r), len(w))
	}
	copy(r, w)
	rpio.SpiExchange(r)
	return nil
}

func (s *RPiSPI) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return nil
}
