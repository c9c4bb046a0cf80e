package light

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// Laser is a laser module with a separate power line (active HIGH) and a
// PWM modulation input that sets the beam power.
type Laser struct {
	*Light
	gpio     gpio.Driver
	powerPin int
}

// NewLaser powers the module up with zero modulation.
func NewLaser(b gpio.Board, powerPin, pwmPin, freqHz int) (*Laser, error) {
	l, err := New("laser", b, pwmPin, freqHz)
	if err != nil {
		return nil, err
	}
	if err := b.SetupPin(powerPin, gpio.Output); err != nil {
		return nil, fmt.Errorf("laser: setup power pin %d: %w", powerPin, err)
	}
	debug.Verbose("Laser: power ON (pin %d -> HIGH)", powerPin)
	if err := b.WritePin(powerPin, gpio.High); err != nil {
		return nil, fmt.Errorf("laser: power on: %w", err)
	}
	return &Laser{Light: l, gpio: b, powerPin: powerPin}, nil
}

// Close turns the beam off and cuts power to the module.
func (l *Laser) Close() error {
	err := l.Light.Close()
	debug.Verbose("Laser: power OFF (pin %d -> LOW)", l.powerPin)
	if perr := l.gpio.WritePin(l.powerPin, gpio.Low); perr != nil && err == nil {
		err = perr
	}
	return err
}
