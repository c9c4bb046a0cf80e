package light

import (
	"errors"
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// ErrInvalidLevel is returned for brightness levels outside 0..100.
var ErrInvalidLevel = errors.New("brightness must be between 0 and 100")

// Leveler is the high-level interface used by the rest of the application.
// It represents anything with a brightness, regardless of how it's driven.
type Leveler interface {
	// SetLevel sets the brightness in percent. 0 turns the output off.
	SetLevel(percent int) error
}

// Light is a PWM-dimmed output (an LED or the laser's Vmod input).
type Light struct {
	name  string
	pwm   gpio.PWM
	pin   int
	level int
}

// New configures pin as a PWM output at freqHz and leaves it off.
func New(name string, p gpio.PWM, pin, freqHz int) (*Light, error) {
	if err := p.SetupPWM(pin, freqHz); err != nil {
		return nil, fmt.Errorf("light %s: setup pwm pin %d: %w", name, pin, err)
	}
	l := &Light{name: name, pwm: p, pin: pin}
	if err := l.off(); err != nil {
		return nil, fmt.Errorf("light %s: %w", name, err)
	}
	return l, nil
}

// SetLevel sets the duty cycle to percent/100. At 0 the PWM channel is
// disabled after the duty cycle is cleared.
func (l *Light) SetLevel(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, percent)
	}
	debug.Light(l.name, percent)

	if percent == 0 {
		if err := l.off(); err != nil {
			return err
		}
		l.level = 0
		return nil
	}
	if err := l.pwm.EnablePWM(l.pin, true); err != nil {
		return err
	}
	if err := l.pwm.SetDutyCycle(l.pin, float64(percent)/100); err != nil {
		return err
	}
	l.level = percent
	return nil
}

func (l *Light) off() error {
	if err := l.pwm.SetDutyCycle(l.pin, 0); err != nil {
		return err
	}
	return l.pwm.EnablePWM(l.pin, false)
}

// Level returns the last brightness set.
func (l *Light) Level() int {
	return l.level
}

// Close turns the light off.
func (l *Light) Close() error {
	return l.SetLevel(0)
}
