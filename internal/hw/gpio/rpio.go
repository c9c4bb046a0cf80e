package gpio

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// pwmCycleLen is the number of PWM clock ticks in one PWM period.
const pwmCycleLen = 32

// RPiDriver drives the Raspberry Pi GPIO block through go-rpio. The same
// memory mapping serves the SPI0 controller used by the ADC.
type RPiDriver struct {
	pins    map[int]rpio.Pin
	pullUps map[int]bool
	pwmFreq map[int]uint32 // PWM clock frequency of each PWM pin
}

// NewRPiDriver maps the GPIO registers. Needs /dev/gpiomem or root.
func NewRPiDriver() (*RPiDriver, error) {
	debug.Info("Initializing Raspberry Pi GPIO (go-rpio)")
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("map GPIO memory: %w (not a Raspberry Pi?)", err)
	}
	return &RPiDriver{
		pins:    make(map[int]rpio.Pin),
		pullUps: make(map[int]bool),
		pwmFreq: make(map[int]uint32),
	}, nil
}

func (r *RPiDriver) pin(n int) rpio.Pin {
	p, ok := r.pins[n]
	if !ok {
		p = rpio.Pin(n)
		r.pins[n] = p
	}
	return p
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	p := r.pin(pin)
	switch mode {
	case Input:
		p.Input()
	case InputPullUp:
		// Buttons and joystick switch to ground.
		p.Input()
		p.PullUp()
		r.pullUps[pin] = true
	case Output:
		p.Output()
	default:
		return fmt.Errorf("pin %d: unknown mode %v", pin, mode)
	}
	return nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	p, ok := r.pins[pin]
	if !ok {
		return fmt.Errorf("write to unconfigured pin %d", pin)
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	p, ok := r.pins[pin]
	if !ok {
		return Low, fmt.Errorf("read from unconfigured pin %d", pin)
	}
	return p.Read() == rpio.High, nil
}

// SetupPWM reserves pin for its hardware PWM function. Only PWM-capable
// pins (12, 13, 18, 19 on most boards) produce a signal.
func (r *RPiDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be > 0, got %d", freqHz)
	}
	r.pin(pin)
	r.pwmFreq[pin] = uint32(freqHz) * pwmCycleLen
	return nil
}

func (r *RPiDriver) SetDutyCycle(pin int, fraction float64) error {
	debug.GPIO("SetDutyCycle", pin, fraction)
	if err := checkFraction(fraction); err != nil {
		return err
	}
	if _, ok := r.pwmFreq[pin]; !ok {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	r.pins[pin].DutyCycle(uint32(fraction*pwmCycleLen+0.5), pwmCycleLen)
	return nil
}

func (r *RPiDriver) EnablePWM(pin int, on bool) error {
	debug.GPIO("EnablePWM", pin, on)
	freq, ok := r.pwmFreq[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	p := r.pins[pin]
	if on {
		p.Mode(rpio.Pwm)
		p.Freq(int(freq))
		return nil
	}
	// Plain output held low.
	p.Output()
	p.Low()
	return nil
}

// Close releases pull-ups, returns every touched pin to input and unmaps
// the registers.
func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (go-rpio), %d pins", len(r.pins))
	for n, p := range r.pins {
		if r.pullUps[n] {
			p.PullOff()
		}
		p.Input()
	}
	return rpio.Close()
}
