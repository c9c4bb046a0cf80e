package gpio

import (
	"fmt"
	"strconv"

	"github.com/CamStan/WOU-CS490/internal/debug"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphDriver drives GPIOs through periph.io. It works on any board periph
// has a host driver for (Raspberry Pi, BeagleBone, Allwinner, generic sysfs).
// Pins are looked up by their number ("17" -> GPIO17).
type PeriphDriver struct {
	pins map[int]pgpio.PinIO
	pwm  map[int]*periphPWM
}

type periphPWM struct {
	freq physic.Frequency
	duty pgpio.Duty
	on   bool
}

// NewPeriphDriver initializes periph host drivers.
func NewPeriphDriver() (*PeriphDriver, error) {
	debug.Info("Initializing real GPIO driver (periph.io)")

	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}
	for _, d := range state.Loaded {
		debug.Verbose("periph driver loaded: %s", d)
	}

	return &PeriphDriver{
		pins: make(map[int]pgpio.PinIO),
		pwm:  make(map[int]*periphPWM),
	}, nil
}

func (d *PeriphDriver) lookup(pin int) (pgpio.PinIO, error) {
	if p, ok := d.pins[pin]; ok {
		return p, nil
	}
	p := gpioreg.ByName(strconv.Itoa(pin))
	if p == nil {
		return nil, fmt.Errorf("gpio %d not found", pin)
	}
	d.pins[pin] = p
	return p, nil
}

func (d *PeriphDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p, err := d.lookup(pin)
	if err != nil {
		return err
	}

	switch mode {
	case Input:
		return p.In(pgpio.Float, pgpio.NoEdge)
	case InputPullUp:
		return p.In(pgpio.PullUp, pgpio.NoEdge)
	case Output:
		return p.Out(pgpio.Low)
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
}

func (d *PeriphDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)

	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	return p.Out(pgpio.Level(level))
}

func (d *PeriphDriver) ReadPin(pin int) (Level, error) {
	p, err := d.lookup(pin)
	if err != nil {
		return Low, err
	}
	return Level(p.Read()), nil
}

func (d *PeriphDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	if freqHz <= 0 {
		return fmt.Errorf("pwm frequency must be > 0, got %d", freqHz)
	}
	if _, err := d.lookup(pin); err != nil {
		return err
	}
	d.pwm[pin] = &periphPWM{freq: physic.Frequency(freqHz) * physic.Hertz}
	return nil
}

func (d *PeriphDriver) SetDutyCycle(pin int, fraction float64) error {
	debug.GPIO("SetDutyCycle", pin, fraction)
	if err := checkFraction(fraction); err != nil {
		return err
	}
	st, ok := d.pwm[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	st.duty = pgpio.Duty(fraction * float64(pgpio.DutyMax))
	if !st.on {
		return nil
	}
	return d.pins[pin].PWM(st.duty, st.freq)
}

func (d *PeriphDriver) EnablePWM(pin int, on bool) error {
	debug.GPIO("EnablePWM", pin, on)
	st, ok := d.pwm[pin]
	if !ok {
		return fmt.Errorf("pin %d is not configured for PWM", pin)
	}
	st.on = on
	p := d.pins[pin]
	if on {
		return p.PWM(st.duty, st.freq)
	}
	if err := p.Halt(); err != nil {
		return err
	}
	return p.Out(pgpio.Low)
}

func (d *PeriphDriver) Close() error {
	debug.Trace("GPIO Close (periph driver)")

	var firstErr error
	for pin, p := range d.pins {
		debug.Verbose("Halting pin %d", pin)
		if err := p.Halt(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
