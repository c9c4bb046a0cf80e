package gpio

import (
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
	InputPullUp // input with the internal pull-up enabled (active-low buttons)
)

// Backend names accepted by NewDriver.
const (
	BackendMock   = "mock"
	BackendRPi    = "rpio"
	BackendPeriph = "periph"
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real board implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// PWM is implemented by drivers that can generate a PWM signal on a pin.
// Duty cycle is a fraction in [0, 1].
type PWM interface {
	SetupPWM(pin int, freqHz int) error
	SetDutyCycle(pin int, fraction float64) error
	EnablePWM(pin int, on bool) error
}

// Board is a driver that provides both digital IO and PWM.
type Board interface {
	Driver
	PWM
}

// MockDriver is a test implementation that simply logs actions.
// Inputs read back as High (idle for active-low wiring).
type MockDriver struct{}

// NewDriver creates a GPIO driver for the named backend.
func NewDriver(backend string) (Board, error) {
	switch backend {
	case BackendMock, "":
		debug.Info("Using MOCK GPIO driver (development mode)")
		return &MockDriver{}, nil
	case BackendRPi:
		return NewRPiDriver()
	case BackendPeriph:
		return NewPeriphDriver()
	default:
		return nil, fmt.Errorf("unknown gpio backend: %q", backend)
	}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)
	return High, nil
}

func (m *MockDriver) SetupPWM(pin int, freqHz int) error {
	debug.GPIO("SetupPWM", pin, freqHz)
	return nil
}

func (m *MockDriver) SetDutyCycle(pin int, fraction float64) error {
	debug.GPIO("SetDutyCycle", pin, fraction)
	return nil
}

func (m *MockDriver) EnablePWM(pin int, on bool) error {
	debug.GPIO("EnablePWM", pin, on)
	return nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}

// checkFraction validates a PWM duty cycle fraction.
func checkFraction(fraction float64) error {
	if !(fraction >= 0 && fraction <= 1) {
		return fmt.Errorf("duty cycle must be between 0 and 1, got %g", fraction)
	}
	return nil
}
