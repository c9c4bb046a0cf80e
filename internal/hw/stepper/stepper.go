package stepper

import (
	"context"
	"fmt"
	"time"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// WaitMode selects how the stepper waits out each half period.
type WaitMode int

const (
	// WaitSpin busy-waits on the clock. Most accurate, burns a core.
	WaitSpin WaitMode = iota
	// WaitSleep sleeps for whatever is left of the half period.
	WaitSleep
)

// ParseWaitMode converts a config string ("spin", "sleep") to a WaitMode.
func ParseWaitMode(s string) (WaitMode, error) {
	switch s {
	case "", "spin":
		return WaitSpin, nil
	case "sleep":
		return WaitSleep, nil
	default:
		return WaitSpin, fmt.Errorf("unknown wait mode: %q", s)
	}
}

// Config holds the hardware configuration for a stepper driver
// (EasyDriver / A4988 style STEP, DIR, ENABLE inputs).
type Config struct {
	StepPin   int
	DirPin    int
	EnablePin int // 0 = not used. Active LOW (LOW=enabled).
	Wait      WaitMode
	Clock     Clock               // nil = SystemClock
	Sleep     func(time.Duration) // nil = time.Sleep; only used with WaitSleep
}

// Stepper drives the STEP line of a single motor driver with a 50% duty
// square wave.
type Stepper struct {
	gpio  gpio.Driver
	cfg   Config
	clock Clock
	sleep func(time.Duration)
}

// NewStepper configures the pins and leaves the driver disabled.
func NewStepper(g gpio.Driver, cfg Config) (*Stepper, error) {
	for _, pin := range []int{cfg.StepPin, cfg.DirPin} {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", pin, err)
		}
	}

	s := &Stepper{
		gpio:  g,
		cfg:   cfg,
		clock: cfg.Clock,
		sleep: cfg.Sleep,
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}

	if cfg.EnablePin > 0 {
		if err := g.SetupPin(cfg.EnablePin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", cfg.EnablePin, err)
		}
		if err := s.Disable(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetDirection drives the DIR line.
func (s *Stepper) SetDirection(level gpio.Level) error {
	return s.gpio.WritePin(s.cfg.DirPin, level)
}

// Pulse emits steps full periods on the STEP line: high for the first half
// of each period, low for the second. Each period is timed from a clock
// reading taken when the period starts. ctx is checked between steps only.
func (s *Stepper) Pulse(ctx context.Context, steps uint, period time.Duration) error {
	debug.Printf("Stepper: %d steps, period %v on pin %d", steps, period, s.cfg.StepPin)

	half := int64(period / 2)
	full := int64(period)
	for i := uint(0); i < steps; i++ {
		select {
		case <-ctx.Done():
			debug.Live("Stepper: cancelled after %d/%d steps", i, steps)
			return ctx.Err()
		default:
		}

		start := s.clock.Nanotime()
		if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
			return err
		}
		s.waitUntil(start, half)
		if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
			return err
		}
		s.waitUntil(start, full)
	}
	return nil
}

// waitUntil returns once at least target ns have elapsed since start.
func (s *Stepper) waitUntil(start, target int64) {
	for {
		elapsed := s.clock.Nanotime() - start
		if elapsed >= target {
			return
		}
		if s.cfg.Wait == WaitSleep {
			s.sleep(time.Duration(target - elapsed))
		}
	}
}

// Enable turns on the motor driver (ENABLE=LOW). Motors hold position.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (ENABLE=HIGH). Motors freewheel.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}
