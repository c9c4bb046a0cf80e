// Package blink cycles a red and a yellow LED through a fixed pattern.
package blink

import (
	"context"
	"fmt"
	"time"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// Phase is the state of both LEDs for one interval.
type Phase struct {
	Red, Yellow gpio.Level
}

// Pattern: both off, red, yellow, both on.
var Pattern = []Phase{
	{gpio.Low, gpio.Low},
	{gpio.High, gpio.Low},
	{gpio.Low, gpio.High},
	{gpio.High, gpio.High},
}

// Blinker drives the pattern on two output pins.
type Blinker struct {
	gpio      gpio.Driver
	redPin    int
	yellowPin int
	phase     time.Duration
	after     func(time.Duration) <-chan time.Time
}

// New sets up the pins as outputs. phase is how long each step lasts.
func New(g gpio.Driver, redPin, yellowPin int, phase time.Duration) (*Blinker, error) {
	if phase <= 0 {
		return nil, fmt.Errorf("blink phase must be > 0, got %v", phase)
	}
	for _, pin := range []int{redPin, yellowPin} {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", pin, err)
		}
	}
	return &Blinker{
		gpio:      g,
		redPin:    redPin,
		yellowPin: yellowPin,
		phase:     phase,
		after:     time.After,
	}, nil
}

func (b *Blinker) set(p Phase) error {
	if err := b.gpio.WritePin(b.redPin, p.Red); err != nil {
		return err
	}
	return b.gpio.WritePin(b.yellowPin, p.Yellow)
}

// Run repeats the pattern until ctx is done. Both LEDs are off on return.
func (b *Blinker) Run(ctx context.Context) error {
	debug.Info("Blink: red=%d yellow=%d, %v per phase", b.redPin, b.yellowPin, b.phase)
	defer func() {
		if err := b.set(Phase{gpio.Low, gpio.Low}); err != nil {
			debug.Error(err)
		}
	}()

	for i := 0; ; i = (i + 1) % len(Pattern) {
		p := Pattern[i]
		debug.Trace("Blink: phase %d red=%v yellow=%v", i, p.Red, p.Yellow)
		if err := b.set(p); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-b.after(b.phase):
		}
	}
}
