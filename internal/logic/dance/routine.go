// Package dance plays scripted choreographies of motor moves and light
// levels.
package dance

import (
	"context"
	"fmt"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/light"
	"github.com/CamStan/WOU-CS490/internal/logic/motion"
)

// Mover runs a single motor move to completion. *motion.Controller
// implements it.
type Mover interface {
	ExecuteMove(ctx context.Context, mv motion.Move) error
}

// Kind is what a Step acts on.
type Kind int

const (
	KindMove Kind = iota
	KindLED
	KindLaser
)

// Step is one instruction of a routine: a move, or a light level.
type Step struct {
	Kind  Kind
	Move  motion.Move
	Level int // percent, for KindLED and KindLaser
}

func (s Step) String() string {
	switch s.Kind {
	case KindMove:
		return fmt.Sprintf("%s %s %g° at %g°/s", s.Move.Motor, s.Move.Direction, s.Move.AngleDegrees, s.Move.SpeedDegPerSec)
	case KindLED:
		return fmt.Sprintf("led %d%%", s.Level)
	case KindLaser:
		return fmt.Sprintf("laser %d%%", s.Level)
	default:
		return "unknown step"
	}
}

// Spark and Kysan build move steps, LED and Laser build light steps.
func Spark(dir motion.Direction, speed, angle float64) Step {
	return Step{Kind: KindMove, Move: motion.Move{Motor: motion.Spark, Direction: dir, SpeedDegPerSec: speed, AngleDegrees: angle}}
}

func Kysan(dir motion.Direction, speed, angle float64) Step {
	return Step{Kind: KindMove, Move: motion.Move{Motor: motion.Kysan, Direction: dir, SpeedDegPerSec: speed, AngleDegrees: angle}}
}

func LED(percent int) Step   { return Step{Kind: KindLED, Level: percent} }
func Laser(percent int) Step { return Step{Kind: KindLaser, Level: percent} }

// Routine plays steps on a pair of motors and two lights.
type Routine struct {
	mover Mover
	led   light.Leveler
	laser light.Leveler
}

func NewRoutine(m Mover, led, laser light.Leveler) *Routine {
	return &Routine{mover: m, led: led, laser: laser}
}

// Run plays steps in order. ctx is checked before every step; a move in
// progress stops between two motor steps. Both lights are turned off when
// Run returns, whatever the outcome.
func (r *Routine) Run(ctx context.Context, steps []Step) error {
	debug.Section("Dance routine")
	defer r.lightsOff()

	for i, s := range steps {
		select {
		case <-ctx.Done():
			debug.Live("Dance: stopped before step %d/%d", i+1, len(steps))
			return ctx.Err()
		default:
		}

		debug.Step(i+1, s.String())
		if err := r.apply(ctx, s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s, err)
		}
	}

	debug.Live("Dance: %d steps done", len(steps))
	return nil
}

func (r *Routine) apply(ctx context.Context, s Step) error {
	switch s.Kind {
	case KindMove:
		return r.mover.ExecuteMove(ctx, s.Move)
	case KindLED:
		return r.led.SetLevel(s.Level)
	case KindLaser:
		return r.laser.SetLevel(s.Level)
	default:
		return fmt.Errorf("unknown step kind %d", s.Kind)
	}
}

func (r *Routine) lightsOff() {
	if err := r.led.SetLevel(0); err != nil {
		debug.Error(fmt.Errorf("led off: %w", err))
	}
	if err := r.laser.SetLevel(0); err != nil {
		debug.Error(fmt.Errorf("laser off: %w", err))
	}
}
