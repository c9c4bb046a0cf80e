package motion

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidArgument is returned for speeds or angles that cannot produce
// a finite, non-negative move.
var ErrInvalidArgument = errors.New("invalid argument")

// Direction of rotation. Values match the level written to the DIR line.
type Direction int

const (
	Clockwise        Direction = 0
	CounterClockwise Direction = 1
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Offset converts requested angles into whole step counts for one motor and
// carries the rounding error of each move into the next one.
//
// The residual is the signed difference, in degrees, between what the last
// move actually turned and what it was asked to turn. Reversing direction
// reverses the sense of that error, so its sign flips.
type Offset struct {
	resolution float64 // degrees per step
	residual   float64
	prevDir    Direction
}

// NewOffset returns a tracker with no residual, last direction clockwise.
func NewOffset(resolution float64) *Offset {
	return &Offset{resolution: resolution, prevDir: Clockwise}
}

// ComputeSteps returns the number of steps to turn angle degrees in dir,
// compensating for the residual left by previous moves.
func (o *Offset) ComputeSteps(dir Direction, angle float64) (uint, error) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) || angle <= 0 {
		return 0, fmt.Errorf("%w: angle must be > 0, got %g", ErrInvalidArgument, angle)
	}

	if dir != o.prevDir {
		o.residual = -o.residual
	}
	o.prevDir = dir

	raw := (angle - o.residual) / o.resolution
	steps := math.Round(raw)
	if steps < 0 {
		// Residual larger than the request: stand still and keep the error.
		steps = 0
	}
	o.residual = (steps - raw) * o.resolution
	return uint(steps), nil
}

// Residual returns the carried rounding error in degrees.
func (o *Offset) Residual() float64 {
	return o.residual
}

// Direction returns the direction of the last computed move.
func (o *Offset) Direction() Direction {
	return o.prevDir
}

// Resolution returns the degrees turned by one step.
func (o *Offset) Resolution() float64 {
	return o.resolution
}

// StepPeriod returns the duration of one full step at speed degrees per
// second, rounded to the nearest nanosecond.
func StepPeriod(resolution, speed float64) (time.Duration, error) {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return 0, fmt.Errorf("%w: speed must be > 0, got %g", ErrInvalidArgument, speed)
	}
	ns := math.Round(1e9 / speed * resolution)
	if ns > math.MaxInt64 {
		return 0, fmt.Errorf("%w: speed %g too slow", ErrInvalidArgument, speed)
	}
	return time.Duration(ns), nil
}
