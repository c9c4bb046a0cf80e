// Package level turns accelerometer readings into tilt and drives the two
// "spirit level" LEDs.
package level

import (
	"fmt"
	"math"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/adc"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// Tolerances for the two indicator LEDs, in degrees of tilt.
const (
	YellowDegrees = 10
	RedDegrees    = 1
)

// Calibration holds the raw readings of one axis at 0g, +1g and -1g.
type Calibration struct {
	Zero float64 `yaml:"zero"`
	Pos  float64 `yaml:"pos"`
	Neg  float64 `yaml:"neg"`
}

// Default calibrations of the lab accelerometer (12-bit readings).
var (
	DefaultX = Calibration{Zero: 1449, Pos: 1722, Neg: 1171}
	DefaultY = Calibration{Zero: 1437, Pos: 1720, Neg: 1152}
)

// Validate checks that Neg < Zero < Pos.
func (c Calibration) Validate() error {
	if !(c.Neg < c.Zero && c.Zero < c.Pos) {
		return fmt.Errorf("calibration must satisfy neg < zero < pos, got %v/%v/%v", c.Neg, c.Zero, c.Pos)
	}
	return nil
}

// Normalize maps a raw reading to g, so that Zero is 0, Pos is +1 and Neg
// is -1. Each side of Zero is scaled separately.
func Normalize(reading uint16, c Calibration) float64 {
	r := float64(reading)
	if r > c.Zero {
		return (r - c.Zero) / (c.Pos - c.Zero)
	}
	return (r - c.Zero) / (c.Zero - c.Neg)
}

// Tilt returns the angle in degrees between the axis and the horizontal
// for a normalized reading. Readings beyond ±1g are treated as ±90°.
func Tilt(norm float64) float64 {
	norm = math.Max(-1, math.Min(1, norm))
	return math.Abs(math.Asin(norm)) * 180 / math.Pi
}

// IsLevel reports whether norm is within degrees of horizontal.
func IsLevel(norm float64, degrees float64) bool {
	return Tilt(norm) < degrees
}

// Indicator reads both axes and lights the yellow LED when the board is
// within 10° of level on both axes, the red one within 1°.
type Indicator struct {
	gpio      gpio.Driver
	adc       adc.Reader
	xCh, yCh  int
	x, y      Calibration
	redPin    int
	yellowPin int
}

// Config wires an Indicator.
type Config struct {
	XChannel  int
	YChannel  int
	X, Y      Calibration
	RedPin    int
	YellowPin int
}

// NewIndicator sets up both LED pins as outputs, off.
func NewIndicator(g gpio.Driver, r adc.Reader, cfg Config) (*Indicator, error) {
	for _, c := range []Calibration{cfg.X, cfg.Y} {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	for _, pin := range []int{cfg.RedPin, cfg.YellowPin} {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", pin, err)
		}
		if err := g.WritePin(pin, gpio.Low); err != nil {
			return nil, err
		}
	}
	return &Indicator{
		gpio:      g,
		adc:       r,
		xCh:       cfg.XChannel,
		yCh:       cfg.YChannel,
		x:         cfg.X,
		y:         cfg.Y,
		redPin:    cfg.RedPin,
		yellowPin: cfg.YellowPin,
	}, nil
}

// Reading is one sample of both axes.
type Reading struct {
	RawX, RawY   uint16
	NormX, NormY float64
	Yellow, Red  bool
}

// Update samples both axes and sets the LEDs.
func (ind *Indicator) Update() (Reading, error) {
	var rd Reading
	var err error
	if rd.RawX, err = ind.adc.ReadChannel(ind.xCh); err != nil {
		return rd, err
	}
	if rd.RawY, err = ind.adc.ReadChannel(ind.yCh); err != nil {
		return rd, err
	}
	rd.NormX = Normalize(rd.RawX, ind.x)
	rd.NormY = Normalize(rd.RawY, ind.y)
	rd.Yellow = IsLevel(rd.NormX, YellowDegrees) && IsLevel(rd.NormY, YellowDegrees)
	rd.Red = IsLevel(rd.NormX, RedDegrees) && IsLevel(rd.NormY, RedDegrees)

	debug.Trace("Level: x=%d (%.3fg) y=%d (%.3fg)", rd.RawX, rd.NormX, rd.RawY, rd.NormY)

	if err := ind.gpio.WritePin(ind.yellowPin, gpio.Level(rd.Yellow)); err != nil {
		return rd, err
	}
	if err := ind.gpio.WritePin(ind.redPin, gpio.Level(rd.Red)); err != nil {
		return rd, err
	}
	return rd, nil
}

// Off turns both LEDs off.
func (ind *Indicator) Off() error {
	err := ind.gpio.WritePin(ind.yellowPin, gpio.Low)
	if rerr := ind.gpio.WritePin(ind.redPin, gpio.Low); rerr != nil && err == nil {
		err = rerr
	}
	return err
}
