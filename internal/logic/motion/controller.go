package motion

import (
	"context"
	"fmt"
	"time"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// Motor identifies one of the two scanner motors.
type Motor int

const (
	Spark Motor = iota // SparkFun 0.9° motor, 1/16 microstepping
	Kysan              // Kysan 1.8° motor, 1/16 microstepping
)

// Degrees turned by one (micro)step.
const (
	SparkResolution = 0.0625
	KysanResolution = 0.1125
)

func (m Motor) String() string {
	switch m {
	case Spark:
		return "spark"
	case Kysan:
		return "kysan"
	default:
		return fmt.Sprintf("motor(%d)", int(m))
	}
}

// Resolution returns the degrees per step of m.
func (m Motor) Resolution() float64 {
	if m == Kysan {
		return KysanResolution
	}
	return SparkResolution
}

// ComputePeriod returns the step period for m at speed degrees per second.
func ComputePeriod(m Motor, speed float64) (time.Duration, error) {
	return StepPeriod(m.Resolution(), speed)
}

// Move is a single rotation command.
type Move struct {
	Motor          Motor
	Direction      Direction
	SpeedDegPerSec float64
	AngleDegrees   float64
}

// Driver is the hardware side of one motor: enable, direction and step lines.
// *stepper.Stepper implements it.
type Driver interface {
	Enable() error
	Disable() error
	SetDirection(level gpio.Level) error
	Pulse(ctx context.Context, steps uint, period time.Duration) error
}

type axis struct {
	driver Driver
	offset *Offset
}

// Controller runs moves on the Spark and Kysan motors. Each motor keeps its
// own rounding residual for the lifetime of the controller. Moves block the
// caller; a Controller is not meant to be shared between goroutines.
type Controller struct {
	axes map[Motor]*axis
}

func NewController(spark, kysan Driver) *Controller {
	return &Controller{
		axes: map[Motor]*axis{
			Spark: {driver: spark, offset: NewOffset(SparkResolution)},
			Kysan: {driver: kysan, offset: NewOffset(KysanResolution)},
		},
	}
}

func (c *Controller) axis(m Motor) (*axis, error) {
	a, ok := c.axes[m]
	if !ok {
		return nil, fmt.Errorf("%w: unknown motor %v", ErrInvalidArgument, m)
	}
	return a, nil
}

// ComputeSteps returns the step count for turning m by angle in dir and
// updates that motor's residual.
func (c *Controller) ComputeSteps(m Motor, dir Direction, angle float64) (uint, error) {
	a, err := c.axis(m)
	if err != nil {
		return 0, err
	}
	return a.offset.ComputeSteps(dir, angle)
}

// Residual returns the carried rounding error of m in degrees.
func (c *Controller) Residual(m Motor) float64 {
	if a, ok := c.axes[m]; ok {
		return a.offset.Residual()
	}
	return 0
}

// ExecuteMove enables the motor, sets its direction, emits the step pulses
// and disables the motor again, whatever the outcome. Cancelling ctx stops
// the move between two steps.
func (c *Controller) ExecuteMove(ctx context.Context, mv Move) error {
	a, err := c.axis(mv.Motor)
	if err != nil {
		return err
	}
	// Validate the speed before the residual is touched.
	period, err := ComputePeriod(mv.Motor, mv.SpeedDegPerSec)
	if err != nil {
		return err
	}
	steps, err := a.offset.ComputeSteps(mv.Direction, mv.AngleDegrees)
	if err != nil {
		return err
	}

	debug.Move(mv.Motor.String(), steps, mv.Direction.String())
	debug.Verbose("Motor %s: %.2f° at %.1f°/s, period %v, residual %.4f°",
		mv.Motor, mv.AngleDegrees, mv.SpeedDegPerSec, period, a.offset.Residual())

	if err := a.driver.Enable(); err != nil {
		return fmt.Errorf("enable %v: %w", mv.Motor, err)
	}
	defer func() {
		if err := a.driver.Disable(); err != nil {
			debug.Error(fmt.Errorf("disable %v: %w", mv.Motor, err))
		}
	}()

	if err := a.driver.SetDirection(gpio.Level(mv.Direction == CounterClockwise)); err != nil {
		return fmt.Errorf("set direction %v: %w", mv.Motor, err)
	}
	return a.driver.Pulse(ctx, steps, period)
}

// Rotate is a shorthand for ExecuteMove.
func (c *Controller) Rotate(ctx context.Context, m Motor, dir Direction, speed, angle float64) error {
	return c.ExecuteMove(ctx, Move{
		Motor:          m,
		Direction:      dir,
		SpeedDegPerSec: speed,
		AngleDegrees:   angle,
	})
}
