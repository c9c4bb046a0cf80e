package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CamStan/WOU-CS490/internal/config"
	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/adc"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
	"github.com/CamStan/WOU-CS490/internal/hw/light"
	"github.com/CamStan/WOU-CS490/internal/hw/stepper"
	"github.com/CamStan/WOU-CS490/internal/logic/blink"
	"github.com/CamStan/WOU-CS490/internal/logic/dance"
	"github.com/CamStan/WOU-CS490/internal/logic/input"
	"github.com/CamStan/WOU-CS490/internal/logic/level"
	"github.com/CamStan/WOU-CS490/internal/logic/motion"
)

// Programs selectable with -mode.
const (
	modeButtons = "buttons"
	modeDance   = "dance"
	modeMove    = "move"
	modeLevel   = "level"
	modeBlink   = "blink"
)

type options struct {
	mode  string
	motor motorFlag
	dir   directionFlag
	speed float64
	angle float64
	out   io.Writer
}

func main() {
	opts := options{out: os.Stdout}
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	flag.StringVar(&opts.mode, "mode", modeButtons, "program to run: buttons, dance, move, level, blink")
	flag.Var(&opts.motor, "motor", "move: motor to turn (spark, kysan)")
	flag.Var(&opts.dir, "dir", "move: direction (cw, ccw)")
	flag.Float64Var(&opts.speed, "speed", 90, "move: speed in degrees per second")
	flag.Float64Var(&opts.angle, "angle", 90, "move: angle in degrees")
	flag.Parse()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if opts.mode == modeMove {
		if err := validateMove(opts.speed, opts.angle); err != nil {
			log.Fatalf("invalid move: %v", err)
		}
	}

	debug.Init(cfg.DebugLevel)
	debug.Summary("Lab control")
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.DebugLevel)
	debug.Value("Mode", opts.mode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatalf("%s failed: %v", opts.mode, err)
	}
}

// run acquires the hardware for one program, runs it until it finishes or
// ctx is cancelled, and releases everything it acquired.
func run(ctx context.Context, cfg *config.Config, opts options) error {
	switch opts.mode {
	case modeButtons, modeDance, modeMove, modeLevel, modeBlink:
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}

	debug.Value("Backend", cfg.Backend)
	debug.Step(1, "Initializing GPIO driver")
	board, err := gpio.NewDriver(cfg.Backend)
	if err != nil {
		return fmt.Errorf("init GPIO: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	switch opts.mode {
	case modeButtons:
		err = runButtons(ctx, cfg, board, opts.out)
	case modeDance:
		err = runDance(ctx, cfg, board)
	case modeMove:
		err = runMove(ctx, cfg, board, opts)
	case modeLevel:
		err = runLevel(ctx, cfg, board)
	case modeBlink:
		err = runBlink(ctx, cfg, board)
	}
	if errors.Is(err, context.Canceled) {
		debug.Info("Interrupted")
		return nil
	}
	return err
}

func runButtons(ctx context.Context, cfg *config.Config, board gpio.Board, out io.Writer) error {
	mode, err := input.ParseMode(cfg.Buttons.Mode)
	if err != nil {
		return err
	}
	inputs := make([]input.Input, 0, len(cfg.Buttons.Inputs))
	pins := make([]int, 0, len(cfg.Buttons.Inputs))
	for _, in := range cfg.Buttons.Inputs {
		inputs = append(inputs, input.Input{Name: in.Name, Pin: in.Pin, Repeat: in.Repeat})
		pins = append(pins, in.Pin)
	}

	pcfg := input.Config{
		Mode:        mode,
		Interval:    cfg.ButtonInterval(),
		RepeatPause: cfg.RepeatPause(),
	}
	if mode == input.ModeEdge {
		debug.Step(2, "Watching input edges")
		var edges gpio.EdgeSource
		if cfg.Backend == config.BackendMock {
			edges = gpio.NewFakeEdges(len(pins))
		} else {
			edges = gpio.NewWatcherEdges(pins...)
		}
		defer edges.Close()
		pcfg.Edges = edges
	}

	poller, err := input.NewPoller(board, inputs, pcfg)
	if err != nil {
		return err
	}

	events := make(chan input.Event)
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx, events) }()

	debug.Live("Waiting for input, Ctrl-C to quit")
	for {
		select {
		case ev := <-events:
			fmt.Fprintln(out, ev)
		case err := <-done:
			return err
		}
	}
}

func newController(cfg *config.Config, board gpio.Driver) (*motion.Controller, error) {
	debug.Step(2, "Initializing stepper motors")
	newMotor := func(name string, m config.MotorConfig) (*stepper.Stepper, error) {
		wait, err := stepper.ParseWaitMode(m.Wait)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		debug.PrintStruct(name+" stepper config", m)
		s, err := stepper.NewStepper(board, stepper.Config{
			StepPin:   m.StepPin,
			DirPin:    m.DirPin,
			EnablePin: m.EnablePin,
			Wait:      wait,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return s, nil
	}

	spark, err := newMotor("Spark", cfg.Motors.Spark)
	if err != nil {
		return nil, err
	}
	kysan, err := newMotor("Kysan", cfg.Motors.Kysan)
	if err != nil {
		return nil, err
	}
	return motion.NewController(spark, kysan), nil
}

func runMove(ctx context.Context, cfg *config.Config, board gpio.Board, opts options) error {
	ctrl, err := newController(cfg, board)
	if err != nil {
		return err
	}
	debug.Section("Move")
	if err := ctrl.Rotate(ctx, opts.motor.motor, opts.dir.dir, opts.speed, opts.angle); err != nil {
		return err
	}
	debug.Value("Residual", fmt.Sprintf("%.4f°", ctrl.Residual(opts.motor.motor)))
	return nil
}

func runDance(ctx context.Context, cfg *config.Config, board gpio.Board) error {
	ctrl, err := newController(cfg, board)
	if err != nil {
		return err
	}

	debug.Step(3, "Initializing lights")
	led, err := light.New("led", board, cfg.Lights.LED.PWMPin, cfg.Lights.LED.FrequencyHz)
	if err != nil {
		return err
	}
	defer closeLight(led)
	laser, err := light.NewLaser(board, cfg.Lights.Laser.PowerPin, cfg.Lights.Laser.PWMPin, cfg.Lights.Laser.FrequencyHz)
	if err != nil {
		return err
	}
	defer closeLight(laser)

	return dance.NewRoutine(ctrl, led, laser).Run(ctx, dance.Demo())
}

func closeLight(c io.Closer) {
	if err := c.Close(); err != nil {
		log.Printf("turning light off failed: %v", err)
	}
}

// newADC opens the converter the accelerometer is wired to. The returned
// close func is never nil.
func newADC(cfg *config.Config) (adc.Reader, func() error, error) {
	a := cfg.Level.ADC
	chip, err := adc.ChipByName(a.Chip)
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case config.BackendRPi:
		spi, err := adc.OpenRPiSPI(a.ChipSelect, a.SpeedHz)
		if err != nil {
			return nil, nil, err
		}
		return adc.NewConverter(chip, spi), spi.Close, nil
	case config.BackendPeriph:
		spi, err := adc.OpenPeriphSPI(a.Port, a.SpeedHz)
		if err != nil {
			return nil, nil, err
		}
		return adc.NewConverter(chip, spi), spi.Close, nil
	default:
		// A board lying flat.
		mock := &adc.MockReader{Values: map[int]uint16{
			a.XChannel: uint16(cfg.Level.X.Zero),
			a.YChannel: uint16(cfg.Level.Y.Zero),
		}}
		return mock, func() error { return nil }, nil
	}
}

func runLevel(ctx context.Context, cfg *config.Config, board gpio.Board) error {
	debug.Step(2, "Initializing accelerometer")
	reader, closeADC, err := newADC(cfg)
	if err != nil {
		return err
	}
	defer closeADC()

	ind, err := level.NewIndicator(board, reader, level.Config{
		XChannel:  cfg.Level.ADC.XChannel,
		YChannel:  cfg.Level.ADC.YChannel,
		X:         level.Calibration(cfg.Level.X),
		Y:         level.Calibration(cfg.Level.Y),
		RedPin:    cfg.Level.RedPin,
		YellowPin: cfg.Level.YellowPin,
	})
	if err != nil {
		return err
	}
	defer ind.Off()

	ticker := time.NewTicker(cfg.LevelInterval())
	defer ticker.Stop()
	for {
		rd, err := ind.Update()
		if err != nil {
			return err
		}
		debug.Verbose("x=%d (%.3fg) y=%d (%.3fg) yellow=%v red=%v",
			rd.RawX, rd.NormX, rd.RawY, rd.NormY, rd.Yellow, rd.Red)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runBlink(ctx context.Context, cfg *config.Config, board gpio.Board) error {
	b, err := blink.New(board, cfg.Blink.RedPin, cfg.Blink.YellowPin, cfg.BlinkPhase())
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// validateMove checks the -speed and -angle flags.
func validateMove(speed, angle float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return fmt.Errorf("speed must be > 0, got %g", speed)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) || angle <= 0 {
		return fmt.Errorf("angle must be > 0, got %g", angle)
	}
	return nil
}

// motorFlag implements flag.Value for -motor. The zero value is the Spark.
type motorFlag struct {
	motor motion.Motor
}

func (f *motorFlag) String() string { return f.motor.String() }

func (f *motorFlag) Set(s string) error {
	switch s {
	case "spark":
		f.motor = motion.Spark
	case "kysan":
		f.motor = motion.Kysan
	default:
		return fmt.Errorf("motor must be spark or kysan, got %q", s)
	}
	return nil
}

// directionFlag implements flag.Value for -dir. The zero value is clockwise.
type directionFlag struct {
	dir motion.Direction
}

func (f *directionFlag) String() string { return f.dir.String() }

func (f *directionFlag) Set(s string) error {
	switch s {
	case "cw":
		f.dir = motion.Clockwise
	case "ccw":
		f.dir = motion.CounterClockwise
	default:
		return fmt.Errorf("direction must be cw or ccw, got %q", s)
	}
	return nil
}
