package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes bounds the size of a config file.
const MaxConfigFileBytes = 64 * 1024

// Backend names, see gpio.NewDriver.
const (
	BackendMock   = "mock"
	BackendRPi    = "rpio"
	BackendPeriph = "periph"
)

// MotorConfig holds the pins of one stepper driver (EasyDriver style).
type MotorConfig struct {
	EnablePin int    `yaml:"enable_pin"` // 0 = not used. Active LOW.
	DirPin    int    `yaml:"dir_pin"`
	StepPin   int    `yaml:"step_pin"`
	Wait      string `yaml:"wait"` // "spin" (default) or "sleep"
}

type MotorsConfig struct {
	Spark MotorConfig `yaml:"spark"`
	Kysan MotorConfig `yaml:"kysan"`
}

// LightConfig describes a PWM-dimmed light.
type LightConfig struct {
	PWMPin      int `yaml:"pwm_pin"`
	FrequencyHz int `yaml:"frequency_hz"`
	PowerPin    int `yaml:"power_pin"` // laser only: power enable line
}

type LightsConfig struct {
	LED   LightConfig `yaml:"led"`
	Laser LightConfig `yaml:"laser"`
}

// InputConfig is one button or joystick direction.
type InputConfig struct {
	Name   string `yaml:"name"`
	Pin    int    `yaml:"pin"`
	Repeat uint32 `yaml:"repeat"` // samples between auto-repeat events, 0 = off
}

type ButtonsConfig struct {
	Mode          string        `yaml:"mode"` // "poll" or "edge"
	IntervalMs    int           `yaml:"interval_ms"`
	RepeatPauseMs int           `yaml:"repeat_pause_ms"`
	Inputs        []InputConfig `yaml:"inputs"`
}

// CalibrationConfig holds the raw accelerometer readings of one axis at
// 0g, +1g and -1g.
type CalibrationConfig struct {
	Zero float64 `yaml:"zero"`
	Pos  float64 `yaml:"pos"`
	Neg  float64 `yaml:"neg"`
}

// ADCConfig selects the SPI converter the accelerometer is wired to.
type ADCConfig struct {
	Chip       string `yaml:"chip"`        // "mcp3208" (default) or "mcp3008"
	Port       string `yaml:"port"`        // periph backend: SPI port name, "" = first
	ChipSelect uint8  `yaml:"chip_select"` // rpio backend: CE line
	SpeedHz    int    `yaml:"speed_hz"`
	XChannel   int    `yaml:"x_channel"`
	YChannel   int    `yaml:"y_channel"`
}

type LevelConfig struct {
	ADC        ADCConfig         `yaml:"adc"`
	X          CalibrationConfig `yaml:"x"`
	Y          CalibrationConfig `yaml:"y"`
	RedPin     int               `yaml:"red_pin"`
	YellowPin  int               `yaml:"yellow_pin"`
	IntervalMs int               `yaml:"interval_ms"`
}

type BlinkConfig struct {
	RedPin    int `yaml:"red_pin"`
	YellowPin int `yaml:"yellow_pin"`
	PhaseMs   int `yaml:"phase_ms"`
}

// Config aggregates all application configuration.
type Config struct {
	Backend    string        `yaml:"backend"`     // mock, rpio or periph
	DebugLevel int           `yaml:"debug_level"` // 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	Motors     MotorsConfig  `yaml:"motors"`
	Lights     LightsConfig  `yaml:"lights"`
	Buttons    ButtonsConfig `yaml:"buttons"`
	Level      LevelConfig   `yaml:"level"`
	Blink      BlinkConfig   `yaml:"blink"`
}

// ValidateConfigPath accepts only .yaml files directly inside a directory
// named "configs", with no ".." elements.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if elem == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("config file is empty")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMock
	}

	if c.Motors.Spark == (MotorConfig{}) {
		c.Motors.Spark = MotorConfig{EnablePin: 4, DirPin: 6, StepPin: 7}
	}
	if c.Motors.Kysan == (MotorConfig{}) {
		c.Motors.Kysan = MotorConfig{EnablePin: 8, DirPin: 9, StepPin: 10}
	}

	if c.Lights.LED.PWMPin == 0 {
		c.Lights.LED.PWMPin = 18
	}
	if c.Lights.Laser.PWMPin == 0 {
		c.Lights.Laser.PWMPin = 13
	}
	if c.Lights.Laser.PowerPin == 0 {
		c.Lights.Laser.PowerPin = 2
	}
	for _, l := range []*LightConfig{&c.Lights.LED, &c.Lights.Laser} {
		if l.FrequencyHz == 0 {
			l.FrequencyHz = 100_000 // 10µs period
		}
	}

	if c.Buttons.Mode == "" {
		c.Buttons.Mode = "poll"
	}
	if c.Buttons.IntervalMs == 0 {
		c.Buttons.IntervalMs = 5
		if c.Buttons.Mode == "edge" {
			c.Buttons.IntervalMs = 1
		}
	}
	if c.Buttons.RepeatPauseMs == 0 {
		c.Buttons.RepeatPauseMs = 250
	}

	if c.Level.ADC.Chip == "" {
		c.Level.ADC.Chip = "mcp3208"
	}
	if c.Level.ADC.SpeedHz == 0 {
		c.Level.ADC.SpeedHz = 1_000_000
	}
	if c.Level.ADC.XChannel == 0 && c.Level.ADC.YChannel == 0 {
		c.Level.ADC.YChannel = 1
	}
	if c.Level.X == (CalibrationConfig{}) {
		c.Level.X = CalibrationConfig{Zero: 1449, Pos: 1722, Neg: 1171}
	}
	if c.Level.Y == (CalibrationConfig{}) {
		c.Level.Y = CalibrationConfig{Zero: 1437, Pos: 1720, Neg: 1152}
	}
	if c.Level.RedPin == 0 {
		c.Level.RedPin = 7
	}
	if c.Level.YellowPin == 0 {
		c.Level.YellowPin = 8
	}
	if c.Level.IntervalMs == 0 {
		c.Level.IntervalMs = 10
	}

	if c.Blink.RedPin == 0 {
		c.Blink.RedPin = 7
	}
	if c.Blink.YellowPin == 0 {
		c.Blink.YellowPin = 8
	}
	if c.Blink.PhaseMs == 0 {
		c.Blink.PhaseMs = 1000
	}
}

// Validate checks a loaded configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMock, BackendRPi, BackendPeriph:
	default:
		return fmt.Errorf("backend must be one of mock, rpio, periph, got %q", c.Backend)
	}
	if c.DebugLevel < 0 || c.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.DebugLevel)
	}

	for name, m := range map[string]MotorConfig{"spark": c.Motors.Spark, "kysan": c.Motors.Kysan} {
		if m.StepPin == m.DirPin {
			return fmt.Errorf("motors.%s: step_pin and dir_pin must differ", name)
		}
		switch m.Wait {
		case "", "spin", "sleep":
		default:
			return fmt.Errorf("motors.%s.wait must be spin or sleep, got %q", name, m.Wait)
		}
	}

	for name, l := range map[string]LightConfig{"led": c.Lights.LED, "laser": c.Lights.Laser} {
		if l.FrequencyHz < 0 {
			return fmt.Errorf("lights.%s.frequency_hz must be > 0, got %d", name, l.FrequencyHz)
		}
	}

	switch c.Buttons.Mode {
	case "poll", "edge":
	default:
		return fmt.Errorf("buttons.mode must be poll or edge, got %q", c.Buttons.Mode)
	}
	if c.Buttons.IntervalMs < 0 || c.Buttons.RepeatPauseMs < 0 {
		return errors.New("buttons.interval_ms and buttons.repeat_pause_ms must be >= 0")
	}
	names := make(map[string]bool, len(c.Buttons.Inputs))
	for i, in := range c.Buttons.Inputs {
		if in.Name == "" {
			return fmt.Errorf("buttons.inputs[%d]: name is required", i)
		}
		if names[in.Name] {
			return fmt.Errorf("buttons.inputs: duplicate name %q", in.Name)
		}
		names[in.Name] = true
	}

	switch c.Level.ADC.Chip {
	case "mcp3008", "mcp3208":
	default:
		return fmt.Errorf("level.adc.chip must be mcp3008 or mcp3208, got %q", c.Level.ADC.Chip)
	}
	for _, ch := range []int{c.Level.ADC.XChannel, c.Level.ADC.YChannel} {
		if ch < 0 || ch > 7 {
			return fmt.Errorf("level.adc channel must be between 0 and 7, got %d", ch)
		}
	}
	for axis, cal := range map[string]CalibrationConfig{"x": c.Level.X, "y": c.Level.Y} {
		if !(cal.Neg < cal.Zero && cal.Zero < cal.Pos) {
			return fmt.Errorf("level.%s: calibration must satisfy neg < zero < pos", axis)
		}
	}

	if c.Blink.PhaseMs < 0 {
		return fmt.Errorf("blink.phase_ms must be > 0, got %d", c.Blink.PhaseMs)
	}
	return nil
}

// ButtonInterval returns the time between two samples of an input.
func (c *Config) ButtonInterval() time.Duration {
	return time.Duration(c.Buttons.IntervalMs) * time.Millisecond
}

// RepeatPause returns the extra wait after an auto-repeat event.
func (c *Config) RepeatPause() time.Duration {
	return time.Duration(c.Buttons.RepeatPauseMs) * time.Millisecond
}

// LevelInterval returns the time between two accelerometer readings.
func (c *Config) LevelInterval() time.Duration {
	return time.Duration(c.Level.IntervalMs) * time.Millisecond
}

// BlinkPhase returns how long each blink phase lasts.
func (c *Config) BlinkPhase() time.Duration {
	return time.Duration(c.Blink.PhaseMs) * time.Millisecond
}
