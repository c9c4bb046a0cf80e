package stepper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	calls   []gpioCall
	clock   *TickingClock
	onWrite func(c gpioCall)
}

type gpioCall struct {
	op    string // "setup", "write"
	pin   int
	level gpio.Level
	at    int64 // clock time of the call
}

func (d *recordingDriver) now() int64 {
	if d.clock == nil {
		return 0
	}
	return d.clock.Peek()
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	c := gpioCall{op: "write", pin: pin, level: level, at: d.now()}
	d.calls = append(d.calls, c)
	if d.onWrite != nil {
		d.onWrite(c)
	}
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) {
	return gpio.Low, nil
}

func (d *recordingDriver) Close() error {
	return nil
}

func (d *recordingDriver) writeCallsForPin(pin int) []gpioCall {
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" && c.pin == pin {
			result = append(result, c)
		}
	}
	return result
}

func testConfig(clock *TickingClock) Config {
	cfg := Config{
		StepPin:   7,
		DirPin:    6,
		EnablePin: 4,
	}
	if clock != nil {
		cfg.Clock = clock
	}
	return cfg
}

func newTestStepper(t *testing.T, clock *TickingClock) (*Stepper, *recordingDriver) {
	t.Helper()
	drv := &recordingDriver{clock: clock}
	s, err := NewStepper(drv, testConfig(clock))
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	drv.calls = nil // reset after init
	return s, drv
}

func TestNewStepper_StartsDisabled(t *testing.T) {
	drv := &recordingDriver{}
	if _, err := NewStepper(drv, testConfig(nil)); err != nil {
		t.Fatalf("NewStepper: %v", err)
	}

	setups := 0
	for _, c := range drv.calls {
		if c.op == "setup" {
			setups++
		}
	}
	if setups != 3 {
		t.Errorf("expected 3 pin setups, got %d", setups)
	}
	enable := drv.writeCallsForPin(4)
	if len(enable) != 1 || enable[0].level != gpio.High {
		t.Errorf("enable pin should be driven HIGH (disabled) at init, got %v", enable)
	}
}

func TestStepper_PulseCount(t *testing.T) {
	s, drv := newTestStepper(t, NewTickingClock(0, time.Microsecond))

	if err := s.Pulse(context.Background(), 10, 20*time.Microsecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}

	stepCalls := drv.writeCallsForPin(7)
	if len(stepCalls) != 20 {
		t.Fatalf("expected 20 writes on step pin, got %d", len(stepCalls))
	}
	for i, c := range stepCalls {
		want := gpio.High
		if i%2 == 1 {
			want = gpio.Low
		}
		if c.level != want {
			t.Errorf("write %d = %v, want %v", i, c.level, want)
		}
	}
}

func TestStepper_PulseZeroSteps(t *testing.T) {
	s, drv := newTestStepper(t, NewTickingClock(0, time.Microsecond))

	if err := s.Pulse(context.Background(), 0, time.Millisecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if len(drv.calls) != 0 {
		t.Errorf("zero steps should produce no GPIO calls, got %d", len(drv.calls))
	}
}

// checkTiming verifies a 50% duty square wave of the given period.
func checkTiming(t *testing.T, stepCalls []gpioCall, period time.Duration) {
	t.Helper()
	half := int64(period / 2)
	for i := 0; i+1 < len(stepCalls); i += 2 {
		high, low := stepCalls[i], stepCalls[i+1]
		if d := low.at - high.at; d < half {
			t.Errorf("step %d: high for %dns, want >= %dns", i/2, d, half)
		}
		if i+2 < len(stepCalls) {
			next := stepCalls[i+2]
			if d := next.at - high.at; d < int64(period) {
				t.Errorf("step %d: period %dns, want >= %dns", i/2, d, int64(period))
			}
		}
	}
}

func TestStepper_PulseTiming(t *testing.T) {
	clock := NewTickingClock(0, 3*time.Microsecond)
	s, drv := newTestStepper(t, clock)
	period := 100 * time.Microsecond

	if err := s.Pulse(context.Background(), 5, period); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	checkTiming(t, drv.writeCallsForPin(7), period)

	// Five periods must have elapsed, with a few ticks of overshoot each.
	if got := clock.Peek(); got < 5*int64(period) || got > 5*int64(period+6*time.Microsecond) {
		t.Errorf("clock after 5 steps = %dns, want about %dns", got, 5*int64(period))
	}
}

func TestStepper_PulseTimingAcrossSecondBoundary(t *testing.T) {
	// Start just before a whole second so every period straddles it.
	clock := NewTickingClock(int64(2*time.Second)-40_000, time.Microsecond)
	s, drv := newTestStepper(t, clock)
	period := 694444 * time.Nanosecond

	if err := s.Pulse(context.Background(), 3, period); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	calls := drv.writeCallsForPin(7)
	if len(calls) != 6 {
		t.Fatalf("expected 6 writes, got %d", len(calls))
	}
	checkTiming(t, calls, period)
}

func TestStepper_SleepMode(t *testing.T) {
	clock := NewTickingClock(0, 0)
	drv := &recordingDriver{clock: clock}
	sleeps := 0
	cfg := testConfig(clock)
	cfg.Wait = WaitSleep
	cfg.Sleep = func(d time.Duration) {
		sleeps++
		clock.Sleep(d)
	}
	s, err := NewStepper(drv, cfg)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	drv.calls = nil

	period := time.Millisecond
	if err := s.Pulse(context.Background(), 4, period); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if sleeps != 8 {
		t.Errorf("expected 2 sleeps per step (8), got %d", sleeps)
	}
	if got := clock.Peek(); got != 4*int64(period) {
		t.Errorf("clock = %dns, want %dns", got, 4*int64(period))
	}
	checkTiming(t, drv.writeCallsForPin(7), period)
}

func TestStepper_PulseCancelledBeforeStart(t *testing.T) {
	s, drv := newTestStepper(t, NewTickingClock(0, time.Microsecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Pulse(ctx, 100, 10*time.Microsecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(drv.calls) != 0 {
		t.Errorf("cancelled pulse train should write nothing, got %d calls", len(drv.calls))
	}
}

func TestStepper_PulseCancelledBetweenSteps(t *testing.T) {
	s, drv := newTestStepper(t, NewTickingClock(0, time.Microsecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	highs := 0
	drv.onWrite = func(c gpioCall) {
		if c.pin == 7 && c.level == gpio.High {
			highs++
			if highs == 3 {
				cancel()
			}
		}
	}

	err := s.Pulse(ctx, 100, 10*time.Microsecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	calls := drv.writeCallsForPin(7)
	if len(calls) != 6 {
		t.Fatalf("expected the in-flight step to finish (6 writes), got %d", len(calls))
	}
	if calls[len(calls)-1].level != gpio.Low {
		t.Error("step line must be left LOW after cancellation")
	}
}

func TestStepper_SetDirection(t *testing.T) {
	s, drv := newTestStepper(t, nil)

	if err := s.SetDirection(gpio.High); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	dir := drv.writeCallsForPin(6)
	if len(dir) != 1 || dir[0].level != gpio.High {
		t.Errorf("SetDirection should write HIGH to dir pin, got %v", dir)
	}
}

func TestStepper_EnableDisable(t *testing.T) {
	s, drv := newTestStepper(t, nil)

	if err := s.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	enableCalls := drv.writeCallsForPin(4)
	if len(enableCalls) != 1 || enableCalls[0].level != gpio.Low {
		t.Errorf("Enable should write LOW to enable pin, got %v", enableCalls)
	}

	drv.calls = nil
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	disableCalls := drv.writeCallsForPin(4)
	if len(disableCalls) != 1 || disableCalls[0].level != gpio.High {
		t.Errorf("Disable should write HIGH to enable pin, got %v", disableCalls)
	}
}

func TestStepper_EnableDisable_NoEnablePin(t *testing.T) {
	drv := &recordingDriver{}
	cfg := testConfig(nil)
	cfg.EnablePin = 0 // no enable pin
	s, err := NewStepper(drv, cfg)
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	drv.calls = nil

	if err := s.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	if len(drv.calls) != 0 {
		t.Errorf("with EnablePin=0, Enable/Disable should produce no GPIO calls, got %d", len(drv.calls))
	}
}

func TestStepper_DefaultClock(t *testing.T) {
	s, err := NewStepper(&recordingDriver{}, Config{StepPin: 7, DirPin: 6})
	if err != nil {
		t.Fatalf("NewStepper: %v", err)
	}
	if s.clock != SystemClock {
		t.Error("nil Clock should default to SystemClock")
	}
}

func TestSystemClock_Monotonic(t *testing.T) {
	a := SystemClock.Nanotime()
	time.Sleep(time.Millisecond)
	b := SystemClock.Nanotime()
	if b-a < int64(time.Millisecond) {
		t.Errorf("elapsed %dns, want >= 1ms", b-a)
	}
}

func TestParseWaitMode(t *testing.T) {
	cases := []struct {
		in      string
		want    WaitMode
		wantErr bool
	}{
		{"", WaitSpin, false},
		{"spin", WaitSpin, false},
		{"sleep", WaitSleep, false},
		{"nap", WaitSpin, true},
	}
	for _, tc := range cases {
		got, err := ParseWaitMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseWaitMode(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseWaitMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
