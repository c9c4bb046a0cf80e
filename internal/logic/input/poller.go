// Package input samples buttons and joystick directions and reports
// debounced events. Every input is sampled by its own goroutine, which is
// the only owner of that input's Debouncer.
package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CamStan/WOU-CS490/internal/debug"
	"github.com/CamStan/WOU-CS490/internal/hw/gpio"
	"github.com/CamStan/WOU-CS490/internal/logic/debounce"
)

// Mode selects how sampling is triggered.
type Mode int

const (
	// ModePoll samples every input at a fixed interval, forever.
	ModePoll Mode = iota
	// ModeEdge sleeps until the input changes level, then samples at a fixed
	// interval until the input has settled released again.
	ModeEdge
)

// ParseMode converts a config string ("poll", "edge") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "poll":
		return ModePoll, nil
	case "edge":
		return ModeEdge, nil
	default:
		return ModePoll, fmt.Errorf("unknown input mode: %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeEdge {
		return "edge"
	}
	return "poll"
}

// Input is one active-low line.
type Input struct {
	Name string
	Pin  int
	// Repeat enables StillPressed events every Repeat samples while held.
	// 0 disables auto-repeat.
	Repeat uint32
}

// Event is a debounced event on a named input.
type Event struct {
	Input string
	Pin   int
	Kind  debounce.Event
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Input, e.Kind)
}

// Config holds the sampling parameters shared by all inputs.
type Config struct {
	Mode        Mode
	Interval    time.Duration   // time between two samples
	RepeatPause time.Duration   // extra wait after a StillPressed event
	Edges       gpio.EdgeSource // required in ModeEdge
}

// Poller runs the sampling loops.
type Poller struct {
	gpio   gpio.Driver
	inputs []Input
	cfg    Config
}

// NewPoller configures every input pin with its pull-up enabled.
func NewPoller(g gpio.Driver, inputs []Input, cfg Config) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sample interval must be > 0, got %v", cfg.Interval)
	}
	if cfg.Mode == ModeEdge && cfg.Edges == nil {
		return nil, fmt.Errorf("edge mode needs an edge source")
	}
	seen := make(map[int]string, len(inputs))
	for _, in := range inputs {
		if other, dup := seen[in.Pin]; dup {
			return nil, fmt.Errorf("inputs %q and %q share pin %d", other, in.Name, in.Pin)
		}
		seen[in.Pin] = in.Name
		if err := g.SetupPin(in.Pin, gpio.InputPullUp); err != nil {
			return nil, fmt.Errorf("setup input %s (pin %d): %w", in.Name, in.Pin, err)
		}
	}
	return &Poller{gpio: g, inputs: inputs, cfg: cfg}, nil
}

// Run samples all inputs and sends their events to events until ctx is
// done. It returns once every sampling goroutine has exited.
func (p *Poller) Run(ctx context.Context, events chan<- Event) error {
	debug.Info("Input: %d inputs, %s mode, every %v", len(p.inputs), p.cfg.Mode, p.cfg.Interval)

	var wg sync.WaitGroup
	wakes := make(map[int]chan struct{}, len(p.inputs))
	for _, in := range p.inputs {
		in := in
		wake := make(chan struct{}, 1)
		wakes[in.Pin] = wake

		wg.Add(1)
		go func() {
			defer wg.Done()
			l := &loop{
				poller: p,
				input:  in,
				deb:    debounce.New(debounce.WithRepeat(in.Repeat)),
				events: events,
			}
			if p.cfg.Mode == ModeEdge {
				l.runEdge(ctx, wake)
			} else {
				l.runPoll(ctx)
			}
		}()
	}

	if p.cfg.Mode == ModeEdge {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatch(ctx, p.cfg.Edges.Edges(), wakes)
		}()
	}

	wg.Wait()
	return nil
}

// dispatch wakes the loop owning each pin that reported an edge. A loop
// that is already awake keeps its single pending wake-up.
func dispatch(ctx context.Context, edges <-chan int, wakes map[int]chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case pin, ok := <-edges:
			if !ok {
				return
			}
			wake, known := wakes[pin]
			if !known {
				debug.Trace("Input: edge on unwatched pin %d", pin)
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}

// loop is the state of one input's sampling goroutine.
type loop struct {
	poller *Poller
	input  Input
	deb    *debounce.Debouncer
	events chan<- Event
}

func (l *loop) runPoll(ctx context.Context) {
	for {
		if !l.sample(ctx) {
			return
		}
	}
}

func (l *loop) runEdge(ctx context.Context, wake <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}
		debug.Trace("Input %s: woken", l.input.Name)
		for {
			if !l.sample(ctx) {
				return
			}
			if l.deb.Settled() {
				break
			}
		}
	}
}

// sample takes one reading, reports any event, then waits for the next
// sample slot. It returns false once ctx is done.
func (l *loop) sample(ctx context.Context) bool {
	wait := l.poller.cfg.Interval

	level, err := l.poller.gpio.ReadPin(l.input.Pin)
	if err != nil {
		debug.Error(fmt.Errorf("read input %s: %w", l.input.Name, err))
		return sleep(ctx, wait)
	}

	if kind, fired := l.deb.Sample(bool(level)); fired {
		debug.Button(l.input.Name, kind.String())
		ev := Event{Input: l.input.Name, Pin: l.input.Pin, Kind: kind}
		select {
		case l.events <- ev:
		case <-ctx.Done():
			return false
		}
		if kind == debounce.StillPressed {
			wait += l.poller.cfg.RepeatPause
		}
	}
	return sleep(ctx, wait)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
