// Package debounce turns a noisy stream of raw button samples into clean
// press/release events using an 8-bit shift register.
//
// Buttons are wired active-low: a raw sample of true means the line is idle
// (released), false means it is pulled to ground (pressed).
package debounce

// Thresholds on the shift register value.
const (
	PressThreshold   uint8 = 0x3F // register at or below: pressed
	ReleaseThreshold uint8 = 0xFC // register at or above: released

	bit7 uint8 = 0x80
)

// Event is a debounced input transition.
type Event int

const (
	Pressed Event = iota
	Released
	StillPressed // auto-repeat while a directional input is held
)

func (e Event) String() string {
	switch e {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case StillPressed:
		return "still pressed"
	default:
		return "unknown"
	}
}

// State is the debounced logical level. Values match active-low wiring.
type State uint8

const (
	StatePressed  State = 0
	StateReleased State = 1
)

// Debouncer holds the sample history for a single input. It is not safe for
// concurrent use; each input owns its own Debouncer.
type Debouncer struct {
	shift uint8
	state State

	// auto-repeat
	repeatEvery uint32
	holdCount   uint32
	holding     bool
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithRepeat enables StillPressed events: while the input is held and the
// register is fully saturated low, an event fires every n samples. The
// sample counter restarts on release. n == 0 disables auto-repeat.
func WithRepeat(n uint32) Option {
	return func(d *Debouncer) {
		d.repeatEvery = n
	}
}

// New returns a Debouncer in the released state with a saturated register.
func New(opts ...Option) *Debouncer {
	d := &Debouncer{
		shift: 0xFF,
		state: StateReleased,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sample shifts one raw reading into the register and reports the event it
// caused, if any. At most one event is produced per sample.
func (d *Debouncer) Sample(raw bool) (Event, bool) {
	d.shift >>= 1
	if raw {
		d.shift |= bit7
	}

	ev, fired := d.repeat()
	if !fired {
		ev, fired = d.transition()
	}
	if d.repeatEvery > 0 {
		d.holdCount++
	}
	return ev, fired
}

func (d *Debouncer) repeat() (Event, bool) {
	if d.repeatEvery == 0 || !d.holding || d.shift != 0x00 {
		return 0, false
	}
	if d.holdCount%d.repeatEvery != 0 {
		return 0, false
	}
	return StillPressed, true
}

func (d *Debouncer) transition() (Event, bool) {
	switch d.state {
	case StateReleased:
		if d.shift <= PressThreshold {
			d.state = StatePressed
			d.holding = true
			return Pressed, true
		}
	case StatePressed:
		if d.shift >= ReleaseThreshold {
			d.state = StateReleased
			d.holding = false
			d.holdCount = 0
			return Released, true
		}
	}
	return 0, false
}

// State returns the current debounced level.
func (d *Debouncer) State() State {
	return d.state
}

// IsPressed reports whether the input is currently debounced as pressed.
func (d *Debouncer) IsPressed() bool {
	return d.state == StatePressed
}

// Register returns the raw sample history, most recent sample in bit 7.
func (d *Debouncer) Register() uint8 {
	return d.shift
}

// Settled reports whether the input is released and the last eight samples
// were all high. Nothing more can happen until the line changes again.
func (d *Debouncer) Settled() bool {
	return d.state == StateReleased && d.shift == 0xFF
}
