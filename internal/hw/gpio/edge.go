package gpio

import (
	"sync"

	sysfs "github.com/brian-armstrong/gpio"

	"github.com/CamStan/WOU-CS490/internal/debug"
)

// EdgeSource delivers the number of a pin each time that pin changes level.
// It stands in for a hardware interrupt: the receiver wakes up and samples.
type EdgeSource interface {
	Edges() <-chan int
	Close() error
}

// WatcherEdges is an EdgeSource backed by the kernel sysfs GPIO interface,
// which reports both rising and falling edges through poll(2).
type WatcherEdges struct {
	watcher *sysfs.Watcher
	edges   chan int
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewWatcherEdges exports pins through sysfs and starts watching them.
func NewWatcherEdges(pins ...int) *WatcherEdges {
	w := &WatcherEdges{
		watcher: sysfs.NewWatcher(),
		edges:   make(chan int, len(pins)*4),
		done:    make(chan struct{}),
	}
	for _, p := range pins {
		debug.GPIO("WatchEdges", p, nil)
		w.watcher.AddPin(uint(p))
	}

	w.wg.Add(1)
	go w.forward()
	return w
}

func (w *WatcherEdges) forward() {
	defer w.wg.Done()
	defer close(w.edges)
	for {
		select {
		case <-w.done:
			return
		case n, ok := <-w.watcher.Notification:
			if !ok {
				return
			}
			debug.GPIO("Edge", int(n.Pin), n.Value)
			select {
			case w.edges <- int(n.Pin):
			default:
				// Receiver is already awake and sampling.
			}
		}
	}
}

func (w *WatcherEdges) Edges() <-chan int {
	return w.edges
}

func (w *WatcherEdges) Close() error {
	w.once.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
	w.wg.Wait()
	return nil
}

// FakeEdges is an EdgeSource fed by hand. Used by the mock backend and tests.
type FakeEdges struct {
	edges chan int
	once  sync.Once
}

// NewFakeEdges creates a FakeEdges with room for size pending edges.
func NewFakeEdges(size int) *FakeEdges {
	return &FakeEdges{edges: make(chan int, size)}
}

// Trigger reports an edge on pin. It never blocks.
func (f *FakeEdges) Trigger(pin int) {
	select {
	case f.edges <- pin:
	default:
	}
}

func (f *FakeEdges) Edges() <-chan int {
	return f.edges
}

func (f *FakeEdges) Close() error {
	f.once.Do(func() { close(f.edges) })
	return nil
}
