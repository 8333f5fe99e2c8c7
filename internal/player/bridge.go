package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/shared"
)

// Element is a media element: something that can load a source URL and play it.
type Element interface {
	Load(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Close() error
}

// State is the playback state reported by a [Bridge].
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Event is sent on [Bridge.Events] whenever the state changes.
// Err is set when a playback start or a pause/resume was rejected. Started
// marks the event that ends a successful load, as opposed to a resume.
type Event struct {
	URL     string
	State   State
	Err     error
	Started bool
}

const (
	eventBuffer    = 16
	controlTimeout = 5 * time.Second
)

// Bridge keeps an [Element] in sync with the current track URL. Element calls
// run off the caller's goroutine, one at a time and in the order they were
// requested; the bridge state changes immediately and a failed call is
// reported on [Bridge.Events].
type Bridge struct {
	el     Element
	logger *log.Logger
	events chan Event

	mu       sync.Mutex
	url      string
	state    State
	attempt  uint64
	controls uint64
	epoch    context.Context
	cancel   context.CancelFunc
	pending  chan struct{}
	closed   bool
}

// NewBridge creates a Bridge driving el.
func NewBridge(el Element, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Bridge{
		el:     el,
		logger: shared.WithLogger(logger, "component", "player"),
		events: make(chan Event, eventBuffer),
	}
}

// Sync points the element at url. Repeating the current url does nothing.
// Otherwise any in-flight start is abandoned and a new one begins. An empty
// url stops tracking and returns to [Idle].
func (b *Bridge) Sync(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || url == b.url {
		return
	}
	b.url = url

	if url == "" {
		b.abandon()
		b.state = Idle
		b.emit(Event{State: Idle})
		return
	}
	b.start(url)
}

// Toggle pauses a playing element and resumes a paused one. From [Idle] it
// starts the current url again; while [Loading] it does nothing. It never
// waits on the element.
func (b *Bridge) Toggle() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.url == "" {
		return
	}

	switch b.state {
	case Playing:
		b.control(Paused, b.el.Pause)
	case Paused:
		b.control(Playing, b.el.Play)
	case Idle:
		b.start(b.url)
	}
}

// start must be called with mu held.
func (b *Bridge) start(url string) {
	b.abandon()

	b.epoch, b.cancel = context.WithCancel(context.Background())
	b.attempt++
	b.state = Loading
	b.emit(Event{URL: url, State: Loading})

	ctx, attempt := b.epoch, b.attempt
	b.enqueue(ctx, func() { b.run(ctx, attempt, url) })
}

// control must be called with mu held and a live epoch. The new state is
// reported right away and rolled back if the element refuses.
func (b *Bridge) control(to State, fn func(context.Context) error) {
	from, url, attempt := b.state, b.url, b.attempt
	b.controls++
	seq := b.controls

	b.state = to
	b.emit(Event{URL: url, State: to})

	ctx, cancel := context.WithTimeout(b.epoch, controlTimeout)
	b.enqueue(ctx, func() {
		defer cancel()
		err := ctx.Err()
		if err == nil {
			err = fn(ctx)
		}
		if err == nil {
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || attempt != b.attempt || seq != b.controls {
			b.logger.Debug("dropping superseded control", "url", url, "err", err)
			return
		}
		b.logger.Warn("play/pause failed", "url", url, "err", err)
		b.state = from
		b.emit(Event{URL: url, State: from, Err: err})
	})
}

// enqueue must be called with mu held. fn runs after every earlier element
// call has returned, or as soon as ctx is done.
func (b *Bridge) enqueue(ctx context.Context, fn func()) {
	prev := b.pending
	done := make(chan struct{})
	b.pending = done

	go func() {
		defer close(done)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
			}
		}
		fn()
	}()
}

// abandon must be called with mu held. Cancelling the epoch unblocks every
// queued element call for the old url.
func (b *Bridge) abandon() {
	b.attempt++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
		b.epoch = nil
	}
}

func (b *Bridge) run(ctx context.Context, attempt uint64, url string) {
	err := ctx.Err()
	if err == nil {
		err = b.el.Load(ctx, url)
	}
	if err == nil {
		err = b.el.Play(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || attempt != b.attempt {
		b.logger.Debug("dropping superseded playback attempt", "url", url)
		return
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			b.logger.Warn("playback start rejected", "url", url, "err", err)
		}
		b.state = Idle
		b.emit(Event{URL: url, State: Idle, Err: err})
		return
	}

	b.logger.Info("playing", "url", url)
	b.state = Playing
	b.emit(Event{URL: url, State: Playing, Started: true})
}

// emit must be called with mu held. When the buffer is full the oldest event
// is dropped; readers only care about the latest state.
func (b *Bridge) emit(ev Event) {
	for {
		select {
		case b.events <- ev:
			return
		default:
		}
		select {
		case old := <-b.events:
			b.logger.Debug("player event dropped", "state", old.State, "url", old.URL)
		default:
		}
	}
}

// Events delivers state changes. The channel is closed by [Bridge.Close].
func (b *Bridge) Events() <-chan Event { return b.events }

// State returns the current playback state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// URL returns the last synced url.
func (b *Bridge) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Close abandons any in-flight start or queued element call and releases the
// element.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.abandon()
	close(b.events)
	b.mu.Unlock()

	return b.el.Close()
}
