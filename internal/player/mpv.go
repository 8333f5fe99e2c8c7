package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/dexterlb/mpvipc"
)

// MPVOpts configures [NewMPV].
type MPVOpts struct {
	Path           string // mpv binary; defaults to "mpv"
	SocketPath     string // IPC socket; defaults to a file under the temp dir
	ConnectTimeout time.Duration
	LoadTimeout    time.Duration // how long Load waits for mpv to open the file
	Logger         *log.Logger
}

const lifecycleBuffer = 16

// MPV is an [Element] backed by an mpv child process.
type MPV struct {
	conn        *mpvipc.Connection
	cmd         *exec.Cmd
	socketPath  string
	loadTimeout time.Duration
	logger      *log.Logger

	// lifecycle carries file-loaded and end-file events from watch to Load.
	lifecycle  chan *mpvipc.Event
	stopEvents chan struct{}
	loadMu     sync.Mutex

	once sync.Once
}

// NewMPV starts mpv in idle mode and connects to its IPC socket.
func NewMPV(opts MPVOpts) (*MPV, error) {
	if opts.Path == "" {
		opts.Path = "mpv"
	}
	if opts.SocketPath == "" {
		opts.SocketPath = filepath.Join(os.TempDir(), "djay", "mpv.sock")
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	if err := os.MkdirAll(filepath.Dir(opts.SocketPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to make socket directory: %w", err)
	}
	if err := os.RemoveAll(opts.SocketPath); err != nil {
		return nil, fmt.Errorf("failed to clean up socket: %w", err)
	}

	cmd := exec.Command(opts.Path,
		"--idle",
		"--quiet",
		"--pause",
		"--no-video",
		"--no-input-terminal",
		"--input-ipc-server="+opts.SocketPath,
	)
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	conn := mpvipc.NewConnection(opts.SocketPath)
	if err := openWithRetry(conn, opts.ConnectTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("failed to open mpv connection: %w", err)
	}

	events, stop := conn.NewEventListener()
	m := &MPV{
		conn:        conn,
		cmd:         cmd,
		socketPath:  opts.SocketPath,
		loadTimeout: opts.LoadTimeout,
		logger:      shared.WithLogger(opts.Logger, "element", "mpv"),
		lifecycle:   make(chan *mpvipc.Event, lifecycleBuffer),
		stopEvents:  stop,
	}
	go m.watch(events)
	m.logger.Debug("mpv started", "pid", cmd.Process.Pid, "socket", opts.SocketPath)
	return m, nil
}

// openWithRetry spins until mpv has created its socket or timeout passes.
func openWithRetry(conn *mpvipc.Connection, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		err := conn.Open()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return err
		default:
			runtime.Gosched()
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Load replaces whatever mpv is playing with url and waits until mpv has
// opened it. mpv stays paused until [MPV.Play].
func (m *MPV) Load(ctx context.Context, url string) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, m.loadTimeout)
	defer cancel()

	m.discardLifecycle()

	var result interface{}
	err := call(ctx, func() error {
		var err error
		result, err = m.conn.Call("loadfile", url, "replace")
		return err
	})
	if err != nil {
		return fmt.Errorf("loadfile %s: %w", url, err)
	}

	id, ok := entryID(result)
	if err := awaitLoad(ctx, m.lifecycle, id, ok); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	return nil
}

// watch forwards file lifecycle events until the listener is stopped. The
// mpvipc hub blocks on a full listener, so events must always be drained.
func (m *MPV) watch(events <-chan *mpvipc.Event) {
	defer close(m.lifecycle)

	for ev := range events {
		switch ev.Name {
		case "file-loaded", "end-file":
			m.logger.Debug("mpv event", "event", ev.Name, "reason", ev.Reason)
			forward(m.lifecycle, ev)
		}
	}
}

// forward sends ev on ch, dropping the oldest queued event if ch is full.
func forward(ch chan *mpvipc.Event, ev *mpvipc.Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// discardLifecycle drops events left over from earlier loads.
func (m *MPV) discardLifecycle() {
	for {
		select {
		case _, ok := <-m.lifecycle:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// awaitLoad waits for the outcome of a loadfile. When the playlist entry id
// is known, events for other entries are skipped and any end-file for this
// entry is a failure; otherwise only an end-file with reason "error" is.
func awaitLoad(ctx context.Context, events <-chan *mpvipc.Event, id int64, known bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: mpv event stream closed", shared.ErrPlaybackFailed)
			}

			evID, hasID := eventEntryID(ev)
			if known && hasID && evID != id {
				continue
			}
			mine := known && hasID

			switch ev.Name {
			case "file-loaded":
				return nil
			case "end-file":
				if ev.Reason == "error" || mine {
					return fmt.Errorf("%w: %s", shared.ErrPlaybackFailed, endReason(ev))
				}
			}
		}
	}
}

// entryID reads playlist_entry_id from a loadfile result. Older mpv
// versions return nothing.
func entryID(result interface{}) (int64, bool) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return 0, false
	}
	return asInt(data["playlist_entry_id"])
}

func eventEntryID(ev *mpvipc.Event) (int64, bool) {
	if ev.ExtraData == nil {
		return 0, false
	}
	return asInt(ev.ExtraData["playlist_entry_id"])
}

// asInt accepts the float64 encoding/json produces for JSON numbers.
func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func endReason(ev *mpvipc.Event) string {
	if msg, ok := ev.ExtraData["file_error"].(string); ok && msg != "" {
		return msg
	}
	if ev.Reason != "" {
		return ev.Reason
	}
	return "unknown"
}

func (m *MPV) Play(ctx context.Context) error {
	return call(ctx, func() error { return m.conn.Set("pause", false) })
}

func (m *MPV) Pause(ctx context.Context) error {
	return call(ctx, func() error { return m.conn.Set("pause", true) })
}

// Close stops mpv and removes its socket. Calling it again does nothing.
func (m *MPV) Close() error {
	var err error
	m.once.Do(func() {
		close(m.stopEvents)
		if cerr := m.conn.Close(); cerr != nil {
			m.logger.Debug("failed to close mpv connection", "err", cerr)
		}

		if serr := m.cmd.Process.Signal(os.Interrupt); serr != nil {
			m.logger.Warn("failed to interrupt mpv, killing", "err", serr)
			if kerr := m.cmd.Process.Kill(); kerr != nil {
				err = fmt.Errorf("failed to kill mpv: %w", kerr)
			}
		}
		_ = m.cmd.Wait()

		if rerr := os.Remove(m.socketPath); rerr != nil && !os.IsNotExist(rerr) {
			m.logger.Debug("failed to clean up socket", "err", rerr)
		}
	})
	return err
}

// call runs fn but returns early when ctx ends. mpvipc calls carry no context.
func call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewElement builds the element named by the player config.
// A missing mpv binary falls back to [Nop] with a warning.
func NewElement(cfg shared.PlayerConfig, logger *log.Logger) (Element, error) {
	switch cfg.Backend {
	case "none":
		return Nop{}, nil
	case "", "mpv":
		path := cfg.MPVPath
		if path == "" {
			path = "mpv"
		}
		if _, err := exec.LookPath(path); err != nil {
			if logger != nil {
				logger.Warn("mpv not found, playback disabled", "path", path)
			}
			return Nop{}, nil
		}
		return NewMPV(MPVOpts{
			Path:           path,
			SocketPath:     cfg.SocketPath,
			ConnectTimeout: cfg.ConnectTimeout,
			LoadTimeout:    cfg.LoadTimeout,
			Logger:         logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown player backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
