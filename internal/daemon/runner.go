package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/nirimap/internal/config"
	"github.com/1broseidon/nirimap/internal/display"
	"github.com/1broseidon/nirimap/internal/events"
	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/visibility"
)

// UpdateBuffer is the capacity of the update channel between the normalizer
// and the runner. When it fills, the normalizer stops reading the socket.
const UpdateBuffer = 256

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("daemon stopped")

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	Config  *config.Config
	Screen  display.Screen
	Updates <-chan events.Update
	Reload  <-chan struct{}

	// LoadConfig is called on reload. When nil, reload signals are ignored.
	LoadConfig func() (*config.Config, error)
	// DetectScreen, when set, refreshes the screen geometry on reload.
	DetectScreen func() display.Screen
	// OnConfig runs on the loop after a new config is applied.
	OnConfig func(*config.Config)

	// Scheduler overrides the auto-hide timer source. The default posts
	// expired timers back onto the loop.
	Scheduler visibility.Scheduler
	Logger    *slog.Logger
}

// Runner is the single owner of the engine. Updates, timer expiries, reload
// signals and external calls are all serialized onto Run's goroutine.
type Runner struct {
	engine  *Engine
	updates <-chan events.Update
	reload  <-chan struct{}

	loadConfig   func() (*config.Config, error)
	detectScreen func() display.Screen
	onConfig     func(*config.Config)

	tasks   chan func()
	calls   chan func()
	frames  chan Frame
	stopped chan struct{}

	dirty   bool
	started time.Time
	logger  *slog.Logger
}

// NewRunner creates a runner. Frames become available once Run starts.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Runner{
		updates:      cfg.Updates,
		reload:       cfg.Reload,
		loadConfig:   cfg.LoadConfig,
		detectScreen: cfg.DetectScreen,
		onConfig:     cfg.OnConfig,
		tasks:        make(chan func(), 4),
		calls:        make(chan func()),
		frames:       make(chan Frame, 1),
		stopped:      make(chan struct{}),
		dirty:        true,
		started:      time.Now(),
		logger:       logger,
	}

	sched := cfg.Scheduler
	if sched == nil {
		sched = visibility.TimerScheduler{Post: r.post}
	}
	r.engine = NewEngine(cfg.Config, cfg.Screen, sched, logger)
	r.engine.Visibility().OnChange(func(s visibility.State) {
		r.logger.Debug("visibility changed", "state", s.String())
		r.dirty = true
	})
	return r
}

// Frames delivers the latest frame. Stale frames are dropped.
func (r *Runner) Frames() <-chan Frame {
	return r.frames
}

func (r *Runner) post(fn func()) {
	select {
	case r.tasks <- fn:
	case <-r.stopped:
	}
}

// Run processes events until ctx is cancelled. It always returns nil; stream
// failures are reported by the normalizer.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	r.logger.Info("minimap runner started",
		"always_visible", r.engine.Config().Behavior.AlwaysVisible,
		"screen_width", r.engine.Frame().Screen.Width)

	for {
		if r.dirty {
			r.publish(r.engine.Frame())
			r.dirty = false
		}

		select {
		case <-ctx.Done():
			r.logger.Info("minimap runner stopped")
			return nil
		case u, ok := <-r.updates:
			if !ok {
				r.updates = nil
				continue
			}
			r.engine.Apply(u)
			r.drain()
			r.dirty = true
		case fn := <-r.tasks:
			fn()
		case _, ok := <-r.reload:
			if !ok {
				r.reload = nil
				continue
			}
			if err := r.reloadConfig(); err != nil {
				r.logger.Error("config reload failed, keeping previous config", "error", err)
			}
		case fn := <-r.calls:
			fn()
		}
	}
}

// drain applies every update already queued so that one frame covers them.
func (r *Runner) drain() {
	for {
		select {
		case u, ok := <-r.updates:
			if !ok {
				r.updates = nil
				return
			}
			r.engine.Apply(u)
		default:
			return
		}
	}
}

func (r *Runner) publish(f Frame) {
	select {
	case r.frames <- f:
		return
	default:
	}
	select {
	case <-r.frames:
	default:
	}
	select {
	case r.frames <- f:
	default:
	}
}

func (r *Runner) reloadConfig() error {
	if r.loadConfig == nil {
		return nil
	}
	cfg, err := r.loadConfig()
	if err != nil {
		return err
	}
	r.engine.SetConfig(cfg)
	if r.detectScreen != nil {
		r.engine.SetScreen(r.detectScreen())
	}
	if r.onConfig != nil {
		r.onConfig(cfg)
	}
	r.dirty = true
	r.logger.Info("config reloaded")
	return nil
}

// call runs fn on the loop goroutine and returns its result. The result
// travels over a buffered channel, so a caller that gives up on ctx never
// shares memory with a loop still running fn.
func call[T any](ctx context.Context, r *Runner, fn func() T) (T, error) {
	var zero T
	res := make(chan T, 1)
	task := func() { res <- fn() }

	select {
	case r.calls <- task:
	case <-r.stopped:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-res:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Uptime reports how long ago the runner was created.
func (r *Runner) Uptime() time.Duration {
	return time.Since(r.started)
}

// Status reports visibility, model counts and runner uptime.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	return call(ctx, r, func() Status {
		st := r.engine.Status()
		st.UptimeSeconds = int64(r.Uptime().Seconds())
		return st
	})
}

// Snapshot returns a deep, sorted view of the store.
func (r *Runner) Snapshot(ctx context.Context) (state.Snapshot, error) {
	return call(ctx, r, func() state.Snapshot { return r.engine.Store().Snapshot() })
}

// Frame returns the frame for the current model.
func (r *Runner) Frame(ctx context.Context) (Frame, error) {
	return call(ctx, r, r.engine.Frame)
}

// SetVisible shows or hides the minimap. Showing arms auto-hide unless
// always-visible is set.
func (r *Runner) SetVisible(ctx context.Context, visible bool) error {
	_, err := call(ctx, r, func() struct{} {
		if visible {
			r.engine.Show()
		} else {
			r.engine.Hide()
		}
		return struct{}{}
	})
	return err
}

// Reload reloads the configuration on the loop and reports the outcome.
func (r *Runner) Reload(ctx context.Context) error {
	if r.loadConfig == nil {
		return fmt.Errorf("reload is not configured")
	}
	reloadErr, err := call(ctx, r, r.reloadConfig)
	if err != nil {
		return err
	}
	return reloadErr
}
