// Package visibility decides whether the minimap is shown. It has a single
// owner and is not safe for concurrent use; timer callbacks must be delivered
// on the owner's goroutine (see TimerScheduler.Post).
package visibility

import "time"

// State is the visibility of the minimap.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	default:
		return "unknown"
	}
}

// Options configures auto-hide behaviour.
type Options struct {
	AlwaysVisible bool
	HideTimeout   time.Duration
}

// Controller is the show/hide state machine with at most one pending
// auto-hide timer.
type Controller struct {
	opts  Options
	state State
	sched Scheduler

	cancel     Cancel
	generation uint64

	lastFocus    uint64
	hasLastFocus bool

	onChange func(State)
}

// New returns a controller that starts Visible when opts.AlwaysVisible is set
// and Hidden otherwise. No timer is armed.
func New(opts Options, sched Scheduler) *Controller {
	c := &Controller{opts: opts, sched: sched, state: Hidden}
	if opts.AlwaysVisible {
		c.state = Visible
	}
	return c
}

// OnChange registers fn to run after every state transition.
func (c *Controller) OnChange(fn func(State)) {
	c.onChange = fn
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Visible() bool {
	return c.state == Visible
}

// Pending reports whether an auto-hide timer is armed.
func (c *Controller) Pending() bool {
	return c.cancel != nil
}

func (c *Controller) Options() Options {
	return c.opts
}

// Show makes the minimap visible and, unless always-visible is set, re-arms
// the auto-hide timer.
func (c *Controller) Show() {
	c.setState(Visible)
	if !c.opts.AlwaysVisible {
		c.arm()
	}
}

// Hide cancels any pending timer and hides the minimap.
func (c *Controller) Hide() {
	c.disarm()
	c.setState(Hidden)
}

// ShowOnFocusChange calls Show only when id differs from the last id that
// triggered a show through this path. It reports whether Show ran.
func (c *Controller) ShowOnFocusChange(id *uint64) bool {
	if id == nil {
		if !c.hasLastFocus {
			return false
		}
		c.lastFocus, c.hasLastFocus = 0, false
	} else {
		if c.hasLastFocus && c.lastFocus == *id {
			return false
		}
		c.lastFocus, c.hasLastFocus = *id, true
	}
	c.Show()
	return true
}

// SetOptions applies new options. Turning always-visible on shows the minimap
// and drops the timer; turning it off while visible arms the timer.
func (c *Controller) SetOptions(opts Options) {
	prev := c.opts
	c.opts = opts

	switch {
	case opts.AlwaysVisible && !prev.AlwaysVisible:
		c.disarm()
		c.setState(Visible)
	case !opts.AlwaysVisible && prev.AlwaysVisible && c.state == Visible:
		c.arm()
	}
}

func (c *Controller) arm() {
	c.disarm()
	gen := c.generation
	c.cancel = c.sched.AfterFunc(c.opts.HideTimeout, func() {
		c.expire(gen)
	})
}

func (c *Controller) disarm() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// expire runs when a timer fires. A callback from a timer that has since been
// cancelled or replaced carries an old generation and is ignored.
func (c *Controller) expire(gen uint64) {
	if gen != c.generation || c.cancel == nil {
		return
	}
	c.cancel = nil
	c.setState(Hidden)
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}
