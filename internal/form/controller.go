package form

import (
	"sync"
	"time"
)

// Controller owns the State of one browser session and applies transitions
// one at a time.
type Controller struct {
	mu         sync.Mutex
	state      State
	lastAccess time.Time
}

func NewController() *Controller {
	return &Controller{lastAccess: time.Now()}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastAccess = time.Now()

	return c.state
}

// Dispatch applies t. On error the state is left untouched.
func (c *Controller) Dispatch(t Transition) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastAccess = time.Now()

	next, err := t(c.state)
	if err != nil {
		return c.state, err
	}

	c.state = next

	return next, nil
}

// Update applies an infallible transition.
func (c *Controller) Update(fn func(State) State) State {
	s, _ := c.Dispatch(func(s State) (State, error) { return fn(s), nil })
	return s
}

// Render returns the state to display and consumes the pending alert.
func (c *Controller) Render() (State, string) {
	var alert string

	view := c.Update(func(s State) State {
		var next State
		next, alert = s.TakeAlert()
		return next
	})

	return view, alert
}

// Idle reports whether the controller has not been touched for d and is not uploading.
func (c *Controller) Idle(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.state.Uploading && time.Since(c.lastAccess) > d
}
