// Package optimistic applies a local change immediately and undoes it if the
// remote effect fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Mutation describes one optimistic change. Apply and Restore touch only local
// state and must not block; Remote is the network round-trip and may run on
// another goroutine.
type Mutation struct {
	// Action names the change for notifications, e.g. "delete task".
	Action  string
	Apply   func()
	Remote  func(ctx context.Context) error
	Restore func()
	// Commit runs once after a successful remote effect.
	Commit func()
	// Reload asks the owner to re-fetch after a successful remote effect.
	Reload bool
}

// Error is returned by Settle when the remote effect failed and the local
// change was rolled back.
type Error struct {
	Action string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Action, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errNoRemote = errors.New("optimistic: mutation has no remote effect")

// Pending is a mutation that has been applied locally and not yet settled.
type Pending struct {
	m       Mutation
	once    sync.Once
	done    atomic.Bool
	settled error
}

// Begin applies m locally.
func Begin(m Mutation) *Pending {
	if m.Apply != nil {
		m.Apply()
	}
	return &Pending{m: m}
}

func (p *Pending) Action() string { return p.m.Action }

// Remote runs the remote effect. It does not touch local state.
func (p *Pending) Remote(ctx context.Context) error {
	if p.m.Remote == nil {
		return errNoRemote
	}
	return p.m.Remote(ctx)
}

// Settle commits or rolls back. Only the first call has any effect; later
// calls return the first outcome.
func (p *Pending) Settle(err error) error {
	p.once.Do(func() {
		defer p.done.Store(true)
		if err == nil {
			if p.m.Commit != nil {
				p.m.Commit()
			}
			return
		}
		if p.m.Restore != nil {
			p.m.Restore()
		}
		p.settled = &Error{Action: p.m.Action, Err: err}
	})
	return p.settled
}

// Settled reports whether Settle has run.
func (p *Pending) Settled() bool {
	return p.done.Load()
}

// NeedsReload reports whether the owner should re-fetch after settling.
func (p *Pending) NeedsReload() bool {
	return p.m.Reload && p.settled == nil
}

// Run is Begin, Remote and Settle for synchronous callers.
func Run(ctx context.Context, m Mutation) (*Pending, error) {
	p := Begin(m)
	return p, p.Settle(p.Remote(ctx))
}
