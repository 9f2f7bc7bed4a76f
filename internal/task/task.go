// Package task manages the background goroutines owned by a device adapter.
//
// Every task started through a Manager runs under the manager's context, is
// counted, and is shielded by a panic boundary: a panicking task is logged and
// reported as an error instead of crashing the process. Stop cancels the
// context and Wait joins every task, so an adapter can drain its background
// work explicitly on teardown.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-telex/logger"
)

// ErrStopped is returned when a task is started on a stopped manager.
var ErrStopped = errors.New("task: manager already stopped")

// ErrPanic wraps a value recovered from a panicking task.
var ErrPanic = errors.New("task: panic")

// LoopFunc is called repeatedly until it returns false or the manager stops.
type LoopFunc func() bool

// Func is a one-shot task. It should return promptly once ctx is done.
type Func func(ctx context.Context) error

// DoneFunc receives the outcome of a one-shot task: the error returned by the
// task, an ErrPanic wrapped error, or nil. It runs on the task goroutine.
type DoneFunc func(err error)

// Manager manages the lifecycle of background tasks.
//
// Example Usage:
//
//	mgr := task.NewManager(ctx, logger)
//
//	_ = mgr.Go("connect", func(ctx context.Context) error {
//	    return dial(ctx)
//	}, func(err error) {
//	    // always called, even if the task panicked
//	})
//
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protect ctx and cancel
	taskMu sync.RWMutex // protect task creation during Wait()
}

// NewManager creates a new Manager with ctx as the parent context.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}
	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context tasks currently run under.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Go starts a one-shot task. done, if not nil, is always invoked with the
// task outcome once the task returns or panics.
func (mgr *Manager) Go(name string, fn Func, done DoneFunc) error {
	ctx := mgr.Context()
	if ctx.Err() != nil {
		return ErrStopped
	}

	mgr.logger.Debug("start task", "name", name)

	mgr.spawn(name, func() {
		err := mgr.callWithRecover(name, func() error { return fn(ctx) })
		if done != nil {
			done(err)
		}
	})

	return nil
}

// Start starts a looping task that runs until fn returns false or the manager stops.
func (mgr *Manager) Start(name string, fn LoopFunc) error {
	if mgr.Context().Err() != nil {
		return ErrStopped
	}

	mgr.logger.Debug("start loop task", "name", name)

	mgr.spawn(name, func() {
		_ = mgr.callWithRecover(name, func() error {
			for {
				ctx := mgr.Context()
				select {
				case <-ctx.Done():
					return nil
				default:
					if !fn() {
						return nil
					}
				}
			}
		})
	})

	return nil
}

// Stop signals all running tasks to terminate.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	if mgr.cancel != nil {
		mgr.cancel()
	}
	mgr.mu.Unlock()
}

// Wait waits for all tasks to terminate and re-arms the manager so it can
// start new tasks afterwards.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	if mgr.ctx.Err() != nil {
		mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	}
	mgr.mu.Unlock()
}

// Count returns the number of currently running tasks.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) spawn(name string, body func()) {
	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.wg.Done()
			mgr.logger.Debug(fmt.Sprintf("%s task terminated", name), "task_count", mgr.Count())
		}()

		body()
	}()
}

// callWithRecover calls fn with panic protection.
func (mgr *Manager) callWithRecover(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			err = fmt.Errorf("%w in %s: %v", ErrPanic, name, r)
		}
	}()

	return fn()
}
