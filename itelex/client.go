package itelex

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-telex/internal/pool"
	"github.com/arloliu/go-telex/internal/queue"
	"github.com/arloliu/go-telex/internal/task"
	"github.com/arloliu/go-telex/logger"
	"github.com/arloliu/go-telex/telex"
)

// ErrCloseTimeout is returned by Close when background tasks do not finish in time.
var ErrCloseTimeout = errors.New("itelex: close timeout")

// Client is an outgoing i-Telex connection implementing telex.Device.
//
// Read and Write are meant to be called from a single poll loop; they never
// block. Connect and query work runs in background tasks.
type Client struct {
	cfg     *ClientConfig
	logger  logger.Logger
	tasks   *task.Manager
	state   AtomicConnState
	metrics ClientMetrics
	closed  atomic.Bool

	rx queue.Queue[string] // session -> poll loop
	tx queue.Queue[string] // poll loop -> session
}

var _ telex.Device = (*Client)(nil)

// NewClient creates an idle client.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg, err := NewClientConfig(opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		logger: cfg.logger.With("device", "itelex"),
		rx:     queue.NewLockFreeQueue[string](),
		tx:     queue.NewLockFreeQueue[string](),
	}
	c.tasks = task.NewManager(context.Background(), c.logger)

	return c, nil
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return c.state.Get()
}

// Metrics returns the metrics of the client.
func (c *Client) Metrics() *ClientMetrics {
	return &c.metrics
}

// Read returns the next token received from the remote station.
func (c *Client) Read() (string, bool) {
	return c.rx.Dequeue()
}

// Write handles a control token or queues a character for transmission.
//
// Characters are only queued while connected and never when they originate
// from an i-Telex device, which would loop them back to the network.
func (c *Client) Write(token string, source string) {
	if telex.IsCommand(token) {
		cmd, arg := telex.ParseCommand(token)
		switch cmd {
		case telex.CommandHangUp:
			c.hangUp()
		case telex.CommandDial:
			c.dial(arg)
		case telex.CommandQuery:
			c.query(arg)
		}

		return
	}

	if source == telex.SourceITelexClient || source == telex.SourceITelexServer {
		return
	}

	if !c.state.IsConnected() {
		return
	}

	c.tx.Enqueue(token)
}

// Idle is a no-op; the session runs in its own task.
func (c *Client) Idle() {}

// Idle20Hz is a no-op.
func (c *Client) Idle20Hz() {}

// Close hangs up and waits for every background task to finish, at most timeout.
// Dials and queries written after Close are rejected.
func (c *Client) Close(timeout time.Duration) error {
	c.closed.Store(true)
	c.hangUp()
	c.tasks.Stop()

	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(done)
	}()

	timer := pool.GetTimer(timeout)
	defer pool.PutTimer(timer)

	select {
	case <-done:
		return nil
	case <-timer.C:
		c.logger.Warn("close timeout", "pending_tasks", c.tasks.Count())
		return ErrCloseTimeout
	}
}

func (c *Client) hangUp() {
	c.tx.Reset()
	if c.state.ToEnding() {
		c.logger.Debug("hang-up requested")
	}
}

func (c *Client) dial(number string) {
	if number == "" {
		c.logger.Warn("dial without number ignored")
		return
	}

	if c.closed.Load() {
		c.metrics.incDialRejectCount()
		c.logger.Warn("dial rejected, client closed", "number", number)

		return
	}

	if !c.state.ToDialing() {
		c.metrics.incDialRejectCount()
		c.logger.Warn("dial rejected, client busy", "number", number, "state", c.state.String())

		return
	}
	c.metrics.incDialCount()

	s := newSession(c, number)
	if err := c.tasks.Go("connect", s.run, s.finish); err != nil {
		c.logger.Error("failed to start connect task", "number", number, "error", err)
		c.state.ToIdle()
	}
}

func (c *Client) query(number string) {
	if number == "" || c.closed.Load() {
		return
	}

	err := c.tasks.Go("query", func(ctx context.Context) error {
		entry, ok := c.cfg.resolver.Resolve(ctx, number)
		if !ok {
			entry = nil
			c.logger.Info("query: number not found", "number", number)
		} else {
			c.logger.Info("query: number found", "number", number,
				"name", entry.Name, "addr", entry.Addr(), "mode", entry.Mode.String(), "extension", entry.Extension)
		}

		if c.cfg.queryHandler != nil {
			c.cfg.queryHandler(number, entry)
		}

		return nil
	}, nil)
	if err != nil {
		c.logger.Error("failed to start query task", "number", number, "error", err)
	}
}
