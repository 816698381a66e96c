package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tickerdash/internal/market/memorystore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is one established transport connection yielding raw frames.
type Conn interface {
	// Read blocks until the next frame arrives or the connection fails.
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Source dials a price feed transport.
type Source interface {
	Name() string
	Dial(ctx context.Context) (Conn, error)
}

// Decoder turns one raw frame into zero or more update events.
// It may return events together with an error describing discarded parts.
type Decoder func(msg []byte) ([]memorystore.UpdateEvent, error)

// Status is the connection state shown by the dashboard.
type Status int32

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "connecting"
	}
}

type Option func(*Client)

// WithConnectTimeout bounds each connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) { c.connectTimeout = d }
}

// WithBackoff replaces the default 1s..30s doubling backoff.
func WithBackoff(b *Backoff) Option {
	return func(c *Client) { c.backoff = b }
}

// Client owns the connection to the price feed and turns frames into events.
// Next and Run must be called from a single goroutine.
type Client struct {
	source         Source
	decode         Decoder
	logger         *zap.Logger
	connectTimeout time.Duration
	backoff        *Backoff
	sleep          func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex // guards conn, stopWatch, session
	conn      Conn
	stopWatch func() bool
	session   string

	attempts   int
	pending    []memorystore.UpdateEvent
	status     atomic.Int32
	reconnects atomic.Int64
}

func NewClient(source Source, decode Decoder, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		source:         source,
		decode:         decode,
		logger:         logger.Named("feed").With(zap.String("source", source.Name())),
		connectTimeout: 10 * time.Second,
		backoff:        NewBackoff(time.Second, 30*time.Second, 2),
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.status.Store(int32(StatusDisconnected))
	return c
}

// Connect dials the source once, bounded by the connect timeout.
// Cancelling ctx later closes the connection and unblocks a pending Next.
func (c *Client) Connect(ctx context.Context) error {
	c.attempts++
	c.status.Store(int32(StatusConnecting))

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	conn, err := c.source.Dial(dialCtx)
	cancel()
	if err != nil {
		c.status.Store(int32(StatusDisconnected))
		return &ConnectionError{Source: c.source.Name(), Attempt: c.attempts, Err: err}
	}

	session := uuid.NewString()
	c.mu.Lock()
	c.conn = conn
	c.session = session
	c.stopWatch = context.AfterFunc(ctx, func() { _ = conn.Close() })
	c.mu.Unlock()

	c.pending = nil
	c.status.Store(int32(StatusConnected))
	c.logger.Info("feed connected", zap.String("session", session), zap.Int("attempt", c.attempts))
	c.attempts = 0
	return nil
}

// Next returns the next update event. Malformed frames are logged and skipped.
// When the transport fails it returns an error wrapping ErrDisconnected;
// the caller is expected to Connect again.
func (c *Client) Next(ctx context.Context) (memorystore.UpdateEvent, error) {
	for {
		if len(c.pending) > 0 {
			ev := c.pending[0]
			c.pending = c.pending[1:]
			return ev, nil
		}
		if err := ctx.Err(); err != nil {
			return memorystore.UpdateEvent{}, err
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return memorystore.UpdateEvent{}, ErrNotConnected
		}

		msg, err := conn.Read(ctx)
		if err != nil {
			c.disconnect()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return memorystore.UpdateEvent{}, ctxErr
			}
			c.logger.Warn("feed read failed", zap.String("session", c.Session()), zap.Error(err))
			return memorystore.UpdateEvent{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
		}

		events, err := c.decode(msg)
		if err != nil {
			c.logger.Warn("discarding malformed message",
				zap.Error(err),
				zap.Int("bytes", len(msg)),
				zap.Int("kept", len(events)))
		}
		c.pending = events
	}
}

// Run connects, applies every event in arrival order and reconnects with
// backoff whenever the transport drops. It returns only when ctx is done.
func (c *Client) Run(ctx context.Context, apply func(memorystore.UpdateEvent)) error {
	defer c.Close()

	for {
		if err := c.connectWithBackoff(ctx); err != nil {
			return err
		}

		for {
			ev, err := c.Next(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				break
			}
			apply(ev)
		}

		c.reconnects.Add(1)
		delay := c.backoff.Next()
		c.logger.Info("reconnecting", zap.Duration("delay", delay))
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) connectWithBackoff(ctx context.Context) error {
	for {
		err := c.Connect(ctx)
		if err == nil {
			c.backoff.Reset()
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := c.backoff.Next()
		c.logger.Warn("feed connect failed", zap.Error(err), zap.Duration("retry_in", delay))
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) disconnect() {
	c.mu.Lock()
	conn, stop := c.conn, c.stopWatch
	c.conn, c.stopWatch = nil, nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.status.Store(int32(StatusDisconnected))
}

// Close closes the current connection, if any.
func (c *Client) Close() error {
	c.disconnect()
	return nil
}

func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// Reconnects counts how many times an established connection was lost.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Session is the id of the current or last connection.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
