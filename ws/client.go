package ws

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"

	"github.com/sonirico/libemit"
)

type (
	BackoffCalculator func(attempts int) time.Duration

	ClientOption func(*Client)

	// Client keeps a websocket connection open, redialing with backoff whenever it drops.
	// Listeners are registered on the embedded Emitter and survive reconnections: every
	// connection raises its events on the same emitter. On top of the Conn events the client
	// raises "reconnect" once a replacement connection is open, with the number of consecutive
	// reconnections (1 for the first one after a healthy connection).
	Client struct {
		*libemit.Emitter

		logger   libemit.Logger
		dialer   *websocket.Dialer
		params   openConnectionParamsRepo
		connOpts []ConnOption
		router   Router

		backoff      BackoffCalculator
		retryDelay   time.Duration
		healthyAfter time.Duration

		mu   sync.RWMutex
		conn *Conn

		closeC    CloseChan
		closeOnce sync.Once
	}
)

// WithEmitter makes the client raise its events on e instead of a private emitter.
func WithEmitter(e *libemit.Emitter) ClientOption {
	return func(c *Client) { c.Emitter = e }
}

func WithClientLogger(l libemit.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithBackoff sets the wait before redialing after a connection dropped.
func WithBackoff(fn BackoffCalculator) ClientOption {
	return func(c *Client) { c.backoff = fn }
}

// WithRetryDelay sets the wait between dials that failed with ErrCannotConnect.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.retryDelay = d }
}

// WithHealthyThreshold sets how long a connection must live for the reconnect counter to reset.
func WithHealthyThreshold(d time.Duration) ClientOption {
	return func(c *Client) { c.healthyAfter = d }
}

// WithConnOptions applies opts to every connection the client opens.
func WithConnOptions(opts ...ConnOption) ClientOption {
	return func(c *Client) { c.connOpts = append(c.connOpts, opts...) }
}

// WithClientRouter routes inbound frames, see Router, and shapes SendEvent frames.
func WithClientRouter(r Router) ClientOption {
	return func(c *Client) { c.router = r }
}

func NewClient(
	dialer *websocket.Dialer,
	params openConnectionParamsRepo,
	opts ...ClientOption,
) *Client {
	c := &Client{
		logger:       libemit.DefaultLogger(),
		dialer:       dialer,
		params:       params,
		backoff:      ExponentialBackoffSeconds,
		retryDelay:   time.Second,
		healthyAfter: time.Minute,
		closeC:       make(CloseChan),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("type", "ws_client")
	if c.Emitter == nil {
		c.Emitter = libemit.New(libemit.WithLogger(c.logger))
	}
	return c
}

// Open dials the first connection, retrying until it succeeds or ctx is done, then keeps it
// alive in the background until Close or ctx cancellation.
func (c *Client) Open(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.setConn(conn)

	go c.run(ctx, conn)
	return nil
}

// Send writes m on the current connection.
func (c *Client) Send(m Message) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrConnectionClosed
	}
	return conn.Send(m)
}

// SendEvent sends a data frame built with Router.Envelope.
func (c *Client) SendEvent(event string, payload any) error {
	data, err := c.router.Envelope(event, payload)
	if err != nil {
		return err
	}
	return c.Send(NewDataMessage(data))
}

// SendJSON sends v marshalled as a data frame.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "cannot marshal message")
	}
	return c.Send(NewDataMessage(data))
}

// Close stops reconnecting and closes the current connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeC)
	})

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil {
		conn.Close()
	}
}

// CloseChan is closed by Close.
func (c *Client) CloseChan() CloseChan {
	return c.closeC
}

func (c *Client) setConn(conn *Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) newConn() *Conn {
	opts := append([]ConnOption{WithConnLogger(c.logger), WithRouter(c.router)}, c.connOpts...)
	return NewConn(c.Emitter, c.dialer, c.params, opts...)
}

func (c *Client) dial(ctx context.Context) (*Conn, error) {
	attempts := 0
	for {
		attempts++
		conn := c.newConn()
		err := conn.Open(ctx)
		if err == nil {
			return conn, nil
		}

		wait := c.backoff(attempts)
		if errors.Is(err, ErrCannotConnect) {
			wait = c.retryDelay
		}
		c.logger.Infof("cannot connect due to %s, retrying in %s", err, wait)
		if !c.sleep(ctx, wait) {
			return nil, errors.Wrap(ErrTerminated, err.Error())
		}
	}
}

func (c *Client) run(ctx context.Context, conn *Conn) {
	var (
		attempts = 0
		then     = time.Now()
	)

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-c.closeC:
			conn.Close()
			return
		case <-conn.CloseChan():
			reason := conn.CloseErr()
			if time.Since(then) > c.healthyAfter {
				attempts = 0
			}

			wait := c.backoff(attempts)
			c.logger.Infof("retrying to connect after %s due to %s", wait, reason)
			if !c.sleep(ctx, wait) {
				return
			}

			next, err := c.dial(ctx)
			if err != nil {
				return
			}
			c.setConn(next)
			conn = next
			then = time.Now()
			attempts++

			raise(c.Emitter, c.logger, EventReconnect, attempts)
		}
	}
}

// sleep waits for d and reports false when the client was closed or ctx is done meanwhile.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.closeC:
		return false
	}
}

func ExponentialBackoff(attempts int) float64 {
	return (math.Pow(2.0, float64(attempts)) - 1) / 2
}

func ExponentialBackoffSeconds(attempts int) time.Duration {
	return time.Duration(ExponentialBackoff(attempts) * float64(time.Second))
}
