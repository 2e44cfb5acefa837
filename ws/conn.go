package ws

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"

	"github.com/sonirico/libemit"
)

const writeWait = time.Second

type (
	openConnectionParamsRepo interface {
		Get(ctx context.Context) (OpenConnectionParams, error)
	}

	CloseChan chan struct{}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	ConnOption func(*Conn)

	// Conn is a single websocket connection. Everything it receives is raised on its emitter
	// from the read goroutine: data and binary frames as "message" (plus the routed event when
	// a Router is set), control frames as "ping" and "pong". It raises "connect" once open and
	// "close" with the reason once closed.
	Conn struct {
		emitter *libemit.Emitter
		logger  libemit.Logger
		dialer  *websocket.Dialer
		params  openConnectionParamsRepo
		onDial  ErrAdapter
		router  Router

		keepAliveInterval time.Duration
		keepAliveMessage  KeepAliveMessageFactory
		replyPings        bool

		conn            *websocket.Conn
		send            chan Message
		closeC          CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
	}
)

// WithConnLogger sets the logger. Defaults to libemit.DefaultLogger.
func WithConnLogger(l libemit.Logger) ConnOption {
	return func(c *Conn) { c.logger = l }
}

// WithRouter raises routed events for JSON data frames, see Router.
func WithRouter(r Router) ConnOption {
	return func(c *Conn) { c.router = r }
}

// WithDialErrorAdapter replaces the default mapping of dial failures.
func WithDialErrorAdapter(fn ErrAdapter) ConnOption {
	return func(c *Conn) { c.onDial = fn }
}

func NewConn(
	emitter *libemit.Emitter,
	dialer *websocket.Dialer,
	params openConnectionParamsRepo,
	opts ...ConnOption,
) *Conn {
	c := &Conn{
		emitter: emitter,
		logger:  libemit.DefaultLogger(),
		dialer:  dialer,
		params:  params,
		send:    make(chan Message, 32),
		closeC:  make(CloseChan),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("net", "ws_connection")
	return c
}

// Open dials and starts the read and write goroutines. It returns once the handshake is done.
func (c *Conn) Open(ctx context.Context) error {
	p, err := c.params.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "cannot get connection params")
	}

	conn, resp, err := c.dialer.DialContext(ctx, p.URL.String(), p.Header)
	if err = c.handleDialError(conn, resp, err); err != nil {
		c.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		return err
	}
	c.logger.Debugf("success opening connection to %s", p.URL.String())
	c.conn = conn

	conn.SetPingHandler(func(appData string) error {
		c.logger.Debugf("<= [PING]")
		if c.replyPings {
			err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
			if err != nil && !isTemporary(err) {
				return err
			}
		}
		raise(c.emitter, c.logger, EventPing, NewPingMessage([]byte(appData)))
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		c.logger.Debugf("<= [PONG]")
		raise(c.emitter, c.logger, EventPong, NewPongMessage([]byte(appData)))
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		c.logger.Debugf("<= [CLOSE] %d %s", code, text)
		c.setCloseReason(NewCloseFrame(code, []byte(text)))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(writeWait))
		return nil
	})

	go c.read()
	go c.write(ctx)

	raise(c.emitter, c.logger, EventConnect)
	return nil
}

// Send queues m for writing. It fails once the connection is closed.
func (c *Conn) Send(m Message) error {
	select {
	case <-c.closeC:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- m:
		return nil
	case <-c.closeC:
		return ErrConnectionClosed
	}
}

// Close terminates the connection. Safe to call more than once.
func (c *Conn) Close() {
	c.setCloseReason(ErrTerminated)
	c.safeClose()
}

// CloseChan is closed when the connection is closed.
func (c *Conn) CloseChan() CloseChan {
	return c.closeC
}

// CloseErr waits for the connection to close and tells why. It is a CloseFrame when the peer
// initiated the close.
func (c *Conn) CloseErr() error {
	<-c.closeC
	return c.closeReason
}

func (c *Conn) read() {
	defer c.safeClose()

	for {
		messageType, bts, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeC:
				c.setCloseReason(ErrTerminated)
			default:
				c.logger.Debugf("websocket read ended: %s", err)
				c.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
			}
			return
		}

		var m Message
		switch messageType {
		case websocket.BinaryMessage:
			c.logger.Debugf("<= [BIN]")
			m = NewBinaryMessage(bts)
		default:
			c.logger.Debugf("<= [DATA] %s", bts)
			m = NewDataMessage(bts)
		}

		raise(c.emitter, c.logger, EventMessage, m)
		if !m.Type().IsData() {
			continue
		}
		if event, payload, ok := c.router.Route(m.Data()); ok {
			raise(c.emitter, c.logger, event, payload, m)
		}
	}
}

func (c *Conn) write(ctx context.Context) {
	defer c.safeClose()

	var tick <-chan time.Time
	if c.keepAliveInterval > 0 && c.keepAliveMessage != nil {
		ticker := time.NewTicker(c.keepAliveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		var msg Message
		select {
		case <-c.closeC:
			c.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			c.setCloseReason(ErrTerminated)
			return
		case <-tick:
			msg = c.keepAliveMessage()
		case msg = <-c.send:
		}

		if err := c.writeMessage(msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.setCloseReason(ErrConnectionClosed)
			} else {
				c.setCloseReason(errors.Wrap(ErrConnectionClosed, err.Error()))
			}
			return
		}
	}
}

func (c *Conn) writeMessage(msg Message) error {
	deadline := time.Now().Add(writeWait)
	_ = c.conn.SetWriteDeadline(deadline)

	switch msg.Type() {
	case PingMessage:
		c.logger.Debugf("=> [PING]")
		if err := c.conn.WriteControl(websocket.PingMessage, msg.Data(), deadline); err != nil && !isTemporary(err) {
			return err
		}
		return nil
	case PongMessage:
		c.logger.Debugf("=> [PONG]")
		return c.conn.WriteControl(websocket.PongMessage, msg.Data(), deadline)
	case BinaryMessage:
		c.logger.Debugf("=> [BIN]")
		return c.conn.WriteMessage(websocket.BinaryMessage, msg.Data())
	case DataMessage:
		c.logger.Debugf("=> [DATA] %s", msg.Data())
		return c.conn.WriteMessage(websocket.TextMessage, msg.Data())
	}
	c.logger.Warnf("dropping message of type %s", msg.Type())
	return nil
}

// safeClose closes once and raises "close" outside of the once guard, so a close listener may
// call Close again.
func (c *Conn) safeClose() {
	closed := false
	c.closeOnce.Do(func() {
		c.close()
		closed = true
	})
	if closed {
		raise(c.emitter, c.logger, EventClose, c.closeReason)
	}
}

func (c *Conn) close() {
	close(c.closeC)
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = c.conn.Close()
}

func (c *Conn) setCloseReason(err error) {
	c.closeReasonOnce.Do(func() {
		c.closeReason = err
	})
}

func (c *Conn) handleDialError(conn *websocket.Conn, resp *http.Response, err error) error {
	if c.onDial != nil {
		return c.onDial(conn, resp, err)
	}

	var msg string
	if resp != nil {
		if resp.Body != nil {
			if bts, err := io.ReadAll(resp.Body); err == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}
	return nil
}

func isTemporary(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
