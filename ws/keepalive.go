package ws

import (
	"time"
)

type KeepAliveMessageFactory func() Message

// WithKeepAlive makes the connection send factory() every interval while it is open.
func WithKeepAlive(interval time.Duration, factory KeepAliveMessageFactory) ConnOption {
	return func(c *Conn) {
		c.keepAliveInterval = interval
		c.keepAliveMessage = factory
	}
}

// WithPongReply answers every ping from the peer with a pong carrying the same payload.
func WithPongReply() ConnOption {
	return func(c *Conn) { c.replyPings = true }
}

// NewKeepAliveMessageFactory builds messages of type mt with content from contentFactory.
func NewKeepAliveMessageFactory(
	mt MessageType,
	contentFactory func() []byte,
) KeepAliveMessageFactory {
	return func() Message {
		return NewMessage(mt, contentFactory())
	}
}

// PingKeepAlive sends empty ping frames.
func PingKeepAlive() Message {
	return NewPingMessage(nil)
}
