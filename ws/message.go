package ws

import "fmt"

// MessageType mirrors the websocket frame opcodes.
type MessageType byte

const (
	DataMessage   MessageType = 1
	BinaryMessage MessageType = 2
	CloseMessage  MessageType = 8
	PingMessage   MessageType = 9
	PongMessage   MessageType = 10
)

func (t MessageType) Is(other MessageType) bool { return t == other }

func (t MessageType) IsData() bool { return t.Is(DataMessage) }

func (t MessageType) IsBinary() bool { return t.Is(BinaryMessage) }

func (t MessageType) IsControl() bool {
	return t.Is(PingMessage) || t.Is(PongMessage) || t.Is(CloseMessage)
}

func (t MessageType) String() string {
	switch t {
	case DataMessage:
		return "data"
	case BinaryMessage:
		return "binary"
	case CloseMessage:
		return "close"
	case PingMessage:
		return "ping"
	case PongMessage:
		return "pong"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

type Message interface {
	Type() MessageType
	Data() []byte
	String() string
}

// CloseFrame is the close frame sent by the peer. It doubles as the close reason.
type CloseFrame interface {
	Message
	Code() int
	Error() string
}

type message struct {
	kind MessageType
	data []byte
}

func (m message) Type() MessageType { return m.kind }

func (m message) Data() []byte { return m.data }

func (m message) String() string {
	return fmt.Sprintf("Message{type=%s,data=%s}", m.kind, m.data)
}

type closeFrame struct {
	message
	code int
}

func (m closeFrame) Code() int { return m.code }

func (m closeFrame) String() string {
	return fmt.Sprintf("Message{type=%s,code=%d,data=%s}", m.kind, m.code, m.data)
}

func (m closeFrame) Error() string { return m.String() }

func NewMessage(mt MessageType, data []byte) Message {
	return message{kind: mt, data: data}
}

func NewDataMessage(data []byte) Message { return NewMessage(DataMessage, data) }

func NewBinaryMessage(data []byte) Message { return NewMessage(BinaryMessage, data) }

func NewPingMessage(data []byte) Message { return NewMessage(PingMessage, data) }

func NewPongMessage(data []byte) Message { return NewMessage(PongMessage, data) }

func NewCloseFrame(code int, text []byte) CloseFrame {
	return closeFrame{message: message{kind: CloseMessage, data: text}, code: code}
}
