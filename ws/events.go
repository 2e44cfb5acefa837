package ws

import (
	"github.com/sonirico/libemit"
)

// Events raised by Conn and Client.
const (
	// EventConnect is raised with no arguments once a connection is established.
	EventConnect = "connect"
	// EventClose is raised with the close reason (an error, possibly a CloseFrame).
	EventClose = "close"
	// EventReconnect is raised after a dropped connection was replaced, with the number of
	// consecutive reconnections so far, starting at 1.
	EventReconnect = "reconnect"
	// EventMessage is raised with the Message for every data and binary frame.
	EventMessage = "message"
	EventPing    = "ping"
	EventPong    = "pong"
	// EventError is raised with errors returned by listeners of the events above.
	EventError = libemit.EventError
)

var reservedEvents = map[string]struct{}{
	EventConnect:                {},
	EventClose:                  {},
	EventReconnect:              {},
	EventMessage:                {},
	EventPing:                   {},
	EventPong:                   {},
	EventError:                  {},
	libemit.EventNewListener:    {},
	libemit.EventRemoveListener: {},
}

func isReserved(event string) bool {
	_, ok := reservedEvents[event]
	return ok
}

// raise emits event and reports listener failures through "error". An "error" event nobody
// listens to only reaches the log.
func raise(emitter *libemit.Emitter, logger libemit.Logger, event any, args ...any) {
	_, err := emitter.Emit(event, args...)
	if err == nil {
		return
	}
	if event == EventError {
		logger.Errorf("unhandled error event: %s", err)
		return
	}
	logger.Errorf("listener of %v failed: %s", event, err)
	if _, err := emitter.Emit(EventError, err); err != nil {
		logger.Errorf("unhandled error event: %s", err)
	}
}
