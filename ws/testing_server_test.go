package ws

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/require"

	"github.com/sonirico/libemit"
)

type connHandler func(conn *websocket.Conn)

// echoHandler writes every frame back until the peer goes away.
func echoHandler(conn *websocket.Conn) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

// newTestServer serves websocket upgrades with handler and returns the ws:// url.
func newTestServer(t *testing.T, handler connHandler) url.URL {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	return *u
}

func newTestParams(u url.URL) OpenConnectionParamsRepo {
	return NewOpenConnectionParamsRepo(libemit.NopLogger(), StaticParams(u))
}

func newTestEmitter() *libemit.Emitter {
	return libemit.New(libemit.WithLogger(libemit.NopLogger()), libemit.WithDefaults(libemit.NewDefaults()))
}

// capture forwards the first argument of every event to a buffered channel.
func capture(t *testing.T, e *libemit.Emitter, event any) chan any {
	t.Helper()
	ch := make(chan any, 16)
	require.NoError(t, e.On(event, libemit.NewListener(func(args ...any) error {
		var first any
		if len(args) > 0 {
			first = args[0]
		}
		select {
		case ch <- first:
		default:
		}
		return nil
	})))
	return ch
}
