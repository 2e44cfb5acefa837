package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterRoute(t *testing.T) {
	tests := []struct {
		name    string
		router  Router
		frame   string
		event   string
		payload string
		ok      bool
	}{
		{
			name:    "event and data",
			router:  Router{EventPath: "type", DataPath: "data"},
			frame:   `{"type":"trade","data":{"px":1}}`,
			event:   "trade",
			payload: `{"px":1}`,
			ok:      true,
		},
		{
			name:    "nested paths",
			router:  Router{EventPath: "meta.channel", DataPath: "body.items"},
			frame:   `{"meta":{"channel":"book"},"body":{"items":[1,2]}}`,
			event:   "book",
			payload: `[1,2]`,
			ok:      true,
		},
		{
			name:    "whole frame as payload",
			router:  Router{EventPath: "type"},
			frame:   `{"type":"tick","v":1}`,
			event:   "tick",
			payload: `{"type":"tick","v":1}`,
			ok:      true,
		},
		{
			name:   "missing data",
			router: Router{EventPath: "type", DataPath: "data"},
			frame:  `{"type":"tick"}`,
			event:  "tick",
			ok:     true,
		},
		{name: "routing off", router: Router{}, frame: `{"type":"tick"}`},
		{name: "not json", router: Router{EventPath: "type"}, frame: `type=tick`},
		{name: "event not a string", router: Router{EventPath: "type"}, frame: `{"type":3}`},
		{name: "empty event", router: Router{EventPath: "type"}, frame: `{"type":""}`},
		{name: "reserved event", router: Router{EventPath: "type"}, frame: `{"type":"error"}`},
		{name: "reserved emitter event", router: Router{EventPath: "type"}, frame: `{"type":"newListener"}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			event, payload, ok := test.router.Route([]byte(test.frame))
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.event, event)
			if test.payload == "" {
				assert.Nil(t, payload)
				return
			}
			assert.JSONEq(t, test.payload, string(payload))
		})
	}
}

func TestRouterEnvelope(t *testing.T) {
	r := Router{EventPath: "op", DataPath: "args"}

	out, err := r.Envelope("subscribe", []string{"trades"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"subscribe","args":["trades"]}`, string(out))

	out, err = r.Envelope("raw", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"raw","args":{"a":1}}`, string(out))

	out, err = r.Envelope("bare", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"bare"}`, string(out))

	out, err = Router{EventPath: "meta.event"}.Envelope("nested", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{"event":"nested"},"data":1}`, string(out))

	_, err = Router{}.Envelope("x", 1)
	assert.ErrorIs(t, err, ErrNoRouter)
}

func TestRouterEnvelopeRoundTrip(t *testing.T) {
	r := Router{EventPath: "type", DataPath: "data"}
	out, err := r.Envelope("trade", map[string]float64{"px": 2.5})
	require.NoError(t, err)

	event, payload, ok := r.Route(out)
	require.True(t, ok)
	assert.Equal(t, "trade", event)
	assert.JSONEq(t, `{"px":2.5}`, string(payload))
}
