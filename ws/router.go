package ws

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Router maps JSON data frames to named events. A frame {"type":"trade","data":{...}} routed
// with EventPath "type" and DataPath "data" raises "trade" with the raw data object and the
// original Message.
//
// Frames naming one of the events raised by this package itself, or a reserved emitter event,
// are not routed.
type Router struct {
	// EventPath is the gjson path of the event name. Routing is off when empty.
	EventPath string
	// DataPath is the gjson path of the payload. The whole frame is the payload when empty.
	DataPath string
}

// Route extracts the event name and payload of a frame.
func (r Router) Route(data []byte) (event string, payload json.RawMessage, ok bool) {
	if r.EventPath == "" || !gjson.ValidBytes(data) {
		return "", nil, false
	}
	name := gjson.GetBytes(data, r.EventPath)
	if name.Type != gjson.String || name.Str == "" || isReserved(name.Str) {
		return "", nil, false
	}
	if r.DataPath == "" {
		return name.Str, json.RawMessage(data), true
	}
	if res := gjson.GetBytes(data, r.DataPath); res.Exists() {
		payload = json.RawMessage(res.Raw)
	}
	return name.Str, payload, true
}

// Envelope builds a frame carrying event at EventPath and payload at DataPath, or at "data"
// when DataPath is empty. A json.RawMessage payload is embedded as is; anything else is
// marshalled.
func (r Router) Envelope(event string, payload any) ([]byte, error) {
	if r.EventPath == "" {
		return nil, ErrNoRouter
	}
	out, err := sjson.SetBytes([]byte(`{}`), r.EventPath, event)
	if err != nil {
		return nil, errors.Wrap(err, "cannot set event name")
	}
	if payload == nil {
		return out, nil
	}

	dataPath := r.DataPath
	if dataPath == "" {
		dataPath = "data"
	}
	if raw, ok := payload.(json.RawMessage); ok {
		out, err = sjson.SetRawBytes(out, dataPath, raw)
	} else {
		out, err = sjson.SetBytes(out, dataPath, payload)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot set payload")
	}
	return out, nil
}
