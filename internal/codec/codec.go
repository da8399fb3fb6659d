// Package codec frames messages between the arena and its clients.
// JSON text frames are the default; msgpack binary frames are opt-in per connection.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"wave-arena/internal/game"
)

// ErrUnknownMessage is returned for well-formed messages the server does not handle
var ErrUnknownMessage = errors.New("unknown message type")

// Codec names accepted in the ?codec= query parameter
const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
)

// ClientMessage is the only inbound message: {type:"input", input:{left,right,up,space}}
type ClientMessage struct {
	Type  string     `json:"type" msgpack:"type"`
	Input game.Input `json:"input" msgpack:"input"`
}

// Codec encodes outbound messages and decodes inbound ones
type Codec interface {
	Name() string
	// Binary reports whether frames should be sent as binary websocket messages
	Binary() bool
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte) (ClientMessage, error)
}

// ForName returns the codec registered under name, JSON for anything unknown
func ForName(name string) Codec {
	if name == NameMsgpack {
		return Msgpack{}
	}
	return JSON{}
}

// JSON is the default text codec
type JSON struct{}

func (JSON) Name() string { return NameJSON }
func (JSON) Binary() bool { return false }

func (JSON) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("json decode: %w", err)
	}
	return validate(msg)
}

// Msgpack is the binary codec
type Msgpack struct{}

func (Msgpack) Name() string { return NameMsgpack }
func (Msgpack) Binary() bool { return true }

func (Msgpack) Encode(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

func (Msgpack) Decode(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("msgpack decode: %w", err)
	}
	return validate(msg)
}

func validate(msg ClientMessage) (ClientMessage, error) {
	if msg.Type != game.MsgInput {
		return ClientMessage{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return msg, nil
}
