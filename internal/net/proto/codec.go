package proto

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"motion-arena/server/internal/channel"
)

// Envelope is the frame exchanged with websocket clients.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	ClientID  string          `json:"clientId,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// FromMessage frames a channel message for a client.
func FromMessage(msg channel.Message) Envelope {
	env := Envelope{
		ID:       msg.ID,
		Name:     msg.Name,
		ClientID: msg.ClientID,
		Data:     msg.Data,
	}
	if !msg.Timestamp.IsZero() {
		env.Timestamp = msg.Timestamp.UnixMilli()
	}
	return env
}

// Message converts a client frame into a channel message. The timestamp is
// left for the broker to stamp.
func (e Envelope) Message(channelName string) channel.Message {
	return channel.Message{
		ID:       e.ID,
		Channel:  channelName,
		Name:     e.Name,
		ClientID: e.ClientID,
		Data:     e.Data,
	}
}

// Codec encodes envelopes for one websocket flavour.
type Codec interface {
	Name() string
	Binary() bool
	Encode(Envelope) ([]byte, error)
	Decode([]byte) (Envelope, error)
}

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// CodecByName returns the codec for name; empty selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (JSONCodec) Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// MsgpackCodec carries the payload as a native msgpack value rather than
// embedded JSON text.
type MsgpackCodec struct{}

type msgpackEnvelope struct {
	ID        string `msgpack:"id,omitempty"`
	Name      string `msgpack:"name"`
	ClientID  string `msgpack:"clientId,omitempty"`
	Timestamp int64  `msgpack:"timestamp,omitempty"`
	Data      any    `msgpack:"data,omitempty"`
}

func (MsgpackCodec) Name() string { return CodecMsgpack }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(env Envelope) ([]byte, error) {
	frame := msgpackEnvelope{
		ID:        env.ID,
		Name:      env.Name,
		ClientID:  env.ClientID,
		Timestamp: env.Timestamp,
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &frame.Data); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return msgpack.Marshal(frame)
}

func (MsgpackCodec) Decode(data []byte) (Envelope, error) {
	var frame msgpackEnvelope
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		ID:        frame.ID,
		Name:      frame.Name,
		ClientID:  frame.ClientID,
		Timestamp: frame.Timestamp,
	}
	if frame.Data != nil {
		payload, err := json.Marshal(frame.Data)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode payload: %w", err)
		}
		env.Data = payload
	}
	return env, nil
}
