// Package channel defines the publish/subscribe contract the host consumes
// and an in-process broker implementing it.
//
// Delivery is at-least-once: subscribers must tolerate duplicated and
// reordered messages. Message timestamps are stamped by the broker and are
// the authoritative event time.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrClosed is returned when publishing on a closed channel.
var ErrClosed = errors.New("channel: closed")

// Message is a single event delivered on a channel.
type Message struct {
	ID        string          `json:"id" msgpack:"id"`
	Channel   string          `json:"channel" msgpack:"channel"`
	Name      string          `json:"name" msgpack:"name"`
	ClientID  string          `json:"clientId,omitempty" msgpack:"clientId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp" msgpack:"timestamp"`
}

// Decode unmarshals the message payload into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return errors.New("channel: empty payload")
	}
	return json.Unmarshal(m.Data, v)
}

// Handler receives delivered messages.
type Handler func(Message)

// State is the connection status of a channel client.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateClosed       State = "closed"
)

// Channel is the pub/sub primitive the host depends on.
type Channel interface {
	// Publish delivers msg to subscribers of msg.Channel. The returned message
	// carries the assigned id and server timestamp.
	Publish(ctx context.Context, msg Message) (Message, error)
	// Subscribe registers h for events named name on channel. An empty name
	// receives every event on the channel.
	Subscribe(channel, name string, h Handler) (unsubscribe func())
	// OnStateChange registers a connection status listener.
	OnStateChange(fn func(State)) (remove func())
}

// PublishJSON marshals payload and publishes it as name on channel.
func PublishJSON(ctx context.Context, ch Channel, channel, name string, payload any) (Message, error) {
	if ch == nil {
		return Message{}, ErrClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return ch.Publish(ctx, Message{Channel: channel, Name: name, Data: data})
}
