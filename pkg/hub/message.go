// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "time"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// EventType names an assistant lifecycle event.
type EventType string

// Events published to dashboard clients.
const (
	EventListening EventType = "listening"
	EventQuestion  EventType = "question"
	EventAnswer    EventType = "answer"
	EventAction    EventType = "action"
	EventConfirm   EventType = "confirm"
	EventError     EventType = "error"
)

// Event is the JSON payload sent to dashboard clients.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Time    time.Time `json:"time"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType, message string, data any) Event {
	return Event{Type: t, Message: message, Data: data, Time: time.Now()}
}
