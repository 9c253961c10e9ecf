// Package hub fans websocket messages out to every connected client.
// One goroutine (Run) owns the client set; clients talk to it over channels.
package hub

import "github.com/gofiber/websocket/v2"

// Kind is the websocket frame kind a message is sent as.
type Kind int

const (
	// KindText carries a JSON document (state snapshots).
	KindText Kind = iota
	// KindBinary carries raw bytes (JPEG preview frames).
	KindBinary
)

// Message is one payload queued for every client.
type Message struct {
	Kind Kind
	Data []byte
}

func (m Message) frameType() int {
	if m.Kind == KindBinary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Kind: KindText, Data: data}
}

// NewBinaryMessage wraps a binary payload.
func NewBinaryMessage(data []byte) Message {
	return Message{Kind: KindBinary, Data: data}
}
