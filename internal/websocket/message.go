package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// Actions understood by the feed.
const (
	ActionPing  = "ping"
	ActionPong  = "pong"
	ActionError = "error"
)

// NewErrorMessage creates a JSON-encoded error message.
func NewErrorMessage(message string) []byte {
	b, _ := json.Marshal(Message{Action: ActionError, Payload: map[string]string{"message": message}})
	return b
}

// NewPongMessage creates a JSON-encoded reply to a client ping.
func NewPongMessage() []byte {
	b, _ := json.Marshal(Message{Action: ActionPong})
	return b
}
