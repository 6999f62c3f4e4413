// Package relay re-publishes decoded telemetry to WebSocket subscribers,
// so map displays and logging consoles on the shore network can follow the
// link without touching the multicast groups.
package relay

// Kind identifies what a relay message carries.
type Kind string

const (
	KindStatus   Kind = "status"
	KindContacts Kind = "contacts"
)

// Message is the JSON envelope pushed to every subscriber.
type Message struct {
	Kind   Kind   `json:"type"`
	Source uint16 `json:"source"` // originating node code
	Data   any    `json:"data"`
}
