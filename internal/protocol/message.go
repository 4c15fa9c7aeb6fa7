package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reserved message types owned by the bridge protocol. Application types
// are caller-defined strings and must not use the dunder form.
const (
	TypeExtensionReady    = "__extension_ready__"
	TypeWebviewReady      = "__webview_ready__"
	TypeHandshakeComplete = "__handshake_complete__"
	TypeAcknowledge       = "__acknowledge__"
	TypeResponse          = "__response__"
	TypeTimeoutHint       = "__timeout_hint__"
)

var (
	ErrInvalidMessage  = errors.New("protocol: invalid message")
	ErrMessageTooLarge = errors.New("protocol: message too large")
)

// Message is the wire envelope exchanged between the host process and the
// webview. Field names follow the wire contract shared with the webview
// runtime, hence the camelCase JSON tags.
type Message struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Payload         any    `json:"payload,omitempty"`
	Timestamp       int64  `json:"timestamp"`
	IsResponse      bool   `json:"isResponse,omitempty"`
	ResponseToID    string `json:"responseToId,omitempty"`
	Error           string `json:"error,omitempty"`
	ExpectsResponse bool   `json:"expectsResponse,omitempty"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Type) == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	if m.IsResponse && strings.TrimSpace(m.ResponseToID) == "" {
		return fmt.Errorf("%w: response missing responseToId", ErrInvalidMessage)
	}
	return nil
}

// IsReserved reports whether typ is a protocol-owned message type. Reserved
// traffic is never acknowledged and never reaches application handlers.
func IsReserved(typ string) bool {
	return strings.HasPrefix(typ, "__") && strings.HasSuffix(typ, "__")
}

// HandshakeComplete is the __handshake_complete__ payload.
type HandshakeComplete struct {
	StateVersion uint64 `json:"stateVersion"`
}

// TimeoutHint is the __timeout_hint__ payload. Timeout is in milliseconds.
type TimeoutHint struct {
	RequestID string `json:"requestId"`
	Timeout   int64  `json:"timeout"`
}

// DecodePayload re-marshals a payload value into dst. Payloads arrive as
// map[string]any after a JSON decode while in-process senders pass structs
// directly; the round-trip accepts both shapes.
func DecodePayload(payload any, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// NowMillis returns the current wall clock in milliseconds for Timestamp.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
