package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jbell/webbridge/internal/testutil/testlog"
)

func TestMessageValidate(t *testing.T) {
	testlog.Start(t)
	msg := Message{ID: "m.1", Type: "install.component", Timestamp: 1700000000000}
	if err := msg.Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := (Message{Type: "x"}).Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("missing id not rejected: %v", err)
	}
	if err := (Message{ID: "m.2"}).Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("missing type not rejected: %v", err)
	}
	resp := Message{ID: "m.3", Type: TypeResponse, IsResponse: true}
	if err := resp.Validate(); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("response without responseToId not rejected: %v", err)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	testlog.Start(t)
	msg := Message{
		ID:              "m.42",
		Type:            "auth.login",
		Payload:         map[string]any{"org": "acme"},
		Timestamp:       1700000000000,
		ExpectsResponse: true,
	}
	var buf bytes.Buffer
	if err := Write(&buf, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != msg.ID || got.Type != msg.Type || !got.ExpectsResponse {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	payload, ok := got.Payload.(map[string]any)
	if !ok || payload["org"] != "acme" {
		t.Fatalf("unexpected payload: %+v", got.Payload)
	}
}

func TestReadRejectsOversizedMessage(t *testing.T) {
	testlog.Start(t)
	line := `{"id":"m.1","type":"blob","payload":"` + strings.Repeat("x", maxEncodedMessage) + `"}` + "\n"
	_, err := Read(bufio.NewReader(strings.NewReader(line)))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("oversized line not rejected: %v", err)
	}
}

func TestIsReserved(t *testing.T) {
	testlog.Start(t)
	for _, typ := range []string{
		TypeExtensionReady, TypeWebviewReady, TypeHandshakeComplete,
		TypeAcknowledge, TypeResponse, TypeTimeoutHint,
	} {
		if !IsReserved(typ) {
			t.Fatalf("%s should be reserved", typ)
		}
	}
	if IsReserved("install.component") {
		t.Fatalf("application type flagged reserved")
	}
}

func TestDecodePayloadFromMapAndStruct(t *testing.T) {
	testlog.Start(t)
	var fromMap TimeoutHint
	if err := DecodePayload(map[string]any{"requestId": "req.1", "timeout": 120000}, &fromMap); err != nil {
		t.Fatalf("decode map payload: %v", err)
	}
	if fromMap.RequestID != "req.1" || fromMap.Timeout != 120000 {
		t.Fatalf("unexpected hint: %+v", fromMap)
	}
	var fromStruct HandshakeComplete
	if err := DecodePayload(HandshakeComplete{StateVersion: 7}, &fromStruct); err != nil {
		t.Fatalf("decode struct payload: %v", err)
	}
	if fromStruct.StateVersion != 7 {
		t.Fatalf("unexpected state version: %d", fromStruct.StateVersion)
	}
}
