package protocol

import (
	"bufio"
	"encoding/json"
	"io"
)

const maxEncodedMessage = 128 * 1024

// Write encodes msg as one newline-delimited JSON record.
func Write(w io.Writer, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// Read decodes the next newline-delimited message from r.
func Read(r *bufio.Reader) (Message, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return Message{}, err
	}
	if len(line) > maxEncodedMessage {
		return Message{}, ErrMessageTooLarge
	}
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, err
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
