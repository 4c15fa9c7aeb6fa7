package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/jbell/webbridge/internal/protocol"
)

// Stream adapts a byte stream (socket, pipe) into a Transport using the
// protocol package's newline-delimited JSON framing.
type Stream struct {
	rwc io.ReadWriteCloser

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[uint64]func(protocol.Message)
	nextID uint64
	closed bool
}

// NewStream wraps rwc and starts the read loop. The loop exits on the first
// read or decode error; Close tears the stream down.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	s := &Stream{
		rwc:  rwc,
		subs: make(map[uint64]func(protocol.Message)),
	}
	go s.readLoop()
	return s
}

func (s *Stream) Post(ctx context.Context, msg protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return protocol.Write(s.rwc, msg)
}

func (s *Stream) Subscribe(fn func(protocol.Message)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.rwc.Close()
}

func (s *Stream) readLoop() {
	br := bufio.NewReader(s.rwc)
	for {
		msg, err := protocol.Read(br)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			// Malformed frame: the stream is unrecoverable past this point.
			_ = s.Close()
			return
		}
		for _, fn := range s.subscribers() {
			fn(msg)
		}
	}
}

func (s *Stream) subscribers() []func(protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(protocol.Message), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
