package push

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	errSessionClosed = errors.New("session closed")
	errOutboxFull    = errors.New("session outbox full")
)

// Session is the delivery handle for one connected dashboard. It carries no
// station data, only an ordered outbox of pre-serialized frames drained by
// the connection's writer.
type Session struct {
	ID string

	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(buffer int) *Session {
	return &Session{
		ID:   uuid.NewString(),
		out:  make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Outbox yields frames in the exact order they were enqueued.
func (s *Session) Outbox() <-chan []byte { return s.out }

// Done is closed when the session is revoked.
func (s *Session) Done() <-chan struct{} { return s.done }

// enqueue never blocks: a viewer that cannot keep up is cut loose rather
// than stalling the broadcast path.
func (s *Session) enqueue(frame []byte) error {
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.out <- frame:
		return nil
	default:
		return errOutboxFull
	}
}

func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}
