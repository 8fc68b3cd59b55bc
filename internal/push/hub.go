package push

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/station"
	"github.com/neonwave/radioboard/internal/store"
)

// Options tune the hub's snapshot windows and per-session buffering.
type Options struct {
	ChatLimit     int
	CommentLimit  int
	SessionBuffer int
}

func (o *Options) defaults() {
	if o.ChatLimit <= 0 {
		o.ChatLimit = 50
	}
	if o.CommentLimit <= 0 {
		o.CommentLimit = 50
	}
	if o.SessionBuffer <= 0 {
		o.SessionBuffer = 64
	}
}

// Hub is the subscription registry and broadcast router in one: it tracks
// live sessions, seeds new ones with a full snapshot, and fans published
// frames out to everyone still connected.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store store.Store
	opts  Options
	log   *zap.Logger
}

func NewHub(st store.Store, opts Options, log *zap.Logger) *Hub {
	opts.defaults()
	return &Hub{
		sessions: make(map[string]*Session),
		store:    st,
		opts:     opts,
		log:      log,
	}
}

// Admit creates a session, queues its snapshot frames, and adds it to the
// active set. Snapshot and admission happen under the write lock, so no
// publish can slip a frame in ahead of the snapshot.
func (h *Hub) Admit(ctx context.Context) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	frames, err := h.snapshotFrames(ctx)
	if err != nil {
		return nil, err
	}

	s := newSession(h.opts.SessionBuffer)
	for _, frame := range frames {
		if err := s.enqueue(frame); err != nil {
			// Only possible if the buffer is smaller than the snapshot.
			s.close()
			return nil, fmt.Errorf("snapshot enqueue: %w", err)
		}
	}
	h.sessions[s.ID] = s

	h.log.Info("session admitted",
		zap.String("session_id", s.ID),
		zap.Int("active_sessions", len(h.sessions)),
	)
	return s, nil
}

// snapshotFrames reads the four resources as independent reads; each is
// re-synced by subsequent broadcasts, so no cross-resource transaction is
// needed.
func (h *Hub) snapshotFrames(ctx context.Context) ([][]byte, error) {
	state, err := h.store.RadioState(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := h.store.Queue(ctx)
	if err != nil {
		return nil, err
	}
	chat, err := h.store.ChatMessages(ctx, h.opts.ChatLimit)
	if err != nil {
		return nil, err
	}
	comments, err := h.store.Comments(ctx, h.opts.CommentLimit)
	if err != nil {
		return nil, err
	}

	// Chat is stored newest-first but read oldest-first in the panel.
	reverseChat(chat)

	frames := make([][]byte, 0, 4)
	for _, part := range []struct {
		kind    string
		payload any
	}{
		{protocol.KindRadioState, state},
		{protocol.KindQueueUpdate, queue},
		{protocol.KindChatMessage, chat},
		{protocol.KindComments, comments},
	} {
		frame, err := protocol.Encode(part.kind, part.payload)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func reverseChat(msgs []station.ChatMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// Revoke removes a session from the active set and closes it. Revoking an
// already-absent session is a no-op.
func (h *Hub) Revoke(s *Session) {
	h.mu.Lock()
	_, present := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	remaining := len(h.sessions)
	h.mu.Unlock()

	s.close()
	if present {
		h.log.Info("session revoked",
			zap.String("session_id", s.ID),
			zap.Int("active_sessions", remaining),
		)
	}
}

// Publish serializes one frame and enqueues it to every live session.
// Delivery is isolated per session: a full or closed session is revoked and
// the rest still receive the frame. Callers that need same-resource ordering
// hold their resource lock across the store write and this call.
func (h *Hub) Publish(kind string, payload any) {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		h.log.Error("publish encode failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	var stale []*Session
	h.mu.RLock()
	for _, s := range h.sessions {
		if err := s.enqueue(frame); err != nil {
			stale = append(stale, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range stale {
		h.log.Warn("dropping slow session",
			zap.String("session_id", s.ID),
			zap.String("kind", kind),
		)
		h.Revoke(s)
	}
}

// ActiveSessions reports current registry membership.
func (h *Hub) ActiveSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
