package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/gateway"
	"github.com/neonwave/radioboard/internal/logutil"
	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/push"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler holds shared resources injected from app.Server.
type WSHandler struct {
	Service *gateway.Service
	Hub     *push.Hub
}

// HandleWS upgrades the connection, admits a session (which queues the full
// snapshot before any broadcast can reach it), and then shuttles frames both
// ways until the peer goes away.
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := logutil.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.Hub.Admit(r.Context())
	if err != nil {
		log.Error("ws admit failed", zap.Error(err))
		return
	}
	defer h.Hub.Revoke(session)

	log = log.With(zap.String("session_id", session.ID))

	// Writer: drains the session outbox in order. A write error revokes the
	// session, which in turn stops this loop via Done.
	go func() {
		for {
			select {
			case frame := <-session.Outbox():
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					log.Info("ws write failed, revoking", zap.Error(err))
					h.Hub.Revoke(session)
					return
				}
			case <-session.Done():
				conn.Close()
				return
			}
		}
	}()

	// Reader: client-originated mutations. A bad frame is reported back on
	// the log, not fatal to the connection; a read error means disconnect.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Info("ws closed", zap.Error(err))
			return
		}
		h.dispatch(raw, log)
	}
}

// dispatch applies one client frame. Mutations run on a background context:
// a viewer dropping off mid-write must not cancel an accepted mutation.
func (h *WSHandler) dispatch(raw []byte, log *zap.Logger) {
	msg, err := protocol.DecodeClient(raw)
	if err != nil {
		log.Warn("ws bad frame", zap.Error(err))
		return
	}

	ctx := context.Background()
	switch m := msg.(type) {
	case protocol.ClientChat:
		if _, err := h.Service.PostChat(ctx, m.Username, m.Message, false); err != nil {
			log.Warn("ws chat rejected", zap.Error(err))
		}
	case protocol.ClientRadioState:
		if _, err := h.Service.UpdateRadioState(ctx, m.Patch); err != nil {
			log.Warn("ws radio state rejected", zap.Error(err))
		}
	}
}
