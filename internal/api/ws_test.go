package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/station"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) protocol.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f protocol.Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal frame %q: %v", raw, err)
	}
	return f
}

func TestWSSnapshotOnConnect(t *testing.T) {
	router, mem := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx := context.Background()
	tr, _ := mem.CreateTrack(ctx, station.NewTrack{Title: "Neon Dreams", Artist: "Vex Machina", Duration: "3:42"})
	_, _ = mem.AddToQueue(ctx, tr.ID, nil)
	_, _ = mem.AddChatMessage(ctx, "vex", "hello", false)
	_, _ = mem.AddChatMessage(ctx, "nyx", "hey", false)
	_, _ = mem.AddComment(ctx, "vex", "great set")

	conn := dialWS(t, srv)

	want := []string{
		protocol.KindRadioState,
		protocol.KindQueueUpdate,
		protocol.KindChatMessage,
		protocol.KindComments,
	}
	for i, kind := range want {
		f := readFrame(t, conn)
		if f.Type != kind {
			t.Fatalf("snapshot frame %d = %q, want %q", i, f.Type, kind)
		}
		switch kind {
		case protocol.KindQueueUpdate:
			var queue []station.QueueEntry
			if err := json.Unmarshal(f.Data, &queue); err != nil || len(queue) != 1 {
				t.Errorf("queue snapshot = %s (err %v)", f.Data, err)
			}
		case protocol.KindChatMessage:
			var msgs []station.ChatMessage
			if err := json.Unmarshal(f.Data, &msgs); err != nil {
				t.Fatalf("chat snapshot: %v", err)
			}
			if len(msgs) != 2 || msgs[0].Message != "hello" {
				t.Errorf("chat snapshot not oldest first: %+v", msgs)
			}
		}
	}
}

func TestWSChatFrameFansOut(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	sender := dialWS(t, srv)
	viewer := dialWS(t, srv)
	for i := 0; i < 4; i++ {
		readFrame(t, sender)
		readFrame(t, viewer)
	}

	frame, _ := json.Marshal(map[string]any{
		"type": protocol.KindChatMessage,
		"data": map[string]string{"username": "vex", "message": "anyone listening?"},
	})
	if err := sender.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{sender, viewer} {
		f := readFrame(t, conn)
		if f.Type != protocol.KindChatMessage {
			t.Fatalf("frame type = %q", f.Type)
		}
		var msg station.ChatMessage
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			t.Fatalf("chat payload: %v", err)
		}
		if msg.Username != "vex" || msg.Message != "anyone listening?" || msg.IsBot {
			t.Errorf("chat payload = %+v", msg)
		}
	}
}

func TestWSRadioStateFrameFansOut(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	sender := dialWS(t, srv)
	viewer := dialWS(t, srv)
	for i := 0; i < 4; i++ {
		readFrame(t, sender)
		readFrame(t, viewer)
	}

	frame, _ := json.Marshal(map[string]any{
		"type": protocol.KindRadioState,
		"data": map[string]any{"isPlaying": false, "volume": 20},
	})
	if err := sender.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := readFrame(t, viewer)
	if f.Type != protocol.KindRadioState {
		t.Fatalf("frame type = %q", f.Type)
	}
	var state station.RadioState
	if err := json.Unmarshal(f.Data, &state); err != nil {
		t.Fatalf("state payload: %v", err)
	}
	if state.IsPlaying || state.Volume != 20 {
		t.Errorf("state = %+v", state)
	}
}

func TestWSBadFrameKeepsConnectionAlive(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialWS(t, srv)
	for i := 0; i < 4; i++ {
		readFrame(t, conn)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope","data":{}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The connection survives the bad frame; a valid one still round-trips.
	frame, _ := json.Marshal(map[string]any{
		"type": protocol.KindChatMessage,
		"data": map[string]string{"username": "vex", "message": "still here"},
	})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write after bad frame: %v", err)
	}
	if f := readFrame(t, conn); f.Type != protocol.KindChatMessage {
		t.Errorf("frame type = %q", f.Type)
	}
}
