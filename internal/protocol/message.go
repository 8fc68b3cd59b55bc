package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/neonwave/radioboard/internal/station"
)

// Message kinds carried on the push channel. Every frame is one JSON object
// {"type": kind, "data": payload}.
const (
	// KindRadioState carries the full playback singleton.
	KindRadioState = "radio_state"
	// KindQueueUpdate carries the whole resolved queue, never a diff.
	KindQueueUpdate = "queue_update"
	// KindChatMessage carries one message on updates, an array on snapshot.
	KindChatMessage = "chat_message"
	// KindComments carries the full comment window.
	KindComments = "comments"
	// KindTrackRequest is a transient toast payload, never persisted.
	KindTrackRequest = "track_request"
)

// Frame is the wire envelope.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode marshals one frame.
func Encode(kind string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return json.Marshal(Frame{Type: kind, Data: data})
}

// ClientMessage is the sum of frames a dashboard may send to the server.
type ClientMessage interface {
	clientMessage()
}

// ClientChat posts a chat message as the connected viewer.
type ClientChat struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ClientRadioState applies a partial playback-state update.
type ClientRadioState struct {
	Patch station.RadioStatePatch
}

func (ClientChat) clientMessage()       {}
func (ClientRadioState) clientMessage() {}

// DecodeClient parses a client frame into its typed form. Unknown kinds are
// an error so new message types fail loudly instead of being dropped.
func DecodeClient(raw []byte) (ClientMessage, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	switch f.Type {
	case KindChatMessage:
		var msg ClientChat
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode chat_message: %w", err)
		}
		return msg, nil
	case KindRadioState:
		var patch station.RadioStatePatch
		if err := json.Unmarshal(f.Data, &patch); err != nil {
			return nil, fmt.Errorf("decode radio_state: %w", err)
		}
		return ClientRadioState{Patch: patch}, nil
	default:
		return nil, fmt.Errorf("unknown client message type %q", f.Type)
	}
}
