package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/gateway"
	"github.com/neonwave/radioboard/internal/logutil"
	"github.com/neonwave/radioboard/internal/station"
)

// Handlers holds shared resources injected from app.Server.
type Handlers struct {
	Service *gateway.Service
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the station error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *station.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Fields})
	case errors.Is(err, station.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, station.ErrStoreUnavailable):
		logutil.FromContext(r.Context()).Error("store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "store unavailable"})
	default:
		logutil.FromContext(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, station.Invalid("id", "must be an integer")
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return station.Invalid("body", "invalid JSON")
	}
	return nil
}

// --- tracks ------------------------------------------------------------

func (h *Handlers) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Service.Tracks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *Handlers) SearchTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.Service.SearchTracks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *Handlers) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var in station.NewTrack
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.Service.CreateTrack(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// --- queue -------------------------------------------------------------

func (h *Handlers) GetQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.Service.Queue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func (h *Handlers) AddToQueue(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TrackID     int64   `json:"trackId"`
		RequestedBy *string `json:"requestedBy"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.Service.Enqueue(r.Context(), in.TrackID, in.RequestedBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) RemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Dequeue(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) ClearQueue(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearQueue(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- chat / comments ---------------------------------------------------

func (h *Handlers) GetChat(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.ChatMessages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Service.Comments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handlers) PostComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.Service.PostComment(r.Context(), in.Author, in.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *Handlers) LikeComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.LikeComment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- radio state -------------------------------------------------------

func (h *Handlers) GetRadioState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.RadioState(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) UpdateRadioState(w http.ResponseWriter, r *http.Request) {
	var patch station.RadioStatePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.Service.UpdateRadioState(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// --- IRC relay ---------------------------------------------------------

// IRCRequest is the entry point the IRC bridge calls for ".request" commands.
// A miss is a normal response, not an HTTP error, so the bridge can relay the
// bot's reply without special-casing statuses.
func (h *Handlers) IRCRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Query    string `json:"query"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	track, err := h.Service.RelayRequest(r.Context(), in.Username, in.Query)
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "No tracks found"})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "track": track})
}

// --- settings ----------------------------------------------------------

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.StationSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch station.StationSettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := h.Service.UpdateStationSettings(r.Context(), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// --- users -------------------------------------------------------------

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in station.NewUser
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch station.UserPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
