// Package gateway is the single entry point for station mutations. Every
// write, whether it arrives over REST, the push channel, or the IRC relay,
// is validated here, applied through the store, and then broadcast.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/logutil"
	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/station"
	"github.com/neonwave/radioboard/internal/store"
)

// BotName is the username bot-originated chat messages carry.
const BotName = "radioBot"

// Broadcaster pushes a tagged frame to every connected session. Implemented
// by push.Hub.
type Broadcaster interface {
	Publish(kind string, payload any)
}

// Options mirror the hub's retrieval windows so snapshots and broadcasts
// show the same slices of history.
type Options struct {
	ChatLimit    int
	CommentLimit int
}

func (o *Options) defaults() {
	if o.ChatLimit <= 0 {
		o.ChatLimit = 50
	}
	if o.CommentLimit <= 0 {
		o.CommentLimit = 50
	}
}

// Service applies mutations and fans out the results.
//
// Each resource kind has its own mutex held across "apply, then broadcast",
// so two mutations of the same resource can never have their broadcasts
// reordered relative to their applies. Unrelated resources never share a
// lock.
type Service struct {
	store store.Store
	bus   Broadcaster
	opts  Options
	log   *zap.Logger

	queueMu    sync.Mutex
	chatMu     sync.Mutex
	commentsMu sync.Mutex
	stateMu    sync.Mutex
	settingsMu sync.Mutex
}

func NewService(st store.Store, bus Broadcaster, opts Options, log *zap.Logger) *Service {
	opts.defaults()
	return &Service{store: st, bus: bus, opts: opts, log: log}
}

// --- read passthroughs -------------------------------------------------

func (s *Service) Tracks(ctx context.Context) ([]station.Track, error) {
	return s.store.Tracks(ctx)
}

func (s *Service) SearchTracks(ctx context.Context, query string) ([]station.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, station.Invalid("q", "search query is required")
	}
	return s.store.SearchTracks(ctx, query)
}

func (s *Service) CreateTrack(ctx context.Context, in station.NewTrack) (station.Track, error) {
	v := &station.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(in.Title) == "" {
		v.Fields["title"] = "required"
	}
	if strings.TrimSpace(in.Artist) == "" {
		v.Fields["artist"] = "required"
	}
	if strings.TrimSpace(in.Duration) == "" {
		v.Fields["duration"] = "required"
	}
	if len(v.Fields) > 0 {
		return station.Track{}, v
	}
	return s.store.CreateTrack(ctx, in)
}

func (s *Service) Queue(ctx context.Context) ([]station.QueueEntry, error) {
	return s.store.Queue(ctx)
}

func (s *Service) ChatMessages(ctx context.Context) ([]station.ChatMessage, error) {
	return s.store.ChatMessages(ctx, s.opts.ChatLimit)
}

func (s *Service) Comments(ctx context.Context) ([]station.Comment, error) {
	return s.store.Comments(ctx, s.opts.CommentLimit)
}

func (s *Service) RadioState(ctx context.Context) (station.RadioState, error) {
	return s.store.RadioState(ctx)
}

// --- queue mutations ---------------------------------------------------

// Enqueue appends a queue entry for trackID. A trackID that does not resolve
// is a validation failure, not a not-found: the queue schema requires a
// resolvable reference.
func (s *Service) Enqueue(ctx context.Context, trackID int64, requestedBy *string) (station.QueueItem, error) {
	if _, err := s.store.Track(ctx, trackID); err != nil {
		if errors.Is(err, station.ErrNotFound) {
			return station.QueueItem{}, station.Invalid("trackId",
				fmt.Sprintf("track %d does not exist", trackID))
		}
		return station.QueueItem{}, err
	}

	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	item, err := s.store.AddToQueue(ctx, trackID, requestedBy)
	if err != nil {
		return station.QueueItem{}, err
	}
	if err := s.publishQueue(ctx); err != nil {
		return station.QueueItem{}, err
	}
	s.log.Info("track enqueued", logutil.Values(
		zap.Int64("queue_item_id", item.ID),
		zap.Int64("track_id", trackID),
	))
	return item, nil
}

// Dequeue removes one entry. An absent id is a successful no-op.
func (s *Service) Dequeue(ctx context.Context, id int64) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if err := s.store.RemoveFromQueue(ctx, id); err != nil {
		return err
	}
	return s.publishQueue(ctx)
}

func (s *Service) ClearQueue(ctx context.Context) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if err := s.store.ClearQueue(ctx); err != nil {
		return err
	}
	return s.publishQueue(ctx)
}

// publishQueue re-reads the resolved queue and broadcasts the whole
// collection. Callers hold queueMu.
func (s *Service) publishQueue(ctx context.Context) error {
	queue, err := s.store.Queue(ctx)
	if err != nil {
		return err
	}
	s.bus.Publish(protocol.KindQueueUpdate, queue)
	return nil
}

// --- chat --------------------------------------------------------------

func (s *Service) PostChat(ctx context.Context, username, message string, isBot bool) (station.ChatMessage, error) {
	v := &station.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(username) == "" {
		v.Fields["username"] = "required"
	}
	if strings.TrimSpace(message) == "" {
		v.Fields["message"] = "required"
	}
	if len(v.Fields) > 0 {
		return station.ChatMessage{}, v
	}

	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	return s.postChatLocked(ctx, username, message, isBot)
}

func (s *Service) postChatLocked(ctx context.Context, username, message string, isBot bool) (station.ChatMessage, error) {
	msg, err := s.store.AddChatMessage(ctx, username, message, isBot)
	if err != nil {
		return station.ChatMessage{}, err
	}
	s.bus.Publish(protocol.KindChatMessage, msg)
	return msg, nil
}

// --- comments ----------------------------------------------------------

func (s *Service) PostComment(ctx context.Context, author, content string) (station.Comment, error) {
	v := &station.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(author) == "" {
		v.Fields["author"] = "required"
	}
	if strings.TrimSpace(content) == "" {
		v.Fields["content"] = "required"
	}
	if len(v.Fields) > 0 {
		return station.Comment{}, v
	}

	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	c, err := s.store.AddComment(ctx, author, content)
	if err != nil {
		return station.Comment{}, err
	}
	if err := s.publishComments(ctx); err != nil {
		return station.Comment{}, err
	}
	return c, nil
}

// LikeComment increments atomically; an absent id is a no-op.
func (s *Service) LikeComment(ctx context.Context, id int64) error {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	if err := s.store.LikeComment(ctx, id); err != nil {
		return err
	}
	return s.publishComments(ctx)
}

func (s *Service) publishComments(ctx context.Context) error {
	comments, err := s.store.Comments(ctx, s.opts.CommentLimit)
	if err != nil {
		return err
	}
	s.bus.Publish(protocol.KindComments, comments)
	return nil
}

// --- playback state ----------------------------------------------------

func (s *Service) UpdateRadioState(ctx context.Context, patch station.RadioStatePatch) (station.RadioState, error) {
	if patch.Volume != nil && (*patch.Volume < 0 || *patch.Volume > 100) {
		return station.RadioState{}, station.Invalid("volume", "must be between 0 and 100")
	}
	if patch.CurrentTrackID != nil {
		if _, err := s.store.Track(ctx, *patch.CurrentTrackID); err != nil {
			if errors.Is(err, station.ErrNotFound) {
				return station.RadioState{}, station.Invalid("currentTrackId",
					fmt.Sprintf("track %d does not exist", *patch.CurrentTrackID))
			}
			return station.RadioState{}, err
		}
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	state, err := s.store.UpdateRadioState(ctx, patch)
	if err != nil {
		return station.RadioState{}, err
	}
	s.bus.Publish(protocol.KindRadioState, state)
	return state, nil
}

// --- station settings / users (no broadcast) ---------------------------

func (s *Service) StationSettings(ctx context.Context) (station.StationSettings, error) {
	return s.store.StationSettings(ctx)
}

func (s *Service) UpdateStationSettings(ctx context.Context, patch station.StationSettingsPatch) (station.StationSettings, error) {
	if patch.MaxBitrate != nil && *patch.MaxBitrate <= 0 {
		return station.StationSettings{}, station.Invalid("maxBitrate", "must be positive")
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.store.UpdateStationSettings(ctx, patch)
}

func (s *Service) Users(ctx context.Context) ([]station.User, error) {
	return s.store.Users(ctx)
}

func (s *Service) User(ctx context.Context, id int64) (station.User, error) {
	return s.store.User(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, in station.NewUser) (station.User, error) {
	v := &station.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(in.Username) == "" {
		v.Fields["username"] = "required"
	}
	if strings.TrimSpace(in.Email) == "" {
		v.Fields["email"] = "required"
	}
	if len(v.Fields) > 0 {
		return station.User{}, v
	}
	return s.store.CreateUser(ctx, in)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, patch station.UserPatch) (station.User, error) {
	return s.store.UpdateUser(ctx, id, patch)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}
