package store

import (
	"context"
	"strings"

	"github.com/neonwave/radioboard/internal/station"
)

// Store owns the canonical station state. It is the sole writer of every
// persisted entity; all callers go through the mutation gateway.
//
// All writes are atomic per resource. Lookups of an absent id return
// station.ErrNotFound; connectivity failures surface as
// station.ErrStoreUnavailable.
type Store interface {
	// Tracks
	Tracks(ctx context.Context) ([]station.Track, error)
	Track(ctx context.Context, id int64) (station.Track, error)
	CreateTrack(ctx context.Context, in station.NewTrack) (station.Track, error)
	// SearchTracks matches query case-insensitively against title, artist and
	// album. Results are ordered by ascending id so "first match" is stable.
	SearchTracks(ctx context.Context, query string) ([]station.Track, error)

	// Queue. AddToQueue assigns the position from a monotonic counter; the
	// caller never picks positions. RemoveFromQueue of an absent id is a no-op.
	Queue(ctx context.Context) ([]station.QueueEntry, error)
	AddToQueue(ctx context.Context, trackID int64, requestedBy *string) (station.QueueItem, error)
	RemoveFromQueue(ctx context.Context, id int64) error
	ClearQueue(ctx context.Context) error

	// Chat / comments. Reads return the most recent limit rows, newest first.
	ChatMessages(ctx context.Context, limit int) ([]station.ChatMessage, error)
	AddChatMessage(ctx context.Context, username, message string, isBot bool) (station.ChatMessage, error)
	Comments(ctx context.Context, limit int) ([]station.Comment, error)
	AddComment(ctx context.Context, author, content string) (station.Comment, error)
	// LikeComment increments atomically; absent ids are a no-op.
	LikeComment(ctx context.Context, id int64) error

	// Singletons, created lazily with defaults on first read.
	RadioState(ctx context.Context) (station.RadioState, error)
	UpdateRadioState(ctx context.Context, patch station.RadioStatePatch) (station.RadioState, error)
	StationSettings(ctx context.Context) (station.StationSettings, error)
	UpdateStationSettings(ctx context.Context, patch station.StationSettingsPatch) (station.StationSettings, error)

	// Users
	Users(ctx context.Context) ([]station.User, error)
	User(ctx context.Context, id int64) (station.User, error)
	CreateUser(ctx context.Context, in station.NewUser) (station.User, error)
	UpdateUser(ctx context.Context, id int64, patch station.UserPatch) (station.User, error)
	DeleteUser(ctx context.Context, id int64) error

	Close() error
}

// Open picks a Store implementation from the DSN: "memory" yields the
// in-process store, anything else is treated as a Postgres URL and migrated.
func Open(dsn string) (Store, error) {
	if strings.EqualFold(dsn, "memory") {
		return NewMemory(), nil
	}
	return OpenPostgres(dsn)
}
