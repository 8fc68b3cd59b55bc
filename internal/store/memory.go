package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/neonwave/radioboard/internal/station"
)

// Memory is an in-process Store for dev mode and tests. It mirrors the
// Postgres semantics, including lazy singleton creation and monotonic queue
// positions.
type Memory struct {
	mu sync.Mutex

	tracks []station.Track
	queue  []station.QueueItem
	chat   []station.ChatMessage
	comm   []station.Comment
	users  []station.User

	state    *station.RadioState
	settings *station.StationSettings

	nextTrackID   int64
	nextQueueID   int64
	nextChatID    int64
	nextCommentID int64
	nextUserID    int64
	nextPosition  int64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Tracks(_ context.Context) ([]station.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]station.Track{}, m.tracks...), nil
}

func (m *Memory) Track(_ context.Context, id int64) (station.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return station.Track{}, station.ErrNotFound
}

func (m *Memory) CreateTrack(_ context.Context, in station.NewTrack) (station.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTrackID++
	bitrate := in.Bitrate
	if bitrate == "" {
		bitrate = "320 kbps"
	}
	t := station.Track{
		ID:       m.nextTrackID,
		Title:    in.Title,
		Artist:   in.Artist,
		Album:    in.Album,
		Duration: in.Duration,
		Bitrate:  bitrate,
		Genre:    in.Genre,
		AlbumArt: in.AlbumArt,
		FilePath: in.FilePath,
	}
	m.tracks = append(m.tracks, t)
	return t, nil
}

func (m *Memory) SearchTracks(_ context.Context, query string) ([]station.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	out := []station.Track{}
	for _, t := range m.tracks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			(t.Album != nil && strings.Contains(strings.ToLower(*t.Album), q)) {
			out = append(out, t)
		}
	}
	// Tracks are stored in id order already; keep the contract explicit.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Queue(_ context.Context) ([]station.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []station.QueueEntry{}
	for _, item := range m.queue {
		entry := station.QueueEntry{QueueItem: item}
		for _, t := range m.tracks {
			if t.ID == item.TrackID {
				entry.Track = t
				break
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *Memory) AddToQueue(_ context.Context, trackID int64, requestedBy *string) (station.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextQueueID++
	m.nextPosition++
	item := station.QueueItem{
		ID:          m.nextQueueID,
		TrackID:     trackID,
		Position:    m.nextPosition,
		RequestedBy: requestedBy,
		RequestedAt: time.Now(),
	}
	m.queue = append(m.queue, item)
	return item, nil
}

func (m *Memory) RemoveFromQueue(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.queue {
		if item.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ClearQueue(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	return nil
}

func (m *Memory) ChatMessages(_ context.Context, limit int) ([]station.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []station.ChatMessage{}
	for i := len(m.chat) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.chat[i])
	}
	return out, nil
}

func (m *Memory) AddChatMessage(_ context.Context, username, message string, isBot bool) (station.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextChatID++
	msg := station.ChatMessage{
		ID:        m.nextChatID,
		Username:  username,
		Message:   message,
		Timestamp: time.Now(),
		IsBot:     isBot,
	}
	m.chat = append(m.chat, msg)
	return msg, nil
}

func (m *Memory) Comments(_ context.Context, limit int) ([]station.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []station.Comment{}
	for i := len(m.comm) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.comm[i])
	}
	return out, nil
}

func (m *Memory) AddComment(_ context.Context, author, content string) (station.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCommentID++
	c := station.Comment{
		ID:        m.nextCommentID,
		Author:    author,
		Content:   content,
		Timestamp: time.Now(),
	}
	m.comm = append(m.comm, c)
	return c, nil
}

func (m *Memory) LikeComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.comm {
		if m.comm[i].ID == id {
			m.comm[i].Likes++
			break
		}
	}
	return nil
}

func (m *Memory) RadioState(_ context.Context) (station.RadioState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.radioStateLocked(), nil
}

func (m *Memory) radioStateLocked() *station.RadioState {
	if m.state == nil {
		m.state = &station.RadioState{
			ID:            1,
			IsPlaying:     true,
			Volume:        75,
			ListenerCount: 1247,
			IRCConnected:  true,
			IRCChannel:    "#neonwave-radio",
			IRCUserCount:  23,
		}
	}
	return m.state
}

func (m *Memory) UpdateRadioState(_ context.Context, patch station.RadioStatePatch) (station.RadioState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.radioStateLocked()
	patch.Apply(s)
	return *s, nil
}

func (m *Memory) StationSettings(_ context.Context) (station.StationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.settingsLocked(), nil
}

func (m *Memory) settingsLocked() *station.StationSettings {
	if m.settings == nil {
		m.settings = &station.StationSettings{
			ID:                 1,
			StationName:        "NeonWave Radio",
			Tagline:            "Synthwave & Cyberpunk Vibes",
			IcecastServer:      "localhost:8000",
			MaxBitrate:         320,
			AutoPlay:           true,
			AllowRequests:      true,
			MaxRequestsPerUser: 3,
			Theme:              "cyberpunk",
			UpdatedAt:          time.Now(),
		}
	}
	return m.settings
}

func (m *Memory) UpdateStationSettings(_ context.Context, patch station.StationSettingsPatch) (station.StationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settingsLocked()
	patch.Apply(s)
	s.UpdatedAt = time.Now()
	return *s, nil
}

func (m *Memory) Users(_ context.Context) ([]station.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []station.User{}
	for i := len(m.users) - 1; i >= 0; i-- {
		out = append(out, m.users[i])
	}
	return out, nil
}

func (m *Memory) User(_ context.Context, id int64) (station.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return station.User{}, station.ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, in station.NewUser) (station.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	role := in.Role
	if role == "" {
		role = "listener"
	}
	u := station.User{
		ID:        m.nextUserID,
		Username:  in.Username,
		Email:     in.Email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.users = append(m.users, u)
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, id int64, patch station.UserPatch) (station.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			patch.Apply(&m.users[i])
			return m.users[i], nil
		}
	}
	return station.User{}, station.ErrNotFound
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			break
		}
	}
	return nil
}
