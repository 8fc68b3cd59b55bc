package gateway

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/logutil"
	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/station"
)

// RelayRequest handles a song request forwarded by the IRC bridge.
//
// The query is matched case-insensitively against title/artist/album. With no
// match, the only effect is a bot chat message reporting the failure and a
// station.ErrNotFound result. With matches, the first result (lowest id) is
// enqueued on behalf of username, and three frames go out in order:
// queue_update, chat_message, track_request.
func (s *Service) RelayRequest(ctx context.Context, username, query string) (station.Track, error) {
	v := &station.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(username) == "" {
		v.Fields["username"] = "required"
	}
	if strings.TrimSpace(query) == "" {
		v.Fields["query"] = "required"
	}
	if len(v.Fields) > 0 {
		return station.Track{}, v
	}

	matches, err := s.store.SearchTracks(ctx, query)
	if err != nil {
		return station.Track{}, err
	}

	if len(matches) == 0 {
		s.chatMu.Lock()
		defer s.chatMu.Unlock()
		reply := fmt.Sprintf("❌ Sorry %s, no tracks found for %q", username, query)
		if _, err := s.postChatLocked(ctx, BotName, reply, true); err != nil {
			return station.Track{}, err
		}
		s.log.Info("relay request missed", logutil.Values(
			zap.String("username", username),
			zap.String("query", query),
		))
		return station.Track{}, station.ErrNotFound
	}

	track := matches[0]

	// One logical mutation touching queue and chat: both locks for the
	// duration so the three broadcasts cannot interleave with competing
	// writes to either resource.
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	requester := username
	if _, err := s.store.AddToQueue(ctx, track.ID, &requester); err != nil {
		return station.Track{}, err
	}
	if err := s.publishQueue(ctx); err != nil {
		return station.Track{}, err
	}

	reply := fmt.Sprintf("✅ Added %q by %s to the queue! (Requested by %s)",
		track.Title, track.Artist, username)
	if _, err := s.postChatLocked(ctx, BotName, reply, true); err != nil {
		return station.Track{}, err
	}

	s.bus.Publish(protocol.KindTrackRequest, station.TrackRequest{
		Username: username,
		Track:    track.Title,
		Artist:   track.Artist,
	})

	s.log.Info("relay request enqueued", logutil.Values(
		zap.String("username", username),
		zap.String("query", query),
		zap.Int64("track_id", track.ID),
	))
	return track, nil
}
