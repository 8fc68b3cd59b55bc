package store

import (
	"context"
	"testing"

	"github.com/neonwave/radioboard/internal/station"
)

func str(s string) *string { return &s }

func seedTrack(t *testing.T, m *Memory, title, artist string) station.Track {
	t.Helper()
	tr, err := m.CreateTrack(context.Background(), station.NewTrack{
		Title: title, Artist: artist, Duration: "3:30",
	})
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	return tr
}

func TestQueuePositionsMonotonicAcrossClear(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	tr := seedTrack(t, m, "Neon Dreams", "Vex Machina")

	a, _ := m.AddToQueue(ctx, tr.ID, nil)
	b, _ := m.AddToQueue(ctx, tr.ID, nil)
	if b.Position <= a.Position {
		t.Fatalf("positions not increasing: %d then %d", a.Position, b.Position)
	}

	if err := m.ClearQueue(ctx); err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	c, _ := m.AddToQueue(ctx, tr.ID, nil)
	if c.Position <= b.Position {
		t.Errorf("position reused after clear: %d after %d", c.Position, b.Position)
	}
}

func TestQueueEntriesCarryTrackAndOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	first := seedTrack(t, m, "Neon Dreams", "Vex Machina")
	second := seedTrack(t, m, "Chrome Sunset", "Digital Prophets")

	_, _ = m.AddToQueue(ctx, second.ID, str("CyberFan_92"))
	_, _ = m.AddToQueue(ctx, first.ID, nil)

	queue, err := m.Queue(ctx)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d", len(queue))
	}
	if queue[0].Track.Title != "Chrome Sunset" || queue[1].Track.Title != "Neon Dreams" {
		t.Errorf("queue not in enqueue order: %q, %q", queue[0].Track.Title, queue[1].Track.Title)
	}
	if queue[0].RequestedBy == nil || *queue[0].RequestedBy != "CyberFan_92" {
		t.Errorf("requestedBy not carried: %v", queue[0].RequestedBy)
	}
	if queue[1].RequestedBy != nil {
		t.Errorf("dashboard entry has requester %q", *queue[1].RequestedBy)
	}
}

func TestRemoveFromQueueAbsentIsNoOp(t *testing.T) {
	m := NewMemory()
	if err := m.RemoveFromQueue(context.Background(), 42); err != nil {
		t.Fatalf("RemoveFromQueue absent: %v", err)
	}
}

func TestSearchTracksCaseInsensitiveAcrossFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seedTrack(t, m, "Neon Dreams", "Vex Machina")
	seedTrack(t, m, "Chrome Sunset", "Digital Prophets")
	if _, err := m.CreateTrack(ctx, station.NewTrack{
		Title: "Midnight Drive", Artist: "Stellar Frequencies",
		Album: str("Neon Nights"), Duration: "4:01",
	}); err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}

	got, err := m.SearchTracks(ctx, "NEON")
	if err != nil {
		t.Fatalf("SearchTracks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2 (title + album)", len(got))
	}
	if got[0].Title != "Neon Dreams" {
		t.Errorf("lowest id first, got %q", got[0].Title)
	}

	got, _ = m.SearchTracks(ctx, "prophets")
	if len(got) != 1 || got[0].Artist != "Digital Prophets" {
		t.Errorf("artist match = %+v", got)
	}

	got, _ = m.SearchTracks(ctx, "nothing here")
	if len(got) != 0 {
		t.Errorf("no-match search returned %d tracks", len(got))
	}
}

func TestChatWindowNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, msg := range []string{"one", "two", "three"} {
		if _, err := m.AddChatMessage(ctx, "vex", msg, false); err != nil {
			t.Fatalf("AddChatMessage: %v", err)
		}
	}

	got, err := m.ChatMessages(ctx, 2)
	if err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
	if len(got) != 2 || got[0].Message != "three" || got[1].Message != "two" {
		t.Errorf("window = %+v, want newest first capped at limit", got)
	}
}

func TestLikeCommentIncrementsAndToleratesAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	c, _ := m.AddComment(ctx, "vex", "great set")

	for i := 0; i < 3; i++ {
		if err := m.LikeComment(ctx, c.ID); err != nil {
			t.Fatalf("LikeComment: %v", err)
		}
	}
	if err := m.LikeComment(ctx, c.ID+100); err != nil {
		t.Fatalf("LikeComment absent: %v", err)
	}

	got, _ := m.Comments(ctx, 10)
	if got[0].Likes != 3 {
		t.Errorf("likes = %d, want 3", got[0].Likes)
	}
}

func TestRadioStateVivifiesDefaults(t *testing.T) {
	m := NewMemory()
	s, err := m.RadioState(context.Background())
	if err != nil {
		t.Fatalf("RadioState: %v", err)
	}
	if !s.IsPlaying || s.Volume != 75 || s.ListenerCount != 1247 {
		t.Errorf("playback defaults = %+v", s)
	}
	if !s.IRCConnected || s.IRCChannel != "#neonwave-radio" || s.IRCUserCount != 23 {
		t.Errorf("irc defaults = %+v", s)
	}
	if s.CurrentTrackID != nil {
		t.Errorf("fresh state has current track %d", *s.CurrentTrackID)
	}
}

func TestUpdateRadioStateMergesPatch(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	playing := false
	vol := 40
	s, err := m.UpdateRadioState(ctx, station.RadioStatePatch{IsPlaying: &playing, Volume: &vol})
	if err != nil {
		t.Fatalf("UpdateRadioState: %v", err)
	}
	if s.IsPlaying || s.Volume != 40 {
		t.Errorf("patched fields: %+v", s)
	}
	if s.ListenerCount != 1247 {
		t.Errorf("untouched field reset: %+v", s)
	}

	again, _ := m.RadioState(ctx)
	if again.Volume != 40 {
		t.Errorf("update not persisted: %+v", again)
	}
}

func TestStationSettingsDefaultsAndUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	s, _ := m.StationSettings(ctx)
	if s.StationName != "NeonWave Radio" || s.MaxBitrate != 320 {
		t.Errorf("settings defaults = %+v", s)
	}

	name := "NightWave"
	got, err := m.UpdateStationSettings(ctx, station.StationSettingsPatch{StationName: &name})
	if err != nil {
		t.Fatalf("UpdateStationSettings: %v", err)
	}
	if got.StationName != "NightWave" || got.Tagline != s.Tagline {
		t.Errorf("partial update = %+v", got)
	}
}

func TestUserLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u, err := m.CreateUser(ctx, station.NewUser{Username: "vex", Email: "vex@neonwave.fm"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Role != "listener" || !u.IsActive {
		t.Errorf("new user defaults = %+v", u)
	}

	role := "dj"
	updated, err := m.UpdateUser(ctx, u.ID, station.UserPatch{Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Role != "dj" || updated.Username != "vex" {
		t.Errorf("updated user = %+v", updated)
	}

	if _, err := m.UpdateUser(ctx, u.ID+9, station.UserPatch{}); err != station.ErrNotFound {
		t.Errorf("UpdateUser absent = %v, want ErrNotFound", err)
	}

	if err := m.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := m.User(ctx, u.ID); err != station.ErrNotFound {
		t.Errorf("deleted user lookup = %v, want ErrNotFound", err)
	}
}
