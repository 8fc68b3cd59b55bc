package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/neonwave/radioboard/internal/protocol"
	"github.com/neonwave/radioboard/internal/station"
	"github.com/neonwave/radioboard/internal/store"
)

// recorder captures publishes in call order.
type recorder struct {
	mu     sync.Mutex
	frames []published
}

type published struct {
	kind    string
	payload any
}

func (r *recorder) Publish(kind string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, published{kind: kind, payload: payload})
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.kind
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

func newTestService(t *testing.T) (*Service, *store.Memory, *recorder) {
	t.Helper()
	mem := store.NewMemory()
	rec := &recorder{}
	svc := NewService(mem, rec, Options{}, zap.NewNop())
	return svc, mem, rec
}

func mustTrack(t *testing.T, mem *store.Memory, title, artist string) station.Track {
	t.Helper()
	tr, err := mem.CreateTrack(context.Background(), station.NewTrack{
		Title: title, Artist: artist, Duration: "3:42",
	})
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	return tr
}

func TestQueueOrderFollowsSurvivingEnqueues(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	a := mustTrack(t, mem, "Alpha", "One")
	b := mustTrack(t, mem, "Beta", "Two")
	c := mustTrack(t, mem, "Gamma", "Three")

	var items []station.QueueItem
	for _, tr := range []station.Track{a, b, c} {
		item, err := svc.Enqueue(ctx, tr.ID, nil)
		if err != nil {
			t.Fatalf("Enqueue(%d): %v", tr.ID, err)
		}
		items = append(items, item)
	}

	if err := svc.Dequeue(ctx, items[1].ID); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	queue, err := svc.Queue(ctx)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].TrackID != a.ID || queue[1].TrackID != c.ID {
		t.Errorf("queue order = [%d %d], want [%d %d]",
			queue[0].TrackID, queue[1].TrackID, a.ID, c.ID)
	}
	if queue[0].Position >= queue[1].Position {
		t.Errorf("positions not increasing: %d then %d", queue[0].Position, queue[1].Position)
	}
}

func TestDequeueAbsentIsNoOp(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	tr := mustTrack(t, mem, "Solo", "Act")
	if _, err := svc.Enqueue(ctx, tr.ID, nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	rec.reset()

	if err := svc.Dequeue(ctx, 9999); err != nil {
		t.Fatalf("Dequeue absent id errored: %v", err)
	}

	queue, _ := svc.Queue(ctx)
	if len(queue) != 1 {
		t.Errorf("queue changed by absent dequeue: %d entries", len(queue))
	}
	// Still broadcasts the (unchanged) full queue.
	if got := rec.kinds(); len(got) != 1 || got[0] != protocol.KindQueueUpdate {
		t.Errorf("publishes = %v", got)
	}
}

func TestEnqueueUnknownTrackIsValidationError(t *testing.T) {
	svc, _, rec := newTestService(t)

	_, err := svc.Enqueue(context.Background(), 42, nil)
	var verr *station.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["trackId"]; !ok {
		t.Errorf("fields = %v, want trackId", verr.Fields)
	}
	if got := rec.kinds(); len(got) != 0 {
		t.Errorf("failed mutation broadcast %v", got)
	}
}

func TestPostChatValidation(t *testing.T) {
	svc, _, rec := newTestService(t)

	_, err := svc.PostChat(context.Background(), "", "  ", false)
	var verr *station.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"username", "message"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing violated field %q in %v", field, verr.Fields)
		}
	}
	if got := rec.kinds(); len(got) != 0 {
		t.Errorf("failed mutation broadcast %v", got)
	}
}

func TestRelayRequestNoMatch(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()
	mustTrack(t, mem, "Completely Different", "Band")

	_, err := svc.RelayRequest(ctx, "CyberFan_92", "zzzz")
	if !errors.Is(err, station.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if got := rec.kinds(); len(got) != 1 || got[0] != protocol.KindChatMessage {
		t.Fatalf("publishes = %v, want exactly one chat_message", got)
	}
	msg, ok := rec.frames[0].payload.(station.ChatMessage)
	if !ok {
		t.Fatalf("payload is %T", rec.frames[0].payload)
	}
	if !msg.IsBot || msg.Username != BotName {
		t.Errorf("reply not bot-originated: %+v", msg)
	}
	if !strings.Contains(msg.Message, "no tracks found") {
		t.Errorf("message = %q", msg.Message)
	}

	queue, _ := svc.Queue(ctx)
	if len(queue) != 0 {
		t.Errorf("queue mutated on miss: %d entries", len(queue))
	}
}

func TestRelayRequestMatch(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()
	tr := mustTrack(t, mem, "Neon Dreams", "Vex Machina")

	got, err := svc.RelayRequest(ctx, "CyberFan_92", "neon")
	if err != nil {
		t.Fatalf("RelayRequest: %v", err)
	}
	if got.ID != tr.ID {
		t.Errorf("selected track %d, want %d", got.ID, tr.ID)
	}

	want := []string{protocol.KindQueueUpdate, protocol.KindChatMessage, protocol.KindTrackRequest}
	kinds := rec.kinds()
	if len(kinds) != len(want) {
		t.Fatalf("publishes = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("publish order = %v, want %v", kinds, want)
		}
	}

	toast, ok := rec.frames[2].payload.(station.TrackRequest)
	if !ok {
		t.Fatalf("toast payload is %T", rec.frames[2].payload)
	}
	if toast.Username != "CyberFan_92" || toast.Track != tr.Title || toast.Artist != tr.Artist {
		t.Errorf("toast = %+v", toast)
	}

	queue, _ := svc.Queue(ctx)
	if len(queue) != 1 {
		t.Fatalf("queue length = %d", len(queue))
	}
	if queue[0].RequestedBy == nil || *queue[0].RequestedBy != "CyberFan_92" {
		t.Errorf("requestedBy = %v", queue[0].RequestedBy)
	}
}

func TestRelayRequestPicksLowestID(t *testing.T) {
	svc, mem, _ := newTestService(t)
	first := mustTrack(t, mem, "Neon Nights", "A")
	mustTrack(t, mem, "Neon Days", "B")

	got, err := svc.RelayRequest(context.Background(), "GridRunner", "neon")
	if err != nil {
		t.Fatalf("RelayRequest: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("selected %d, want lowest id %d", got.ID, first.ID)
	}
}

func TestRequestScenario(t *testing.T) {
	svc, mem, rec := newTestService(t)
	ctx := context.Background()
	tr := mustTrack(t, mem, "Neon Dreams", "Vex Machina")

	if _, err := svc.Enqueue(ctx, tr.ID, nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	queue, _ := svc.Queue(ctx)
	if len(queue) != 1 || queue[0].RequestedBy != nil {
		t.Fatalf("after enqueue: %+v", queue)
	}
	rec.reset()

	if _, err := svc.RelayRequest(ctx, "CyberFan_92", "Neon"); err != nil {
		t.Fatalf("RelayRequest: %v", err)
	}

	queue, _ = svc.Queue(ctx)
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[1].RequestedBy == nil || *queue[1].RequestedBy != "CyberFan_92" {
		t.Errorf("second entry requestedBy = %v", queue[1].RequestedBy)
	}

	var chat station.ChatMessage
	for _, f := range rec.frames {
		if f.kind == protocol.KindChatMessage {
			chat = f.payload.(station.ChatMessage)
		}
	}
	if !strings.Contains(chat.Message, `✅ Added "Neon Dreams"`) ||
		!strings.Contains(chat.Message, "(Requested by CyberFan_92)") {
		t.Errorf("bot message = %q", chat.Message)
	}
}

func TestConcurrentLikes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.PostComment(ctx, "vex", "first!")
	if err != nil {
		t.Fatalf("PostComment: %v", err)
	}

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := svc.LikeComment(ctx, c.ID); err != nil {
				t.Errorf("LikeComment: %v", err)
			}
		}()
	}
	wg.Wait()

	comments, _ := svc.Comments(ctx)
	if len(comments) != 1 {
		t.Fatalf("comments = %d", len(comments))
	}
	if comments[0].Likes != n {
		t.Errorf("likes = %d, want %d", comments[0].Likes, n)
	}
}

func TestLikeAbsentCommentIsNoOp(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.LikeComment(context.Background(), 777); err != nil {
		t.Fatalf("LikeComment absent id errored: %v", err)
	}
}

func TestUpdateRadioStatePartialMerge(t *testing.T) {
	svc, _, rec := newTestService(t)
	ctx := context.Background()

	before, err := svc.RadioState(ctx)
	if err != nil {
		t.Fatalf("RadioState: %v", err)
	}

	vol := 33
	after, err := svc.UpdateRadioState(ctx, station.RadioStatePatch{Volume: &vol})
	if err != nil {
		t.Fatalf("UpdateRadioState: %v", err)
	}
	if after.Volume != 33 {
		t.Errorf("volume = %d", after.Volume)
	}
	if after.IsPlaying != before.IsPlaying || after.IRCChannel != before.IRCChannel {
		t.Errorf("unrelated fields changed: before %+v after %+v", before, after)
	}
	if got := rec.kinds(); len(got) == 0 || got[len(got)-1] != protocol.KindRadioState {
		t.Errorf("publishes = %v, want trailing radio_state", got)
	}
}

func TestUpdateRadioStateRejectsBadVolume(t *testing.T) {
	svc, _, rec := newTestService(t)
	vol := 150
	_, err := svc.UpdateRadioState(context.Background(), station.RadioStatePatch{Volume: &vol})
	var verr *station.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if got := rec.kinds(); len(got) != 0 {
		t.Errorf("failed mutation broadcast %v", got)
	}
}
