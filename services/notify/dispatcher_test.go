package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"followarr/models"
)

// fakeMessenger records deliveries and fails or hangs for chosen users.
type fakeMessenger struct {
	mu        sync.Mutex
	delivered []string
	failFor   map[string]error
	panicFor  map[string]bool
	hangFor   map[string]bool
}

func (f *fakeMessenger) SendDirect(ctx context.Context, userID string, _ models.EpisodeNotice) error {
	if f.panicFor[userID] {
		panic("messenger blew up")
	}
	if f.hangFor[userID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err, ok := f.failFor[userID]; ok {
		return err
	}
	f.mu.Lock()
	f.delivered = append(f.delivered, userID)
	f.mu.Unlock()
	return nil
}

func (f *fakeMessenger) deliveredSet() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, id := range f.delivered {
		out[id] = true
	}
	return out
}

func TestDispatch_FailureIsolation(t *testing.T) {
	messenger := &fakeMessenger{
		failFor: map[string]error{"2": errors.New("cannot send messages to this user")},
	}
	d := NewDispatcher(messenger, time.Second)

	d.Dispatch(context.Background(), []string{"1", "2", "3"}, models.EpisodeNotice{
		ShowTitle: "The Rookie", SeasonNumber: 7, EpisodeNumber: 1,
	})

	got := messenger.deliveredSet()
	if !got["1"] || !got["3"] {
		t.Errorf("followers 1 and 3 must still be delivered, got %v", got)
	}
	if got["2"] {
		t.Error("follower 2 should have failed")
	}
}

func TestDispatch_PanicDoesNotEscape(t *testing.T) {
	messenger := &fakeMessenger{panicFor: map[string]bool{"2": true}}
	d := NewDispatcher(messenger, time.Second)

	// Must not panic.
	d.Dispatch(context.Background(), []string{"1", "2", "3"}, models.EpisodeNotice{ShowTitle: "X"})

	got := messenger.deliveredSet()
	if !got["1"] || !got["3"] {
		t.Errorf("siblings of a panicking delivery must still run, got %v", got)
	}
}

func TestDispatch_SlowDeliveryTimesOut(t *testing.T) {
	messenger := &fakeMessenger{hangFor: map[string]bool{"1": true}}
	d := NewDispatcher(messenger, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), []string{"1", "2"}, models.EpisodeNotice{ShowTitle: "X"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a hung delivery must be cut off by its per-delivery timeout")
	}
	if !messenger.deliveredSet()["2"] {
		t.Error("follower 2 must be delivered despite follower 1 hanging")
	}
}

func TestDispatch_EmptyFollowerSet(t *testing.T) {
	messenger := &fakeMessenger{}
	d := NewDispatcher(messenger, time.Second)
	d.Dispatch(context.Background(), nil, models.EpisodeNotice{ShowTitle: "X"})
	if len(messenger.deliveredSet()) != 0 {
		t.Error("no deliveries expected for empty follower set")
	}
}
