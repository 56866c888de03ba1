package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followarr/models"
)

type stubResolver struct {
	users []string
	err   error
	calls int
}

func (s *stubResolver) Resolve(models.NewEpisodeEvent) ([]string, error) {
	s.calls++
	return s.users, s.err
}

type stubEnricher struct{ calls int }

func (s *stubEnricher) Enrich(_ context.Context, event models.NewEpisodeEvent) models.EpisodeNotice {
	s.calls++
	return models.EpisodeNotice{
		ShowTitle:     event.ShowTitle,
		SeasonNumber:  event.SeasonNumber,
		EpisodeNumber: event.EpisodeNumber,
		Overview:      "enriched",
	}
}

type stubDispatcher struct {
	mu        sync.Mutex
	followers []string
	notice    models.EpisodeNotice
	calls     int
}

func (s *stubDispatcher) Dispatch(_ context.Context, followers []string, notice models.EpisodeNotice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.followers = followers
	s.notice = notice
}

func TestProcess_Dispatched(t *testing.T) {
	res := &stubResolver{users: []string{"1", "2"}}
	enr := &stubEnricher{}
	disp := &stubDispatcher{}
	svc := NewService(res, enr, disp)

	state, err := svc.Process(context.Background(), models.NewEpisodeEvent{
		ShowTitle: "The Rookie", SeasonNumber: 7, EpisodeNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, StateDispatched, state)

	svc.Wait()
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, []string{"1", "2"}, disp.followers)
	assert.Equal(t, "enriched", disp.notice.Overview)
}

func TestProcess_UnresolvedDropsSilently(t *testing.T) {
	res := &stubResolver{}
	enr := &stubEnricher{}
	disp := &stubDispatcher{}
	svc := NewService(res, enr, disp)

	state, err := svc.Process(context.Background(), models.NewEpisodeEvent{ShowTitle: "Nobody"})
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, state)

	svc.Wait()
	assert.Zero(t, enr.calls, "unresolved events must not be enriched")
	assert.Zero(t, disp.calls, "unresolved events must not be dispatched")
}

func TestProcess_ResolverError(t *testing.T) {
	res := &stubResolver{err: errors.New("db locked")}
	disp := &stubDispatcher{}
	svc := NewService(res, &stubEnricher{}, disp)

	_, err := svc.Process(context.Background(), models.NewEpisodeEvent{ShowTitle: "X"})
	require.Error(t, err)
	svc.Wait()
	assert.Zero(t, disp.calls)
}

// Dispatch must survive the webhook request context being canceled.
func TestProcess_DispatchOutlivesRequestContext(t *testing.T) {
	res := &stubResolver{users: []string{"1"}}
	disp := &ctxCheckingDispatcher{}
	svc := NewService(res, &stubEnricher{}, disp)

	ctx, cancel := context.WithCancel(context.Background())
	state, err := svc.Process(ctx, models.NewEpisodeEvent{ShowTitle: "X"})
	cancel()
	require.NoError(t, err)
	assert.Equal(t, StateDispatched, state)

	svc.Wait()
	assert.False(t, disp.sawCanceled(), "dispatch context must not inherit request cancellation")
}

type ctxCheckingDispatcher struct {
	mu       sync.Mutex
	canceled bool
}

func (d *ctxCheckingDispatcher) Dispatch(ctx context.Context, _ []string, _ models.EpisodeNotice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx.Err() != nil {
		d.canceled = true
	}
}

func (d *ctxCheckingDispatcher) sawCanceled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canceled
}
