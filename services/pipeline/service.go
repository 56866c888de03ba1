// Package pipeline runs the per-event notification flow: resolve followers,
// enrich content, start the fan-out. Each webhook event moves through
// received → validated → resolved → enriched → dispatched, short-circuiting
// to rejected, ignored, or unresolved.
package pipeline

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"followarr/models"
	"followarr/services/metadata"
	"followarr/services/notify"
	"followarr/services/resolver"
)

// State names one step of the per-event state machine. Rejected and ignored
// are assigned at the ingress boundary before the pipeline runs.
type State string

const (
	StateReceived   State = "received"
	StateValidated  State = "validated"
	StateRejected   State = "rejected"
	StateIgnored    State = "ignored"
	StateResolved   State = "resolved"
	StateUnresolved State = "unresolved"
	StateEnriched   State = "enriched"
	StateDispatched State = "dispatched"
)

// Resolver maps an event to its follower set.
type Resolver interface {
	Resolve(event models.NewEpisodeEvent) ([]string, error)
}

// Enricher layers show metadata onto the notification content.
type Enricher interface {
	Enrich(ctx context.Context, event models.NewEpisodeEvent) models.EpisodeNotice
}

// Dispatcher fans the notice out to the followers.
type Dispatcher interface {
	Dispatch(ctx context.Context, followers []string, notice models.EpisodeNotice)
}

var (
	_ Resolver   = (*resolver.Service)(nil)
	_ Enricher   = (*metadata.Service)(nil)
	_ Dispatcher = (*notify.Dispatcher)(nil)
)

// Service wires resolution, enrichment, and dispatch for validated events.
type Service struct {
	resolver   Resolver
	enricher   Enricher
	dispatcher Dispatcher

	dispatches sync.WaitGroup
}

// NewService creates the pipeline service.
func NewService(res Resolver, enr Enricher, disp Dispatcher) *Service {
	return &Service{resolver: res, enricher: enr, dispatcher: disp}
}

// Process handles one validated event. It returns once resolution completed
// and dispatch has been started; it never waits for deliveries to finish. A
// zero-follower resolution is a normal unresolved outcome, not an error.
func (s *Service) Process(ctx context.Context, event models.NewEpisodeEvent) (State, error) {
	eventID := uuid.NewString()
	log.Printf("[pipeline] event %s: %s %s (%s)", eventID, event.ShowTitle, event.EpisodeCode(), event.EpisodeTitle)

	followers, err := s.resolver.Resolve(event)
	if err != nil {
		return StateValidated, err
	}
	if len(followers) == 0 {
		log.Printf("[pipeline] event %s: no followers for %q, dropping", eventID, event.ShowTitle)
		return StateUnresolved, nil
	}
	log.Printf("[pipeline] event %s: resolved %d follower(s)", eventID, len(followers))

	notice := s.enricher.Enrich(ctx, event)

	// Deliveries outlive the webhook request; detach from its cancellation.
	dispatchCtx := context.WithoutCancel(ctx)
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		s.dispatcher.Dispatch(dispatchCtx, followers, notice)
	}()

	return StateDispatched, nil
}

// Wait blocks until all in-flight dispatches finished. Used on shutdown and
// in tests.
func (s *Service) Wait() {
	s.dispatches.Wait()
}
