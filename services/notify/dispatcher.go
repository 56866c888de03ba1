// Package notify fans one episode notice out to every resolved follower.
// Deliveries are independent: each runs in its own goroutine with its own
// timeout, and a failure (blocked DMs, deleted user, network fault) is logged
// with the offending user and never stops the remaining deliveries. No
// ordering, no retry, no dedup beyond the follower set itself.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"followarr/models"
	"followarr/services/discord"
)

// Messenger resolves a user handle and delivers the notice to it.
type Messenger interface {
	SendDirect(ctx context.Context, userID string, notice models.EpisodeNotice) error
}

var _ Messenger = (*discord.Client)(nil)

const (
	defaultDeliveryTimeout = 10 * time.Second
	maxConcurrentDeliveries = 8
)

// Dispatcher delivers notices to followers with per-recipient isolation.
type Dispatcher struct {
	messenger Messenger
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher. timeout bounds each individual
// delivery; zero selects the default.
func NewDispatcher(messenger Messenger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Dispatcher{messenger: messenger, timeout: timeout}
}

// Dispatch attempts delivery to every follower and returns once all attempts
// finished. Callers that must not block on delivery completion run it in a
// goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, followers []string, notice models.EpisodeNotice) {
	if len(followers) == 0 {
		return
	}
	p := pool.New().WithMaxGoroutines(maxConcurrentDeliveries)
	for _, userID := range followers {
		userID := userID
		p.Go(func() {
			d.deliver(ctx, userID, notice)
		})
	}
	p.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, userID string, notice models.EpisodeNotice) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[notify] panic delivering %s %s to user %s: %v",
				notice.ShowTitle, notice.EpisodeCode(), userID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.messenger.SendDirect(ctx, userID, notice); err != nil {
		log.Printf("[notify] failed to deliver %s %s to user %s: %v",
			notice.ShowTitle, notice.EpisodeCode(), userID, err)
		return
	}
	log.Printf("[notify] delivered %s %s to user %s", notice.ShowTitle, notice.EpisodeCode(), userID)
}
