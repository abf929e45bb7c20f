// Package invalidation lets an external system trigger the cache's
// self-healing purge remotely: a Pub/Sub message on the configured
// subscription runs one ValidateCache pass. Like the validate operation
// itself, the whole path is best-effort and reports nothing upward.
package invalidation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// CacheValidator is the slice of the cache coordinator the purger needs.
type CacheValidator interface {
	ValidateCache(ctx context.Context)
}

// Config holds the Pub/Sub subscription settings for the purger.
type Config struct {
	SubscriptionID         string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// NewDefaultConfig returns a Config for the given subscription with sensible
// receive settings for the low message volume invalidation traffic has.
func NewDefaultConfig(subID string) *Config {
	return &Config{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 10,
		NumGoroutines:          1,
	}
}

// Purger consumes invalidation messages and runs a cache validation pass for
// each one.
type Purger struct {
	subscription  *pubsub.Subscription
	validator     CacheValidator
	logger        zerolog.Logger
	stopOnce      sync.Once
	cancelReceive context.CancelFunc
	doneChan      chan struct{}
}

// NewPurger verifies the subscription exists and returns a Purger bound to it.
func NewPurger(cfg *Config, client *pubsub.Client, validator CacheValidator, logger zerolog.Logger) (*Purger, error) {
	if validator == nil {
		return nil, errors.New("cache validator cannot be nil")
	}
	sub := client.Subscription(cfg.SubscriptionID)

	subContext, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(subContext)
	if !exists || err != nil {
		return nil, fmt.Errorf("subscription %s does not exist: %w", cfg.SubscriptionID, err)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	return &Purger{
		subscription: sub,
		validator:    validator,
		logger:       logger.With().Str("component", "CachePurger").Str("subscription_id", cfg.SubscriptionID).Logger(),
		doneChan:     make(chan struct{}),
	}, nil
}

// Start begins consuming invalidation messages in a background goroutine.
func (p *Purger) Start(ctx context.Context) error {
	p.logger.Info().Msg("Starting invalidation listener...")
	receiveCtx, cancel := context.WithCancel(ctx)
	p.cancelReceive = cancel

	go func() {
		defer close(p.doneChan)
		defer p.logger.Info().Msg("Invalidation Receive goroutine stopped.")

		err := p.subscription.Receive(receiveCtx, func(msgCtx context.Context, msg *pubsub.Message) {
			p.purge(msgCtx, msg.ID)
			// Ack unconditionally: a purge pass swallows its own failures,
			// so redelivery would buy nothing.
			msg.Ack()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error().Err(err).Msg("Invalidation Receive call exited with error")
		}
	}()
	return nil
}

func (p *Purger) purge(ctx context.Context, msgID string) {
	p.logger.Debug().Str("msg_id", msgID).Msg("Invalidation message received, validating cache.")
	p.validator.ValidateCache(ctx)
}

// Stop cancels the receive loop and waits for it to drain.
func (p *Purger) Stop() error {
	p.stopOnce.Do(func() {
		p.logger.Info().Msg("Stopping invalidation listener...")
		if p.cancelReceive != nil {
			p.cancelReceive()
		}
		select {
		case <-p.doneChan:
		case <-time.After(30 * time.Second):
			p.logger.Error().Msg("Timeout waiting for invalidation Receive goroutine to stop.")
		}
	})
	return nil
}

// Done closes once the receive loop has exited.
func (p *Purger) Done() <-chan struct{} {
	return p.doneChan
}
