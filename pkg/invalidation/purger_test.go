package invalidation

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorSpy struct {
	calls atomic.Int32
}

func (v *validatorSpy) ValidateCache(_ context.Context) {
	v.calls.Add(1)
}

func TestPurger_PurgeRunsOneValidationPerMessage(t *testing.T) {
	spy := &validatorSpy{}
	p := &Purger{validator: spy, logger: zerolog.Nop()}

	p.purge(context.Background(), "msg-1")
	p.purge(context.Background(), "msg-2")

	assert.Equal(t, int32(2), spy.calls.Load())
}

func TestNewPurger_RejectsNilValidator(t *testing.T) {
	_, err := NewPurger(NewDefaultConfig("invalidation-sub"), nil, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig("invalidation-sub")
	assert.Equal(t, "invalidation-sub", cfg.SubscriptionID)
	assert.Equal(t, 10, cfg.MaxOutstandingMessages)
	assert.Equal(t, 1, cfg.NumGoroutines)
}
