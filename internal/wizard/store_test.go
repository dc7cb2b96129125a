package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisStore_FailsSafeWhenRedisUnavailable(t *testing.T) {
	// Nothing listens here; every command fails with a connection error.
	store := NewRedisStore(NewRedisClient("localhost:1", "", 0), time.Minute)
	ctx := context.Background()

	state, err := store.Load(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, StepStart, state.Step)

	assert.NoError(t, store.Save(ctx, 1, &State{Step: StepAudioProcessed}))
	assert.NoError(t, store.Clear(ctx, 1))

	// The failed save is simply lost; the next load restarts the wizard.
	state, err = store.Load(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, StepStart, state.Step)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &State{Step: StepReasonCaptured, Symptoms: []string{"cough"}}
	assert.NoError(t, store.Save(ctx, 5, saved))

	loaded, err := store.Load(ctx, 5)
	assert.NoError(t, err)
	loaded.Symptoms[0] = "mutated"

	again, err := store.Load(ctx, 5)
	assert.NoError(t, err)
	assert.Equal(t, []string{"cough"}, again.Symptoms)
}
