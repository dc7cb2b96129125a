package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "wizard:"

// Store persists wizard state per session.
type Store interface {
	Load(ctx context.Context, sessionID uint) (*State, error)
	Save(ctx context.Context, sessionID uint, state *State) error
	Clear(ctx context.Context, sessionID uint) error
}

// RedisStore keeps wizard state in redis with a TTL matching the token
// lifetime. It fails safe: a missing, unreadable or unreachable record
// loads as the start state, and a failed write is dropped. The wizard
// tolerates state loss (the flow restarts), it never errors on it.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a redis-backed wizard store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient dials redis for the wizard store.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func stateKey(sessionID uint) string {
	return fmt.Sprintf("%s%d", stateKeyPrefix, sessionID)
}

// Load returns the session's wizard state, or a fresh start state when none
// is stored or redis is unavailable.
func (s *RedisStore) Load(ctx context.Context, sessionID uint) (*State, error) {
	data, err := s.rdb.Get(ctx, stateKey(sessionID)).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors both degrade to a fresh wizard.
		return &State{Step: StepStart}, nil
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return &State{Step: StepStart}, nil
	}
	return &state, nil
}

// Save stores the wizard state for the session. Redis write failures are
// dropped; the session restarts its wizard on the next load.
func (s *RedisStore) Save(ctx context.Context, sessionID uint, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal wizard state: %w", err)
	}
	if err := s.rdb.Set(ctx, stateKey(sessionID), data, s.ttl).Err(); err != nil {
		return nil
	}
	return nil
}

// Clear drops the session's wizard state, ignoring redis errors.
func (s *RedisStore) Clear(ctx context.Context, sessionID uint) error {
	if err := s.rdb.Del(ctx, stateKey(sessionID)).Err(); err != nil {
		return nil
	}
	return nil
}

// MemoryStore is an in-process Store used in tests.
type MemoryStore struct {
	states map[uint]*State
}

// NewMemoryStore creates an empty in-memory wizard store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[uint]*State)}
}

// Load returns a copy of the stored state or a fresh start state.
func (s *MemoryStore) Load(_ context.Context, sessionID uint) (*State, error) {
	state, ok := s.states[sessionID]
	if !ok {
		return &State{Step: StepStart}, nil
	}
	copied := *state
	copied.Symptoms = append([]string(nil), state.Symptoms...)
	return &copied, nil
}

// Save stores a copy of the state.
func (s *MemoryStore) Save(_ context.Context, sessionID uint, state *State) error {
	copied := *state
	copied.Symptoms = append([]string(nil), state.Symptoms...)
	s.states[sessionID] = &copied
	return nil
}

// Clear drops the session's state.
func (s *MemoryStore) Clear(_ context.Context, sessionID uint) error {
	delete(s.states, sessionID)
	return nil
}
