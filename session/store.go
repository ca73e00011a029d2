package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is an exported constant or variable used by the session store.
var ErrStoreUnavailable = errors.New("session store unavailable")

const defaultKeyPrefix = "ras"

// Store is a Redis-backed single-slot store for the persisted session
// record. Exactly one machine instance owns writes, so last-writer-wins is
// sufficient; no conflict resolution exists or is needed.
//
// Store instances are intended to be configured during initialization and
// then treated as immutable.
type Store struct {
	redis redis.UniversalClient
	codec *Codec
	key   string
	ttl   time.Duration
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets
// the key namespace (default "ras"); signingKey feeds the record [Codec];
// ttl bounds how long a saved record survives (0 keeps it until Clear).
func NewStore(client redis.UniversalClient, prefix string, signingKey []byte, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl < 0 {
		return nil, errors.New("record ttl must not be negative")
	}

	codec, err := NewCodec(signingKey)
	if err != nil {
		return nil, err
	}

	return &Store{
		redis: client,
		codec: codec,
		key:   prefix + ":session",
		ttl:   ttl,
	}, nil
}

// Load retrieves the stored record. A missing record returns (nil, nil).
// Bytes that fail to verify are purged before [ErrCorruptRecord] is
// returned, so a second Load after a corrupt hit comes back cleanly absent
// instead of failing again on the same bytes.
//
//	Performance: 1 Redis GET (plus 1 DEL on the corrupt path).
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, decErr := s.codec.Decode(data)
	if decErr != nil {
		if delErr := s.redis.Del(ctx, s.key).Err(); delErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, delErr)
		}
		return nil, decErr
	}

	return rec, nil
}

// Save encodes rec and replaces the slot. The single SET is atomic: a
// concurrent reader observes either the previous complete record or the new
// one, never a partial write.
//
//	Performance: 1 Redis SET.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	data, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes any stored record. Clearing an already-empty slot succeeds.
//
//	Performance: 1 Redis DEL.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
