package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix  = "emission:submission:"
	defaultMaxRetries = 10
)

// RedisStore keeps records as JSON values with the record's remaining
// lifetime as TTL. Fire uses WATCH/MULTI so concurrent transitions on the
// same session from several instances are serialized.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
	now        func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMaxRetries bounds optimistic transaction retries in Fire.
func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		prefix:     defaultKeyPrefix,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) ttl(rec *Record) time.Duration {
	if rec.ExpiresAt.IsZero() {
		return 0
	}
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrInvalidRecord, err)
	}

	ok, err := s.client.SetNX(ctx, s.key(rec.SessionID), data, s.ttl(rec)).Result()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) Fire(ctx context.Context, sessionID string, ev Event, detail string) (*Record, error) {
	key := s.key(sessionID)
	var updated *Record

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		if err := rec.apply(ev, detail, s.now()); err != nil {
			return err
		}
		out, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = rec
		return nil
	}

	for range s.maxRetries {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrTransitionRejected), errors.Is(err, ErrInvalidRecord):
			return nil, err
		default:
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
	}
	return nil, fmt.Errorf("%w: fire %s on %s: too many concurrent updates", ErrStoreUnavailable, ev, sessionID)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(ErrInvalidRecord, err)
	}
	return &rec, nil
}
