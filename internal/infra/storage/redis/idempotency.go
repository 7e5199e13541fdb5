package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"rentflow/internal/app/middleware"
)

const keyPrefix = "rentflow:idempotency:"

// IdempotencyStore keeps command outcomes in Redis with a TTL.
type IdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

func NewIdempotencyStore(client *goredis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

type record struct {
	Payload    []byte                `json:"payload,omitempty"`
	Error      string                `json:"error,omitempty"`
	ErrorKind  string                `json:"error_kind,omitempty"`
	ErrorCode  string                `json:"error_code,omitempty"`
	Missing    []string              `json:"missing,omitempty"`
	Shortfall  *middleware.Shortfall `json:"shortfall,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:        key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		ErrorCode:  rec.ErrorCode,
		Missing:    rec.Missing,
		Shortfall:  rec.Shortfall,
		OccurredAt: rec.OccurredAt,
	}, true, nil
}

// Save keeps the first outcome stored for a key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(record{
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		ErrorCode:  rec.ErrorCode,
		Missing:    rec.Missing,
		Shortfall:  rec.Shortfall,
		OccurredAt: rec.OccurredAt,
	})
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, keyPrefix+rec.Key, raw, s.ttl).Err()
}

// Ping is used by the readiness probe.
func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
