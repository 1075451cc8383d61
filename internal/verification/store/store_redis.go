package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cashwallet/internal/verification/models"
	"cashwallet/pkg/platform/sentinel"
)

const (
	codeKeyPrefix     = "otp:"
	verifiedKeyPrefix = "otp_verified:"

	// minKeyTTL keeps a record that is already past expiry readable long
	// enough for the service to report it as expired.
	minKeyTTL = time.Second
)

// RedisStore shares codes between instances. Records expire through key TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func codeKey(address string) string     { return codeKeyPrefix + address }
func verifiedKey(address string) string { return verifiedKeyPrefix + address }

func ttlFor(rec *models.CodeRecord) time.Duration {
	if ttl := time.Until(rec.ExpiresAt); ttl > minKeyTTL {
		return ttl
	}
	return minKeyTTL
}

func (s *RedisStore) Save(ctx context.Context, rec *models.CodeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal code record: %w", err)
	}
	if err := s.client.Set(ctx, codeKey(rec.Email), data, ttlFor(rec)).Err(); err != nil {
		return fmt.Errorf("save code record: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, address string) (*models.CodeRecord, error) {
	data, err := s.client.Get(ctx, codeKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find code record: %w", err)
	}
	var rec models.CodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal code record: %w", err)
	}
	return &rec, nil
}

// Execute atomically validates and mutates a record under optimistic lock.
func (s *RedisStore) Execute(ctx context.Context, address string, validate func(*models.CodeRecord) error, mutate func(*models.CodeRecord)) (*models.CodeRecord, error) {
	key := codeKey(address)
	var result *models.CodeRecord

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get code record for execute: %w", err)
		}

		var rec models.CodeRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshal code record: %w", err)
		}
		if err := validate(&rec); err != nil {
			return err
		}
		mutate(&rec)

		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal code record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttlFor(&rec))
			return nil
		})
		if err != nil {
			return err
		}
		result = &rec
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("concurrent update of code record: %w", sentinel.ErrInvalidState)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RedisStore) Delete(ctx context.Context, address string) error {
	n, err := s.client.Del(ctx, codeKey(address)).Result()
	if err != nil {
		return fmt.Errorf("delete code record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("code for %s: %w", address, sentinel.ErrNotFound)
	}
	return nil
}

func (s *RedisStore) MarkVerified(ctx context.Context, address string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, verifiedKey(address), until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

// IsVerified relies on the key TTL; now is accepted for parity with the in-memory store.
func (s *RedisStore) IsVerified(ctx context.Context, address string, _ time.Time) (bool, error) {
	n, err := s.client.Exists(ctx, verifiedKey(address)).Result()
	if err != nil {
		return false, fmt.Errorf("check verified email: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) ClearVerified(ctx context.Context, address string) error {
	if err := s.client.Del(ctx, verifiedKey(address)).Err(); err != nil {
		return fmt.Errorf("clear verified email: %w", err)
	}
	return nil
}
