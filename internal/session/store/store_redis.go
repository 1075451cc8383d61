package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cashwallet/internal/session/models"
	"cashwallet/pkg/domain"
	"cashwallet/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix        = "session:"
	accountSessionKeyPrefix = "account_sessions:"
)

// sessionJSON is the stored form of a Session; IDs are kept as strings.
type sessionJSON struct {
	ID                string `json:"id"`
	AccountID         string `json:"account_id"`
	Origin            string `json:"origin"`
	DeviceDisplayName string `json:"device_display_name"`
	ClientIP          string `json:"client_ip,omitempty"`
	CreatedAt         int64  `json:"created_at"` // Unix nano
	ExpiresAt         int64  `json:"expires_at"` // Unix nano
}

func sessionToJSON(s *models.Session) *sessionJSON {
	return &sessionJSON{
		ID:                s.ID.String(),
		AccountID:         s.AccountID.String(),
		Origin:            string(s.Origin),
		DeviceDisplayName: s.DeviceDisplayName,
		ClientIP:          s.ClientIP,
		CreatedAt:         s.CreatedAt.UnixNano(),
		ExpiresAt:         s.ExpiresAt.UnixNano(),
	}
}

func sessionFromJSON(j *sessionJSON) (*models.Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	accountID, err := uuid.Parse(j.AccountID)
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	return &models.Session{
		ID:                domain.SessionID(sessionID),
		AccountID:         domain.AccountID(accountID),
		Origin:            models.Origin(j.Origin),
		DeviceDisplayName: j.DeviceDisplayName,
		ClientIP:          j.ClientIP,
		CreatedAt:         time.Unix(0, j.CreatedAt).UTC(),
		ExpiresAt:         time.Unix(0, j.ExpiresAt).UTC(),
	}, nil
}

// RedisStore shares sessions between instances; keys expire with the session.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(sessionID domain.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func accountSessionsKey(accountID domain.AccountID) string {
	return accountSessionKeyPrefix + accountID.String()
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	data, err := json.Marshal(sessionToJSON(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired: %w", sentinel.ErrExpired)
	}

	accountKey := accountSessionsKey(session.AccountID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), data, ttl)
		pipe.SAdd(ctx, accountKey, session.ID.String())
		pipe.Expire(ctx, accountKey, ttl+time.Hour)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID domain.SessionID) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	var j sessionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID domain.SessionID) error {
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.SRem(ctx, accountSessionsKey(session.AccountID), sessionID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByAccount(ctx context.Context, accountID domain.AccountID) (int, error) {
	accountKey := accountSessionsKey(accountID)
	ids, err := s.client.SMembers(ctx, accountKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list account sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, sid := range ids {
		keys = append(keys, sessionKeyPrefix+sid)
	}
	keys = append(keys, accountKey)
	removed, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete account sessions: %w", err)
	}
	// the account set itself is one of the deleted keys
	return int(max(removed-1, 0)), nil
}
