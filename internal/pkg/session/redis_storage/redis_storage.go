package redis_storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"stickers_bot/internal/pkg/session/domain"
)

const (
	sessionKeyPrefix = "stickersbot:session:"
	activeKey        = "stickersbot:sessions:active"

	// idle sessions only carry the placeholder file, which is refreshed every two weeks anyway
	sessionTTL = 30 * 24 * time.Hour
)

// RedisStorage stores each session as a JSON blob and tracks the active
// conversations in a sorted set scored by their last update.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (r *RedisStorage) SaveSession(ctx context.Context, session *domain.UserSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	member := strconv.FormatInt(session.UserID, 10)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.UserID), data, sessionTTL)
		if session.Active() {
			pipe.ZAdd(ctx, activeKey, redis.Z{Score: float64(session.UpdatedAt.UnixMilli()), Member: member})
		} else {
			pipe.ZRem(ctx, activeKey, member)
		}
		return nil
	})
	return err
}

func (r *RedisStorage) GetSession(ctx context.Context, userID int64) (*domain.UserSession, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.UserSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, userID int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(userID))
		pipe.ZRem(ctx, activeKey, strconv.FormatInt(userID, 10))
		return nil
	})
	return err
}

func (r *RedisStorage) ExpiredSessions(ctx context.Context, before time.Time) ([]*domain.UserSession, error) {
	members, err := r.client.ZRangeByScore(ctx, activeKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*domain.UserSession
	for _, member := range members {
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		session, err := r.GetSession(ctx, userID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			// blob expired, drop the stale index entry
			r.client.ZRem(ctx, activeKey, member)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (r *RedisStorage) CountActive(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, activeKey).Result()
}
