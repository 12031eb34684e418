package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yirikai/yirikai/internal/config"
	"github.com/yirikai/yirikai/internal/pkg/timeutil"
	"github.com/yirikai/yirikai/internal/repo"
)

// NewStore picks the counter backend named by cfg.Store.
func NewStore(ctx context.Context, cfg config.QuotaConfig, profiles *repo.UserProfileRepo) (Store, error) {
	switch cfg.Store {
	case "", "postgres":
		return NewPostgresStore(profiles), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported quota store: %s", cfg.Store)
	}
}

type postgresStore struct {
	profiles *repo.UserProfileRepo
}

// NewPostgresStore keeps the counter on the user's profile row.
func NewPostgresStore(profiles *repo.UserProfileRepo) Store {
	return &postgresStore{profiles: profiles}
}

func (s *postgresStore) Used(ctx context.Context, userID, day string) (int, error) {
	return s.profiles.QueryCount(ctx, userID, day)
}

func (s *postgresStore) Incr(ctx context.Context, userID, day string) (int, error) {
	return s.profiles.IncrQueryCount(ctx, userID, day)
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps one key per user and day; keys expire after the day ends.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func quotaKey(userID, day string) string {
	return fmt.Sprintf("quota:%s:%s", userID, day)
}

func (s *redisStore) Used(ctx context.Context, userID, day string) (int, error) {
	n, err := s.client.Get(ctx, quotaKey(userID, day)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *redisStore) Incr(ctx context.Context, userID, day string) (int, error) {
	key := quotaKey(userID, day)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.ExpireAt(ctx, key, expiryFor(day)).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// expiryFor keeps a day's key one hour past its end.
func expiryFor(day string) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Now().Add(25 * time.Hour)
	}
	return timeutil.NextDay(t).Add(time.Hour)
}
