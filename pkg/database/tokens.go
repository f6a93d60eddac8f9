package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
)

// SessionToken represents the session_tokens table
type SessionToken struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Token     string    `gorm:"not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenStore persists the access token in a gorm database
type TokenStore struct {
	db  *gorm.DB
	key string
}

var _ auth.TokenStore = (*TokenStore)(nil)

// NewTokenStore migrates the token table and returns a store for key
func NewTokenStore(db *gorm.DB, key string) (*TokenStore, error) {
	if key == "" {
		key = auth.TokenKey
	}
	if err := db.AutoMigrate(&SessionToken{}); err != nil {
		return nil, fmt.Errorf("database.NewTokenStore -> %w", err)
	}
	return &TokenStore{db: db, key: key}, nil
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var row SessionToken
	err := s.db.WithContext(ctx).Where(&SessionToken{Key: s.key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("database.TokenStore.Load -> %w", err)
	}
	return row.Token, nil
}

// Save upserts the token in a single query (supported by both Postgres and SQLite)
func (s *TokenStore) Save(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&SessionToken{Key: s.key, Token: token}).Error
	if err != nil {
		return fmt.Errorf("database.TokenStore.Save -> %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where(&SessionToken{Key: s.key}).Delete(&SessionToken{}).Error; err != nil {
		return fmt.Errorf("database.TokenStore.Clear -> %w", err)
	}
	return nil
}

// RedisTokenStore persists the access token in redis. The entry expires
// together with the token when the token carries an expiry.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

var _ auth.TokenStore = (*RedisTokenStore)(nil)

func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = auth.TokenKey
	}
	return &RedisTokenStore{client: client, key: key}
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("database.RedisTokenStore.Load -> %w", err)
	}
	return value, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	var ttl time.Duration
	if claims, err := auth.InspectToken(token); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("database.RedisTokenStore.Save -> %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("database.RedisTokenStore.Clear -> %w", err)
	}
	return nil
}
