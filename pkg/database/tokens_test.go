package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func memoryDSN() string {
	return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
}

func TestTokenStore(t *testing.T) {
	db, err := Open(Config{SQLitePath: memoryDSN()})
	require.NoError(t, err)

	store, err := NewTokenStore(db, "")
	require.NoError(t, err)
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(ctx, "first"))
	require.NoError(t, store.Save(ctx, "second"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	var count int64
	db.Model(&SessionToken{}).Count(&count)
	assert.Equal(t, int64(1), count, "save upserts a single row")

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenStore_KeysAreIndependent(t *testing.T) {
	db, err := Open(Config{SQLitePath: memoryDSN()})
	require.NoError(t, err)

	a, err := NewTokenStore(db, "profile-a")
	require.NoError(t, err)
	b, err := NewTokenStore(db, "profile-b")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Save(ctx, "token-a"))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisTokenStore(t *testing.T) {
	addr := os.Getenv("STAFFMONITR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STAFFMONITR_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	store := NewRedisTokenStore(client, "staffmonitr_test_"+uuid.NewString())

	token, _, err := auth.CreateToken([]byte("secret"), "st-1", models.RoleStaff, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, token))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	ttl, err := client.TTL(ctx, store.key).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
