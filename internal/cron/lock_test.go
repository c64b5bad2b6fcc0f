package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (s *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLock_acquireAndRelease(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "bzl:lock:payout-worker", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := NewRedisLock(store, "bzl:lock:payout-worker", time.Minute)
	require.NoError(t, err)
	ok, err = other.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "second instance must not acquire a held lock")

	require.NoError(t, lock.Release(context.Background()))

	ok, err = other.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_releaseOnlyOwn(t *testing.T) {
	store := newFakeRedisStore()

	first, err := NewRedisLock(store, "bzl:lock:job", time.Minute)
	require.NoError(t, err)
	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate expiry followed by takeover.
	require.NoError(t, store.Del(context.Background(), "bzl:lock:job"))
	second, err := NewRedisLock(store, "bzl:lock:job", time.Minute)
	require.NoError(t, err)
	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(context.Background()))

	ok, err = first.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "the takeover's lock must survive a stale release")
}

func TestNewRedisLock_validation(t *testing.T) {
	_, err := NewRedisLock(nil, "key", time.Minute)
	require.Error(t, err)

	_, err = NewRedisLock(newFakeRedisStore(), "", time.Minute)
	require.Error(t, err)
}
