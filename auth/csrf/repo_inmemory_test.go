package csrf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndConsumeOnce(t *testing.T) {
	repo := NewInMemory(10 * time.Minute)

	token, err := repo.GenerateToken(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	valid, err := repo.CheckAndConsume(context.Background(), token)
	require.NoError(t, err)
	require.True(t, valid)

	// Every subsequent check of the same token fails.
	for range 3 {
		valid, err = repo.CheckAndConsume(context.Background(), token)
		require.NoError(t, err)
		require.False(t, valid)
	}
}

func TestUnknownTokenIsInvalid(t *testing.T) {
	repo := NewInMemory(10 * time.Minute)

	valid, err := repo.CheckAndConsume(context.Background(), "never-issued")
	require.NoError(t, err)
	require.False(t, valid)
}

func TestExpiredTokenIsInvalidAndConsumed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewInMemory(10*time.Minute, WithNowTime(func() time.Time { return now }))

	token, err := repo.GenerateToken(context.Background())
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)

	valid, err := repo.CheckAndConsume(context.Background(), token)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestExpiredTokensAreReaped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewInMemory(10*time.Minute, WithNowTime(func() time.Time { return now }))

	for range 5 {
		_, err := repo.GenerateToken(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, repo.pending, 5)

	now = now.Add(11 * time.Minute)
	_, err := repo.GenerateToken(context.Background())
	require.NoError(t, err)

	// Only the freshly issued token remains.
	require.Len(t, repo.pending, 1)
}

func TestConcurrentConsumeYieldsOneTrue(t *testing.T) {
	repo := NewInMemory(10 * time.Minute)

	token, err := repo.GenerateToken(context.Background())
	require.NoError(t, err)

	const workers = 32

	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			valid, err := repo.CheckAndConsume(context.Background(), token)
			require.NoError(t, err)
			results <- valid
		}()
	}
	wg.Wait()
	close(results)

	trueCount := 0
	for valid := range results {
		if valid {
			trueCount++
		}
	}
	require.Equal(t, 1, trueCount)
}

func TestTokensAreUnique(t *testing.T) {
	repo := NewInMemory(10 * time.Minute)

	seen := make(map[string]struct{})
	for range 100 {
		token, err := repo.GenerateToken(context.Background())
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
