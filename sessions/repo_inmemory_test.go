package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guildscript/webapi/identity"
)

var testUser = identity.User{ID: 42, Username: "alice", Avatar: "abc123"}

var testCreds = identity.Credentials{
	AccessToken: "access-token",
	TokenType:   "Bearer",
	Expiry:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
}

func TestCreateAndGet(t *testing.T) {
	repo := NewInMemory(time.Hour)

	session, err := repo.Create(context.Background(), testUser, testCreds)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	stored, err := repo.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, testUser, stored.User)
	require.Equal(t, testCreds, stored.Credentials)
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	repo := NewInMemory(time.Hour)

	stored, err := repo.Get(context.Background(), "no-such-token")
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestDelete(t *testing.T) {
	repo := NewInMemory(time.Hour)

	session, err := repo.Create(context.Background(), testUser, testCreds)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), session.Token))

	stored, err := repo.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.Nil(t, stored)

	// Deleting a missing session is a no-op.
	require.NoError(t, repo.Delete(context.Background(), session.Token))
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewInMemory(time.Hour, WithNowTime(func() time.Time { return now }))

	session, err := repo.Create(context.Background(), testUser, testCreds)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	stored, err := repo.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)

	now = now.Add(31 * time.Minute)
	stored, err = repo.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestTokensAreUniqueAndOpaque(t *testing.T) {
	repo := NewInMemory(time.Hour)

	seen := make(map[string]struct{})
	for range 50 {
		session, err := repo.Create(context.Background(), testUser, testCreds)
		require.NoError(t, err)

		_, dup := seen[session.Token]
		require.False(t, dup)
		seen[session.Token] = struct{}{}
	}
}

func TestCallersGetCopies(t *testing.T) {
	repo := NewInMemory(time.Hour)

	session, err := repo.Create(context.Background(), testUser, testCreds)
	require.NoError(t, err)

	session.User.Username = "mallory"

	stored, err := repo.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", stored.User.Username)
}
