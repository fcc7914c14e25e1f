package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hotel-vouchers/internal/migrations"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
	"github.com/magabrotheeeer/hotel-vouchers/internal/storage/pgtest"
)

func setupStorage(t *testing.T) *Storage {
	dsn := pgtest.Start(t)
	ctx := context.Background()

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, migrations.Run(s.DB, pgtest.MigrationsPath(t)))
	require.NoError(t, CheckDatabaseReady(ctx, s))
	return s
}

func insertUser(t *testing.T, s *Storage, u models.User) (string, error) {
	t.Helper()
	var uid string
	err := s.DB.QueryRowContext(context.Background(),
		`INSERT INTO users (email, username, role) VALUES ($1, $2, $3) RETURNING uid`,
		u.Email, u.Username, u.Role).Scan(&uid)
	return uid, err
}

func TestStorage_Users(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	uid, err := insertUser(t, s, models.User{Email: "guest@example.com", Username: "guest", Role: "user"})
	require.NoError(t, err)
	_, err = uuid.Parse(uid)
	require.NoError(t, err)

	t.Run("get existing user", func(t *testing.T) {
		u, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "guest", u.Username)
		assert.Equal(t, models.UserStatusActive, u.Status)
		assert.True(t, u.Active())
		assert.False(t, u.CreatedAt.IsZero())
	})

	t.Run("unknown uid", func(t *testing.T) {
		_, err := s.GetUser(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("malformed uid", func(t *testing.T) {
		_, err := s.GetUser(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("blocked user", func(t *testing.T) {
		_, err := s.DB.ExecContext(ctx, `UPDATE users SET status = $1 WHERE uid::text = $2`, models.UserStatusBlocked, uid)
		require.NoError(t, err)

		u, err := s.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.False(t, u.Active())
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := insertUser(t, s, models.User{Email: "other@example.com", Username: "guest", Role: "user"})
		assert.Error(t, err)
	})
}

func TestStorage_CancelledContext(t *testing.T) {
	s := setupStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, context.Canceled)
}
