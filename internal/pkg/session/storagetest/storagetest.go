// Package storagetest holds the behaviour every session storage must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packdomain "stickers_bot/internal/pkg/pack/domain"
	"stickers_bot/internal/pkg/session/domain"
	"stickers_bot/internal/pkg/session/usecase"
)

func Run(t *testing.T, newStorage func(t *testing.T) usecase.Storage) {
	t.Run("missing session", func(t *testing.T) {
		s := newStorage(t)
		got, err := s.GetSession(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save and get", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)

		now := time.Now().UTC().Truncate(time.Millisecond)
		session := domain.NewUserSession(1, 10)
		session.Conversation = "create"
		session.State = domain.StateCreateWaitingFirstSticker
		session.Pack = &domain.PackDraft{Title: "t", Name: "n", Type: packdomain.PackTypeAnimated, Emojis: []string{"😀"}}
		session.Options.Crop = true
		session.Placeholder = &domain.PlaceholderFile{FileID: "file", GeneratedOn: now}
		session.UpdatedAt = now
		require.NoError(t, s.SaveSession(ctx, session))

		// the stored copy is not affected by later mutations
		session.Pack.Title = "changed"

		got, err := s.GetSession(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(10), got.ChatID)
		assert.Equal(t, domain.StateCreateWaitingFirstSticker, got.State)
		assert.Equal(t, "t", got.Pack.Title)
		assert.Equal(t, packdomain.PackTypeAnimated, got.Pack.Type)
		assert.Equal(t, []string{"😀"}, got.Pack.Emojis)
		assert.True(t, got.Options.Crop)
		assert.Equal(t, "file", got.Placeholder.FileID)
		assert.True(t, now.Equal(got.UpdatedAt))
	})

	t.Run("expired and active count", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		now := time.Now()

		old := domain.NewUserSession(1, 1)
		old.Conversation, old.State = "add", domain.StateWaitingSticker
		old.UpdatedAt = now.Add(-time.Hour)

		fresh := domain.NewUserSession(2, 2)
		fresh.Conversation, fresh.State = "tofile", domain.StateToFileWaitingSticker
		fresh.UpdatedAt = now

		idle := domain.NewUserSession(3, 3)
		idle.UpdatedAt = now.Add(-time.Hour)

		for _, session := range []*domain.UserSession{old, fresh, idle} {
			require.NoError(t, s.SaveSession(ctx, session))
		}

		expired, err := s.ExpiredSessions(ctx, now.Add(-15*time.Minute))
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, int64(1), expired[0].UserID)

		count, err := s.CountActive(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		// ending the conversation removes it from the active set
		old.Reset()
		require.NoError(t, s.SaveSession(ctx, old))
		expired, err = s.ExpiredSessions(ctx, now.Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, expired)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		require.NoError(t, s.SaveSession(ctx, domain.NewUserSession(5, 5)))
		require.NoError(t, s.DeleteSession(ctx, 5))

		got, err := s.GetSession(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, got)

		// deleting a missing session is not an error
		require.NoError(t, s.DeleteSession(ctx, 6))
	})
}
