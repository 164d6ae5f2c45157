package usecase

import (
	"context"
	"sync"
	"time"

	"stickers_bot/internal/pkg/session/domain"
)

// Storage keeps one session record per user.
type Storage interface {
	// GetSession returns nil, nil when the user has no session yet.
	GetSession(ctx context.Context, userID int64) (*domain.UserSession, error)
	SaveSession(ctx context.Context, session *domain.UserSession) error
	DeleteSession(ctx context.Context, userID int64) error
	// ExpiredSessions lists the active conversations last updated before the given time.
	ExpiredSessions(ctx context.Context, before time.Time) ([]*domain.UserSession, error)
	CountActive(ctx context.Context) (int64, error)
}

type MemoryStorage struct {
	sessions map[int64]*domain.UserSession
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[int64]*domain.UserSession),
	}
}
