package usecase

import (
	"context"
	"time"

	"stickers_bot/internal/pkg/session/domain"
)

func (m *MemoryStorage) GetSession(_ context.Context, userID int64) (*domain.UserSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessions[userID]
	if !exists {
		return nil, nil
	}
	return session.Clone(), nil
}

func (m *MemoryStorage) ExpiredSessions(_ context.Context, before time.Time) ([]*domain.UserSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var expired []*domain.UserSession
	for _, session := range m.sessions {
		if session.Active() && session.UpdatedAt.Before(before) {
			expired = append(expired, session.Clone())
		}
	}
	return expired, nil
}

func (m *MemoryStorage) CountActive(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, session := range m.sessions {
		if session.Active() {
			count++
		}
	}
	return count, nil
}
