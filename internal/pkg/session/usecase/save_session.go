package usecase

import (
	"context"

	"stickers_bot/internal/pkg/session/domain"
)

func (m *MemoryStorage) SaveSession(_ context.Context, session *domain.UserSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = session.Clone()
	return nil
}
