package usecase

import "context"

func (m *MemoryStorage) DeleteSession(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
