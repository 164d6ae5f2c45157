package repository

import (
	"context"

	"stickers_bot/internal/pkg/pack/domain"
)

type PackRepository interface {
	SavePack(ctx context.Context, pack *domain.Pack) error
	GetPack(ctx context.Context, userID int64, name string) (*domain.Pack, error)
	NameExists(ctx context.Context, userID int64, name string) (bool, error)
	ListTitles(ctx context.Context, userID int64) ([]string, error)
	GetPacksByTitle(ctx context.Context, userID int64, title string) ([]*domain.Pack, error)
	DeletePack(ctx context.Context, userID int64, name string) (int64, error)
	CountPacks(ctx context.Context) (int64, error)
}
