package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"stickers_bot/internal/pkg/pack/domain"
)

// ErrDuplicatePack is returned by SavePack when the user already has a pack
// with the same name.
var ErrDuplicatePack = errors.New("pack already registered")

const packColumns = `pack_id, user_id, title, name, type, is_animated`

type PackStorage struct {
	db *sql.DB
}

func NewPackStorage(db *sql.DB) *PackStorage {
	return &PackStorage{db: db}
}

func (p *PackStorage) SavePack(ctx context.Context, pack *domain.Pack) error {
	var packType sql.NullInt64
	if pack.Type != nil {
		packType = sql.NullInt64{Int64: int64(*pack.Type), Valid: true}
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO packs (user_id, title, name, type, is_animated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING pack_id
	`, pack.UserID, pack.Title, pack.Name, packType, pack.IsAnimated).Scan(&pack.ID)
	if isUniqueViolation(err) {
		return ErrDuplicatePack
	}
	if err != nil {
		return fmt.Errorf("insert pack %s: %w", pack.Name, err)
	}
	return nil
}

func (p *PackStorage) GetPack(ctx context.Context, userID int64, name string) (*domain.Pack, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+packColumns+`
		FROM packs
		WHERE user_id = $1 AND name = $2
	`, userID, name)

	pack, err := scanPack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pack, nil
}

func (p *PackStorage) NameExists(ctx context.Context, userID int64, name string) (bool, error) {
	var exists int
	err := p.db.QueryRowContext(ctx, `
		SELECT 1 FROM packs
		WHERE user_id = $1 AND name = $2
	`, userID, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PackStorage) ListTitles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT title
		FROM packs
		WHERE user_id = $1
		ORDER BY title
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (p *PackStorage) GetPacksByTitle(ctx context.Context, userID int64, title string) ([]*domain.Pack, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+packColumns+`
		FROM packs
		WHERE user_id = $1 AND title = $2
		ORDER BY name
	`, userID, title)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []*domain.Pack
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pack)
	}
	return packs, rows.Err()
}

func (p *PackStorage) DeletePack(ctx context.Context, userID int64, name string) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM packs WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *PackStorage) CountPacks(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packs`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPack(s scanner) (*domain.Pack, error) {
	var (
		pack       domain.Pack
		packType   sql.NullInt64
		isAnimated sql.NullBool
	)
	if err := s.Scan(&pack.ID, &pack.UserID, &pack.Title, &pack.Name, &packType, &isAnimated); err != nil {
		return nil, err
	}
	if packType.Valid {
		t := domain.PackType(packType.Int64)
		pack.Type = &t
	}
	pack.IsAnimated = isAnimated.Valid && isAnimated.Bool
	return &pack, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
