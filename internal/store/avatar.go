package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/userhub/apiserver/types"
)

// AvatarRepository handles persistence for avatar cache entries.
type AvatarRepository struct {
	db *sql.DB
}

func NewAvatarRepository(db *sql.DB) *AvatarRepository {
	return &AvatarRepository{db: db}
}

func (r *AvatarRepository) FindByUserID(ctx context.Context, userID int) (types.AvatarEntry, error) {
	const query = `
		SELECT user_id, hash, file_path, created_at
		FROM avatars
		WHERE user_id = $1`
	var entry types.AvatarEntry
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&entry.UserID,
		&entry.Hash,
		&entry.FilePath,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AvatarEntry{}, ErrNotFound
		}
		return types.AvatarEntry{}, err
	}
	return entry, nil
}

// Create stores the entry. A concurrent insert for the same user that got
// there first wins; the duplicate is dropped without error.
func (r *AvatarRepository) Create(ctx context.Context, entry types.AvatarEntry) error {
	const query = `
		INSERT INTO avatars (user_id, hash, file_path, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, entry.UserID, entry.Hash, entry.FilePath, entry.CreatedAt)
	return err
}

// FindAndDelete removes the entry for the user and returns it.
func (r *AvatarRepository) FindAndDelete(ctx context.Context, userID int) (types.AvatarEntry, error) {
	const query = `
		DELETE FROM avatars
		WHERE user_id = $1
		RETURNING user_id, hash, file_path, created_at`
	var entry types.AvatarEntry
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&entry.UserID,
		&entry.Hash,
		&entry.FilePath,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AvatarEntry{}, ErrNotFound
		}
		return types.AvatarEntry{}, err
	}
	return entry, nil
}

// CountByHash reports how many entries still reference the given content hash.
func (r *AvatarRepository) CountByHash(ctx context.Context, hash string) (int64, error) {
	const query = `SELECT COUNT(*) FROM avatars WHERE hash = $1`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, hash).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
