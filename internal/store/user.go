package store

import (
	"context"
	"database/sql"

	"github.com/userhub/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user as given. Email is not checked for uniqueness.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (id, email, first_name, last_name, name, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Name,
		user.Avatar,
		user.CreatedAt,
	); err != nil {
		return types.User{}, err
	}
	return user, nil
}
