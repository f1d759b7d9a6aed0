package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vibe-music/vibe-music-server/internal/domain"
)

// AdminRepository handles persistence for administrators.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (username, password_hash)
        VALUES ($1,$2)
        RETURNING id`

	return translate(r.pool.QueryRow(ctx, query, admin.Username, admin.PasswordHash).Scan(&admin.ID))
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	const query = `
        SELECT id, username, password_hash
        FROM admins WHERE username=$1`

	var admin domain.Admin
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
	); err != nil {
		return nil, err
	}
	return &admin, nil
}
