package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-api/storefront/internal/domain/auth"
)

const getTokenByHashSQL = `SELECT t.id, t.key_hash, t.user_id, u.username
	FROM auth_tokens t JOIN users u ON u.id = t.user_id
	WHERE t.key_hash = $1 AND t.active = TRUE`

var _ auth.Repository = (*TokenRepository)(nil)

// TokenRepository provides access token lookups backed by PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository that uses the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByHash looks up an active token by its HMAC-SHA256 hash.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*auth.TokenInfo, error) {
	var info auth.TokenInfo
	err := r.pool.QueryRow(ctx, getTokenByHashSQL, hash).Scan(
		&info.ID, &info.KeyHash, &info.UserID, &info.Username,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("token not found: %w", err)
		}
		return nil, fmt.Errorf("finding token by hash: %w", err)
	}
	return &info, nil
}
