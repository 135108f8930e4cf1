package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"tradelink/internal/models"
)

// OwnerRepository - работа с таблицей owners
type OwnerRepository struct {
	db *sql.DB
}

// NewOwnerRepository создает новый экземпляр репозитория
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// GetByID возвращает владельца по внешнему id
func (r *OwnerRepository) GetByID(ctx context.Context, ownerID string) (*models.Owner, error) {
	query := `
		SELECT owner_id, created_at, updated_at
		FROM owners
		WHERE owner_id = $1`

	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&owner.OwnerID,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, errors.Wrap(err, "query owner")
	}
	return owner, nil
}

// Exists проверяет наличие владельца
func (r *OwnerRepository) Exists(ctx context.Context, ownerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM owners WHERE owner_id = $1)`, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check owner")
	}
	return exists, nil
}
