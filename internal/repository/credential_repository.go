package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"tradelink/internal/models"
)

// CredentialRepository - работа с таблицей credentials
//
// Значения api_key/api_secret приходят и уходят уже зашифрованными,
// репозиторий plaintext ключей не видит.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository создает новый экземпляр репозитория
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Upsert сохраняет ключи вендора, создавая владельца при первом подключении.
// Обе записи пишутся в одной транзакции.
func (r *CredentialRepository) Upsert(ctx context.Context, ownerID string, vendor models.Vendor, encKey, encSecret string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO owners (owner_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (owner_id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		ownerID, now,
	)
	if err != nil {
		return errors.Wrap(err, "upsert owner")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (owner_id, vendor, api_key, api_secret, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, vendor) DO UPDATE
		SET api_key = EXCLUDED.api_key, api_secret = EXCLUDED.api_secret, updated_at = EXCLUDED.updated_at`,
		ownerID, string(vendor), encKey, encSecret, now,
	)
	if err != nil {
		return errors.Wrap(err, "upsert credential")
	}

	return errors.Wrap(tx.Commit(), "commit credential")
}

// Get возвращает запись ключей вендора
func (r *CredentialRepository) Get(ctx context.Context, ownerID string, vendor models.Vendor) (*models.Credential, error) {
	query := `
		SELECT owner_id, vendor, api_key, api_secret, updated_at
		FROM credentials
		WHERE owner_id = $1 AND vendor = $2`

	var (
		cred   models.Credential
		vend   string
		key    sql.NullString
		secret sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, ownerID, string(vendor)).Scan(
		&cred.OwnerID,
		&vend,
		&key,
		&secret,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, errors.Wrap(err, "query credential")
	}

	cred.Vendor = models.Vendor(vend)
	if key.Valid {
		cred.APIKey = &key.String
	}
	if secret.Valid {
		cred.APISecret = &secret.String
	}
	return &cred, nil
}

// Clear обнуляет ключи вендора. Отсутствие записи не ошибка.
func (r *CredentialRepository) Clear(ctx context.Context, ownerID string, vendor models.Vendor) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET api_key = NULL, api_secret = NULL, updated_at = $3
		WHERE owner_id = $1 AND vendor = $2`,
		ownerID, string(vendor), time.Now().UTC(),
	)
	return errors.Wrap(err, "clear credential")
}
