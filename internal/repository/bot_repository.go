package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tradelink/internal/models"
)

// BotRepository - работа с таблицей bots
type BotRepository struct {
	db *sql.DB
}

// NewBotRepository создает новый экземпляр репозитория
func NewBotRepository(db *sql.DB) *BotRepository {
	return &BotRepository{db: db}
}

const botColumns = `id, owner_id, name, account_id, pair, strategy, bot_type, profit_currency,
		base_order_size, start_order_type, take_profit_type, target_profit_percent,
		remote_bot_id, identity, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBot(row rowScanner) (*models.Bot, error) {
	b := &models.Bot{}
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.AccountID,
		&b.Pair,
		&b.Strategy,
		&b.BotType,
		&b.ProfitCurrency,
		&b.BaseOrderSize,
		&b.StartOrderType,
		&b.TakeProfitType,
		&b.TargetProfitPercent,
		&b.RemoteBotID,
		&b.Identity,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create сохраняет локальную запись бота. Пустой ID заполняется UUID,
// пустой статус - running, пустая идентичность - owner.
func (r *BotRepository) Create(ctx context.Context, b *models.Bot) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = models.BotStatusRunning
	}
	if b.Identity == "" {
		b.Identity = models.BotIdentityOwner
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bots (`+botColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		b.ID,
		b.OwnerID,
		b.Name,
		b.AccountID,
		b.Pair,
		b.Strategy,
		b.BotType,
		b.ProfitCurrency,
		b.BaseOrderSize,
		b.StartOrderType,
		b.TakeProfitType,
		b.TargetProfitPercent,
		b.RemoteBotID,
		string(b.Identity),
		string(b.Status),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBotExists
		}
		return errors.Wrap(err, "insert bot")
	}
	return nil
}

// GetByID возвращает бота по локальному id
func (r *BotRepository) GetByID(ctx context.Context, id string) (*models.Bot, error) {
	b, err := scanBot(r.db.QueryRowContext(ctx, `SELECT `+botColumns+` FROM bots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, ErrBotNotFound
		}
		return nil, errors.Wrap(err, "query bot")
	}
	return b, nil
}

// ListByOwner возвращает ботов владельца, новые первыми
func (r *BotRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Bot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+botColumns+` FROM bots WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "query bots")
	}
	defer rows.Close()

	bots := make([]*models.Bot, 0)
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan bot")
		}
		bots = append(bots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate bots")
	}
	return bots, nil
}

// UpdateStatus сохраняет статус после успешного удаленного вызова
func (r *BotRepository) UpdateStatus(ctx context.Context, id string, status models.BotStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bots SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC(),
	)
	if err != nil {
		if isInvalidText(err) {
			return ErrBotNotFound
		}
		return errors.Wrap(err, "update bot status")
	}
	return expectAffected(res, ErrBotNotFound)
}

// Delete удаляет локальную запись бота
func (r *BotRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bots WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return ErrBotNotFound
		}
		return errors.Wrap(err, "delete bot")
	}
	return expectAffected(res, ErrBotNotFound)
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
