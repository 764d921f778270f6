package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Yield-Bank-Backend/internal/apperrors"
	"github.com/ndewijer/Yield-Bank-Backend/internal/model"
)

// HoldingRepository provides data access methods for the stock_holding table.
// An empty ownerID on any method means "any owner"; the scheduler uses that
// to work across tenants.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const holdingColumns = `
	id, owner_id, name, symbol, purchase_price, purchase_date,
	current_price, price_date, profit_rate, take_profit_rate, stop_loss_rate,
	enabled, hidden, created_at, updated_at`

// ListHoldings returns the owner's holdings in insertion order.
func (r *HoldingRepository) ListHoldings(ctx context.Context, ownerID string) ([]model.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM stock_holding
		WHERE (? = '' OR owner_id = ?)
		ORDER BY created_at ASC, rowid ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// GetHolding returns one holding, or apperrors.ErrHoldingNotFound.
func (r *HoldingRepository) GetHolding(ctx context.Context, ownerID, id string) (model.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM stock_holding
		WHERE id = ? AND (? = '' OR owner_id = ?)`

	h, err := scanHolding(r.getQuerier().QueryRowContext(ctx, query, id, ownerID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// InsertHolding stores a new holding. ID and timestamps must already be set.
func (r *HoldingRepository) InsertHolding(ctx context.Context, h model.Holding) error {
	query := `
		INSERT INTO stock_holding (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.getQuerier().ExecContext(ctx, query,
		h.ID,
		h.OwnerID,
		h.Name,
		h.Symbol,
		h.PurchasePrice,
		formatDate(h.PurchaseDate),
		h.CurrentPrice,
		nullableDate(h.CurrentDate),
		h.ProfitRate,
		h.TakeProfitRate,
		h.StopLossRate,
		h.Enabled,
		h.Hidden,
		formatTimestamp(h.CreatedAt),
		formatTimestamp(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateHolding overwrites the user-editable fields of a holding.
func (r *HoldingRepository) UpdateHolding(ctx context.Context, h model.Holding) error {
	query := `
		UPDATE stock_holding
		SET name = ?, symbol = ?, purchase_price = ?, purchase_date = ?,
			profit_rate = ?, take_profit_rate = ?, stop_loss_rate = ?,
			enabled = ?, hidden = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query,
		h.Name,
		h.Symbol,
		h.PurchasePrice,
		formatDate(h.PurchaseDate),
		h.ProfitRate,
		h.TakeProfitRate,
		h.StopLossRate,
		h.Enabled,
		h.Hidden,
		formatTimestamp(h.UpdatedAt),
		h.ID,
		h.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	return affectedOrNotFound(result, apperrors.ErrHoldingNotFound)
}

// UpdateHoldingSnapshot writes the price snapshot fields of a single row.
func (r *HoldingRepository) UpdateHoldingSnapshot(ctx context.Context, id string, s model.Snapshot) error {
	query := `
		UPDATE stock_holding
		SET current_price = ?, price_date = ?, profit_rate = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query,
		s.CurrentPrice,
		nullableDate(s.CurrentDate),
		s.ProfitRate,
		formatTimestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding snapshot: %w", err)
	}
	return affectedOrNotFound(result, apperrors.ErrHoldingNotFound)
}

// DeleteHolding removes a holding.
func (r *HoldingRepository) DeleteHolding(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM stock_holding WHERE id = ? AND (? = '' OR owner_id = ?)`

	result, err := r.getQuerier().ExecContext(ctx, query, id, ownerID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return affectedOrNotFound(result, apperrors.ErrHoldingNotFound)
}

// SetHidden sets the hidden flag of a holding.
func (r *HoldingRepository) SetHidden(ctx context.Context, ownerID, id string, hidden bool) error {
	query := `
		UPDATE stock_holding
		SET hidden = ?, updated_at = ?
		WHERE id = ? AND (? = '' OR owner_id = ?)`

	result, err := r.getQuerier().ExecContext(ctx, query, hidden, formatTimestamp(time.Now()), id, ownerID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to set hidden flag: %w", err)
	}
	return affectedOrNotFound(result, apperrors.ErrHoldingNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (model.Holding, error) {
	var (
		h                              model.Holding
		purchaseDate, created, updated string
		priceDate                      sql.NullString
	)

	err := row.Scan(
		&h.ID,
		&h.OwnerID,
		&h.Name,
		&h.Symbol,
		&h.PurchasePrice,
		&purchaseDate,
		&h.CurrentPrice,
		&priceDate,
		&h.ProfitRate,
		&h.TakeProfitRate,
		&h.StopLossRate,
		&h.Enabled,
		&h.Hidden,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Holding{}, err
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to scan holding: %w", err)
	}

	if h.PurchaseDate, err = ParseTime(purchaseDate); err != nil {
		return model.Holding{}, err
	}
	if priceDate.Valid {
		if h.CurrentDate, err = ParseTime(priceDate.String); err != nil {
			return model.Holding{}, err
		}
	}
	if h.CreatedAt, err = ParseTime(created); err != nil {
		return model.Holding{}, err
	}
	if h.UpdatedAt, err = ParseTime(updated); err != nil {
		return model.Holding{}, err
	}

	return h, nil
}
