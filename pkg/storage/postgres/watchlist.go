package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// ListWatchedSymbols returns the enabled symbols ordered by name.
func (p *PostgresClient) ListWatchedSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := p.DB.WithContext(ctx).
		Model(&WatchlistRecord{}).
		Where("enabled = ?", true).
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return symbols, nil
}

// AddSymbol inserts symbol; an existing row is left untouched.
func (p *PostgresClient) AddSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}

	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&WatchlistRecord{Symbol: symbol, Enabled: true}).Error
}

// SetEnabled toggles a symbol without deleting its row.
func (p *PostgresClient) SetEnabled(ctx context.Context, symbol string, enabled bool) error {
	return p.DB.WithContext(ctx).
		Model(&WatchlistRecord{}).
		Where("symbol = ?", strings.ToUpper(symbol)).
		Update("enabled", enabled).Error
}
