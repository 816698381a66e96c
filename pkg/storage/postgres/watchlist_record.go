package postgres

import "time"

// WatchlistRecord is one symbol the dashboard subscribes to.
type WatchlistRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:32;not null;uniqueIndex"`
	Enabled   bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (WatchlistRecord) TableName() string {
	return "watchlist_symbol"
}
