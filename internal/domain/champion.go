package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Champion is static catalog data synced from Data Dragon, keyed by the
// numeric champion key that match payloads carry.
type Champion struct {
	ID           int            `json:"id" gorm:"primaryKey;autoIncrement:false"` // e.g. 266
	Slug         string         `json:"slug" gorm:"index"`                        // e.g. "Aatrox"
	Name         string         `json:"name" gorm:"not null"`
	Title        string         `json:"title"`
	ImageURL     string         `json:"imageUrl"`
	Tags         datatypes.JSON `json:"tags" gorm:"type:jsonb"` // ["Fighter", "Tank"]
	LastSyncedAt time.Time      `json:"lastSyncedAt"`
}

// Item is static catalog data synced from Data Dragon. Gold cost drives
// completed-item detection when folding builds into aggregates.
type Item struct {
	ID           int            `json:"id" gorm:"primaryKey;autoIncrement:false"` // e.g. 3078
	Name         string         `json:"name"`
	GoldTotal    int            `json:"goldTotal"`
	Purchasable  bool           `json:"purchasable"`
	Tags         datatypes.JSON `json:"tags" gorm:"type:jsonb"`
	LastSyncedAt time.Time      `json:"lastSyncedAt"`
}
