package models

import "time"

// SnapshotSchemaVersion must be bumped whenever Trade, Balance or Snapshot
// change in a way that makes previously stored rows unreadable.
const SnapshotSchemaVersion = 1

// Snapshot is a stored trade history. A snapshot written with another
// schema version is rejected on load.
type Snapshot struct {
	ID            uint      `gorm:"primaryKey"`
	SchemaVersion int       `gorm:"not null"`
	Currency      string    `gorm:"size:3;not null"`
	Source        string    `gorm:"not null"`
	CreatedAt     time.Time
	Trades        []Trade   `gorm:"constraint:OnDelete:CASCADE"`
	Balances      []Balance `gorm:"constraint:OnDelete:CASCADE"`
}
