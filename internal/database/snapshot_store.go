package database

import (
	"errors"
	"fmt"

	"mt4-report-analyzer/internal/history"
	"mt4-report-analyzer/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSchemaVersionMismatch is returned when a snapshot was stored by an
	// incompatible version of the models.
	ErrSchemaVersionMismatch = errors.New("snapshot schema version mismatch")
	// ErrSnapshotNotFound is returned when no snapshot matches the query.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotStore persists trade histories, so a statement does not have to be
// parsed and enriched again.
type SnapshotStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSnapshotStore creates a new SnapshotStore over a migrated database.
func NewSnapshotStore(db *gorm.DB, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{db: db, logger: logger.Named("snapshot-store")}
}

// Save stores h with its trades and balances in one transaction and returns the snapshot ID.
func (s *SnapshotStore) Save(h *history.TradeHistory, source string) (uint, error) {
	snapshot := h.Snapshot(source)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(snapshot).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot of %s: %w", source, err)
	}

	s.logger.Info("Snapshot saved",
		zap.Uint("id", snapshot.ID),
		zap.String("source", source),
		zap.Int("trades", len(snapshot.Trades)),
		zap.Int("balances", len(snapshot.Balances)),
	)
	return snapshot.ID, nil
}

// Load rebuilds the history stored under id.
func (s *SnapshotStore) Load(id uint) (*history.TradeHistory, error) {
	return s.load(func(tx *gorm.DB) *gorm.DB { return tx.Where("id = ?", id) })
}

// Latest rebuilds the most recently stored history of source.
func (s *SnapshotStore) Latest(source string) (*history.TradeHistory, error) {
	return s.load(func(tx *gorm.DB) *gorm.DB {
		return tx.Where("source = ?", source).Order("id desc")
	})
}

func (s *SnapshotStore) load(scope func(*gorm.DB) *gorm.DB) (*history.TradeHistory, error) {
	var snapshot models.Snapshot
	err := scope(s.db).
		Preload("Trades", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Balances", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Take(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if snapshot.SchemaVersion != models.SnapshotSchemaVersion {
		return nil, fmt.Errorf("%w: snapshot %d has version %d, expected %d",
			ErrSchemaVersionMismatch, snapshot.ID, snapshot.SchemaVersion, models.SnapshotSchemaVersion)
	}

	s.logger.Debug("Snapshot loaded", zap.Uint("id", snapshot.ID), zap.Int("trades", len(snapshot.Trades)))
	return history.FromSnapshot(&snapshot), nil
}
