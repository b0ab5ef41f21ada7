package database

import (
	"testing"

	"mt4-report-analyzer/internal/config"
	"mt4-report-analyzer/internal/history"
	"mt4-report-analyzer/internal/models"
	"mt4-report-analyzer/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTest creates a store over a new, non-shared in-memory database.
func setupTest(t *testing.T) (*SnapshotStore, *gorm.DB) {
	db, err := NewDatabase(&config.Database{DSN: "file::memory:"})
	require.NoError(t, err)
	return NewSnapshotStore(db, zap.NewNop()), db
}

func buildHistory(t *testing.T) *history.TradeHistory {
	p, err := report.FromFile("../report/testdata/statement.htm", zap.NewNop())
	require.NoError(t, err)
	h, err := history.NewBuilder(zap.NewNop()).Build(p)
	require.NoError(t, err)
	return h
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	store, _ := setupTest(t)
	h := buildHistory(t)
	h.Trades()[0].High = 1.2
	h.Trades()[0].Enriched = true

	id, err := store.Save(h, "statement.htm")
	require.NoError(t, err)
	assert.NotZero(t, id)

	loaded, err := store.Load(id)
	require.NoError(t, err)

	assert.Equal(t, h.Currency(), loaded.Currency())
	require.Len(t, loaded.Trades(), len(h.Trades()))
	for i, want := range h.Trades() {
		got := loaded.Trades()[i]
		assert.Equal(t, want.Order, got.Order)
		assert.Equal(t, want.Symbol, got.Symbol)
		assert.True(t, want.OpenTime.Equal(got.OpenTime))
		assert.True(t, want.CloseTime.Equal(got.CloseTime))
		assert.Equal(t, want.Profit, got.Profit)
		assert.Equal(t, want.StopLoss, got.StopLoss)
		assert.Equal(t, want.TakeProfit, got.TakeProfit)
		assert.Equal(t, want.High, got.High)
		assert.Equal(t, want.Enriched, got.Enriched)
		assert.Equal(t, want.Duration, got.Duration)
	}
	require.Len(t, loaded.Balances(), 2)
	assert.Equal(t, 10000.0, loaded.Balances()[0].Amount)
	assert.Equal(t, models.BalanceTypeWithdrawal, loaded.Balances()[1].BalanceType)
	assert.Len(t, loaded.ForexTrades(), 2)
}

func TestSnapshotStore_SaveLoadedHistoryAgain(t *testing.T) {
	store, _ := setupTest(t)

	first, err := store.Save(buildHistory(t), "statement.htm")
	require.NoError(t, err)
	loaded, err := store.Load(first)
	require.NoError(t, err)

	second, err := store.Save(loaded, "statement.htm")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	latest, err := store.Latest("statement.htm")
	require.NoError(t, err)
	assert.Len(t, latest.Trades(), len(loaded.Trades()))
}

func TestSnapshotStore_NotFound(t *testing.T) {
	store, _ := setupTest(t)

	_, err := store.Load(42)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = store.Latest("missing.htm")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStore_SchemaVersionMismatch(t *testing.T) {
	store, db := setupTest(t)
	id, err := store.Save(buildHistory(t), "statement.htm")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Snapshot{}).Where("id = ?", id).
		Update("schema_version", models.SnapshotSchemaVersion+1).Error)

	_, err = store.Load(id)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)
}
