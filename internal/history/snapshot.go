package history

import (
	"mt4-report-analyzer/internal/models"
)

// Snapshot converts the history into a storable snapshot.
func (h *TradeHistory) Snapshot(source string) *models.Snapshot {
	s := &models.Snapshot{
		SchemaVersion: models.SnapshotSchemaVersion,
		Currency:      h.currency,
		Source:        source,
		Trades:        make([]models.Trade, 0, len(h.trades)),
		Balances:      h.Balances(),
	}
	// Rows get new IDs when the snapshot is stored.
	for _, t := range h.trades {
		row := *t
		row.ID, row.SnapshotID = 0, 0
		s.Trades = append(s.Trades, row)
	}
	for i := range s.Balances {
		s.Balances[i].ID, s.Balances[i].SnapshotID = 0, 0
	}
	return s
}

// FromSnapshot rebuilds a history from a stored snapshot. The snapshot rows
// are copied, so later changes to the history do not affect s.
func FromSnapshot(s *models.Snapshot) *TradeHistory {
	h := &TradeHistory{
		currency: s.Currency,
		trades:   make([]*models.Trade, 0, len(s.Trades)),
		balances: make([]models.Balance, len(s.Balances)),
	}
	for i := range s.Trades {
		t := s.Trades[i]
		h.trades = append(h.trades, &t)
	}
	copy(h.balances, s.Balances)
	return h
}
