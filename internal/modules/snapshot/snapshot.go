// Package snapshot exports and restores full-fidelity portfolio
// snapshots as local msgpack files.
package snapshot

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"stocktrack/internal/domain"
	"stocktrack/internal/modules/portfolio"
)

// snapshotFile is the on-disk layout. Unlike the SQLite store, dates
// are encoded losslessly, so a snapshot survives the two-digit-year
// truncation of the textual date column.
type snapshotFile struct {
	SavedAt time.Time      `msgpack:"saved_at"`
	Stocks  []domain.Stock `msgpack:"stocks"`
}

// Service exports and restores portfolio snapshots
type Service struct {
	log zerolog.Logger
}

// NewService creates a new snapshot service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "snapshot").Logger(),
	}
}

// Export writes the entire in-memory portfolio to path.
func (s *Service) Export(path string, pf *portfolio.Portfolio) error {
	snap := snapshotFile{
		SavedAt: time.Now().UTC(),
		Stocks:  make([]domain.Stock, 0, pf.Len()),
	}
	for _, stock := range pf.Stocks() {
		snap.Stocks = append(snap.Stocks, *stock)
	}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	s.log.Info().Str("path", path).Int("stocks", pf.Len()).Msg("Snapshot exported")
	return nil
}

// Restore replaces the in-memory portfolio with the snapshot at path.
// The portfolio is only cleared once the file has decoded successfully.
func (s *Service) Restore(path string, pf *portfolio.Portfolio) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap snapshotFile
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	pf.Clear()
	for i := range snap.Stocks {
		stock := snap.Stocks[i]
		pf.Restore(&stock)
	}

	s.log.Info().Str("path", path).Int("stocks", pf.Len()).Msg("Snapshot restored")
	return nil
}
