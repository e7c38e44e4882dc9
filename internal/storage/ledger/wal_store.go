// Package ledger persists trade outcomes in an append-only WAL. The
// engine itself never reads the ledger back; it exists for auditing and
// for the optional remote sheet mirror.
package ledger

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

const (
	outcomeKeyPrefix       = "trade_outcome_"
	ledgerSegmentThreshold = 1000
	ledgerMaxSegments      = 100
)

// WALStore is an append-only trade ledger backed by a write-ahead log.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore opens (or creates) the ledger under dir.
func NewWALStore(dir string) (*WALStore, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "ledger_",
		SegmentThreshold: ledgerSegmentThreshold,
		MaxSegments:      ledgerMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade ledger WAL")
	}
	return &WALStore{wal: wal}, nil
}

// Append writes one outcome row. Rows are never updated or deleted.
func (s *WALStore) Append(outcome domain.TradeOutcome) error {
	if s == nil || s.wal == nil {
		return errors.New("trade ledger is not initialized")
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return errors.Wrap(err, "marshal trade outcome")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.wal.CurrentIndex() + 1
	key := outcomeKeyPrefix + outcome.Timestamp.UTC().Format("20060102T150405.000000000") + "_" + outcome.Instruction.Symbol
	if err := s.wal.Write(index, key, payload); err != nil {
		return errors.Wrap(err, "append trade outcome")
	}
	return nil
}

// Outcomes replays every ledger row in append order.
func (s *WALStore) Outcomes() ([]domain.TradeOutcome, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade ledger is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var outcomes []domain.TradeOutcome
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, outcomeKeyPrefix) {
			continue
		}
		var outcome domain.TradeOutcome
		if err := json.Unmarshal(msg.Value, &outcome); err != nil {
			return nil, errors.Wrapf(err, "unmarshal ledger row %s", msg.Key)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Close releases the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}
	return s.wal.Close()
}
