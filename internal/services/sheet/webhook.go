// Package sheet mirrors trade ledger rows to a remote tabular service.
// The mirror is best effort: a sync failure is logged and never affects
// trade execution or local ledger correctness.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"go.uber.org/zap"
)

const syncTimeout = 10 * time.Second

// row is the flat record shape the remote sheet receives.
type row struct {
	Timestamp      time.Time       `json:"timestamp"`
	Symbol         string          `json:"symbol"`
	Side           string          `json:"side"`
	RequestedValue decimal.Decimal `json:"requested_value"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	FilledPrice    decimal.Decimal `json:"filled_price"`
	Status         string          `json:"status"`
	Detail         string          `json:"detail,omitempty"`
}

// Mirror posts ledger rows to a webhook URL as a JSON array.
type Mirror struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewMirror returns a mirror for the given webhook URL. An empty URL
// yields a disabled mirror whose Sync is a no-op.
func NewMirror(url string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		url:    url,
		client: &http.Client{Timeout: syncTimeout},
		logger: logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (m *Mirror) Enabled() bool {
	return m != nil && m.url != ""
}

// Sync dispatches the rows in the background and returns immediately.
func (m *Mirror) Sync(outcomes []domain.TradeOutcome) {
	if !m.Enabled() || len(outcomes) == 0 {
		return
	}

	rows := make([]row, 0, len(outcomes))
	for _, outcome := range outcomes {
		detail := outcome.Error
		if detail == "" {
			detail = string(outcome.Reason)
		}
		rows = append(rows, row{
			Timestamp:      outcome.Timestamp,
			Symbol:         outcome.Instruction.Symbol,
			Side:           outcome.Instruction.Side.String(),
			RequestedValue: outcome.Instruction.Value,
			FilledQuantity: outcome.FilledQuantity,
			FilledPrice:    outcome.FilledPrice,
			Status:         string(outcome.Status),
			Detail:         detail,
		})
	}

	gopool.Go(func() {
		if err := m.post(rows); err != nil {
			m.logger.Warn("sheet mirror sync failed", zap.Error(err))
		}
	})
}

func (m *Mirror) post(rows []row) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("sheet webhook returned status %d", resp.StatusCode)
	}
	return nil
}
