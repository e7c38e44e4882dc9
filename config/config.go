// Package config loads and validates the rebalancer configuration.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the YAML document omits a key.
var (
	defaultDeviationThreshold = decimal.NewFromFloat(0.05)
	defaultMinOrderValue      = decimal.NewFromInt(50)
	defaultFeeRate            = decimal.NewFromFloat(0.0025)
)

const (
	defaultLedgerDir    = "./ledger"
	defaultOrderSpacing = time.Second
)

// Config is the fully parsed and validated runtime configuration.
type Config struct {
	// Platform selects the exchange backend: binance, bybit or simulate.
	Platform string
	// BaseCurrency is the quote asset all values are denominated in.
	BaseCurrency string
	// Targets holds the desired share per symbol, in document order.
	Targets *domain.TargetAllocation
	// DeviationThreshold is the minimum |current-target| share drift that
	// triggers a trade.
	DeviationThreshold decimal.Decimal
	// MinOrderValue is the exchange floor for one order, in base currency.
	MinOrderValue decimal.Decimal
	// FeeRate is the taker fee fraction applied to the buy funds ceiling.
	FeeRate decimal.Decimal
	// DryRun computes and reports instructions without submitting orders.
	DryRun bool
	// Schedule is an optional cron expression; empty means a single run.
	Schedule string
	// LedgerDir is where the append-only trade ledger lives.
	LedgerDir string
	// SheetWebhookURL optionally mirrors ledger rows to a remote sheet.
	SheetWebhookURL string
	// OrderSpacing is the minimum delay between order submissions.
	OrderSpacing time.Duration
}

type configTmp struct {
	Platform           string                   `yaml:"platform"`
	BaseCurrency       string                   `yaml:"base_currency"`
	Targets            *domain.TargetAllocation `yaml:"target_allocations"`
	DeviationThreshold string                   `yaml:"deviation_threshold,omitempty"`
	MinOrderValue      string                   `yaml:"min_order_value,omitempty"`
	FeeRate            string                   `yaml:"fee_rate,omitempty"`
	DryRun             bool                     `yaml:"dry_run,omitempty"`
	Schedule           string                   `yaml:"schedule,omitempty"`
	LedgerDir          string                   `yaml:"ledger_dir,omitempty"`
	SheetWebhookURL    string                   `yaml:"sheet_webhook_url,omitempty"`
	OrderSpacing       time.Duration            `yaml:"order_spacing,omitempty"`
}

// Load reads, parses and validates the YAML configuration at path.
// Any violation is reported as a domain.ConfigError: the process must not
// touch the market with a broken configuration.
func Load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return Parse(f)
}

// Parse decodes and validates a raw YAML document.
func Parse(raw []byte) (*Config, error) {
	var tmp configTmp
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return nil, errors.Wrap(err, "failed to decode yaml config")
	}

	cfg := &Config{
		Platform:        tmp.Platform,
		BaseCurrency:    tmp.BaseCurrency,
		Targets:         tmp.Targets,
		DryRun:          tmp.DryRun,
		Schedule:        tmp.Schedule,
		LedgerDir:       tmp.LedgerDir,
		SheetWebhookURL: tmp.SheetWebhookURL,
		OrderSpacing:    tmp.OrderSpacing,
	}

	var err error
	if cfg.DeviationThreshold, err = decimalOrDefault(tmp.DeviationThreshold, defaultDeviationThreshold); err != nil {
		return nil, domain.NewConfigError("incorrect 'deviation_threshold': " + err.Error())
	}
	if cfg.MinOrderValue, err = decimalOrDefault(tmp.MinOrderValue, defaultMinOrderValue); err != nil {
		return nil, domain.NewConfigError("incorrect 'min_order_value': " + err.Error())
	}
	if cfg.FeeRate, err = decimalOrDefault(tmp.FeeRate, defaultFeeRate); err != nil {
		return nil, domain.NewConfigError("incorrect 'fee_rate': " + err.Error())
	}

	if cfg.LedgerDir == "" {
		cfg.LedgerDir = defaultLedgerDir
	}
	if cfg.OrderSpacing <= 0 {
		cfg.OrderSpacing = defaultOrderSpacing
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decimalOrDefault(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	return decimal.NewFromString(raw)
}

func (c *Config) validate() error {
	switch c.Platform {
	case "binance", "bybit", "simulate":
	case "":
		return domain.NewConfigError("'platform' is required (binance, bybit or simulate)")
	default:
		return domain.NewConfigError("unsupported platform " + c.Platform)
	}

	if c.BaseCurrency == "" {
		return domain.NewConfigError("'base_currency' is required")
	}
	if c.Targets == nil {
		return domain.NewConfigError("'target_allocations' is required")
	}
	if err := c.Targets.Validate(c.BaseCurrency); err != nil {
		return domain.NewConfigError(err.Error())
	}

	if c.DeviationThreshold.IsNegative() || c.DeviationThreshold.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return domain.NewConfigError("'deviation_threshold' must be within [0,1)")
	}
	if c.MinOrderValue.IsNegative() {
		return domain.NewConfigError("'min_order_value' must not be negative")
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return domain.NewConfigError("'fee_rate' must be within [0,1)")
	}
	return nil
}
