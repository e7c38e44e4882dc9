// Package internal wires the rebalancing pipeline together: valuation,
// planning, execution and reporting around one exchange venue.
package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/config"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"github.com/vadiminshakov/rebalancer/internal/services/executor"
	"github.com/vadiminshakov/rebalancer/internal/services/planner"
	"github.com/vadiminshakov/rebalancer/internal/services/report"
	"github.com/vadiminshakov/rebalancer/internal/services/valuation"
	"go.uber.org/zap"
)

// Ledger appends trade outcomes to durable storage.
type Ledger interface {
	Append(outcome domain.TradeOutcome) error
}

// Mirror pushes outcome rows to an optional remote sheet, best effort.
type Mirror interface {
	Sync(outcomes []domain.TradeOutcome)
}

// Rebalancer runs complete rebalance passes against one venue.
type Rebalancer struct {
	cfg         *config.Config
	venue       venue
	valuation   *valuation.Service
	planner     *planner.Service
	coordinator *executor.Coordinator
	ledger      Ledger
	mirror      Mirror
	renderer    *report.Renderer
	logger      *zap.Logger
	out         io.Writer

	// guards against overlapping runs when a scheduler fires early
	runMu sync.Mutex
}

// NewRebalancer builds the pipeline for the configured platform. client
// must be a *binance.Client, *bybit.Client or *simulate.Exchange.
func NewRebalancer(cfg *config.Config, client any, ledger Ledger, mirror Mirror, logger *zap.Logger) (*Rebalancer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v, err := newVenue(client, cfg.BaseCurrency, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create venue services")
	}

	return &Rebalancer{
		cfg:       cfg,
		venue:     v,
		valuation: valuation.New(cfg.BaseCurrency, logger),
		planner:   planner.New(cfg.DeviationThreshold, cfg.MinOrderValue, logger),
		coordinator: executor.New(v.trader, cfg.BaseCurrency, cfg.FeeRate, cfg.MinOrderValue,
			cfg.DryRun, cfg.OrderSpacing, logger),
		ledger:   ledger,
		mirror:   mirror,
		renderer: report.NewRenderer(cfg.BaseCurrency),
		logger:   logger,
		out:      os.Stdout,
	}, nil
}

// SetOutput redirects report rendering, used by tests.
func (r *Rebalancer) SetOutput(w io.Writer) {
	r.out = w
}

// Run executes one full rebalance pass: value the account, plan, execute,
// record, revalue, report. Calls overlapping an active run are skipped,
// callers get at-most-one run per invocation window.
func (r *Rebalancer) Run(ctx context.Context) error {
	if !r.runMu.TryLock() {
		r.logger.Warn("previous run still active, skipping this trigger")
		return nil
	}
	defer r.runMu.Unlock()

	started := time.Now()
	r.logger.Info("starting rebalance run",
		zap.Bool("dry_run", r.cfg.DryRun),
		zap.String("platform", r.cfg.Platform))

	before, balances, err := r.snapshot(ctx)
	if err != nil {
		// nothing has been traded or written yet, safe to abort
		return errors.Wrap(domain.ErrDataUnavailable, err.Error())
	}

	plan := r.planner.Plan(before, r.cfg.Targets)

	if before.IsEmpty() {
		fmt.Fprintln(r.out, r.renderer.PortfolioTable("Portfolio", before, r.cfg.Targets, r.cfg.DeviationThreshold))
		fmt.Fprintln(r.out, r.renderer.OutcomeTable(nil))
		r.logger.Info("portfolio is empty, no-op run")
		return nil
	}

	fmt.Fprintln(r.out, r.renderer.PortfolioTable("Portfolio before", before, r.cfg.Targets, r.cfg.DeviationThreshold))

	outcomes := r.coordinator.Execute(ctx, plan, before)
	if !r.cfg.DryRun {
		// dry runs stay fully side-effect free: no ledger rows, no mirror
		r.record(outcomes)
	}

	after, _, afterErr := r.snapshot(ctx)
	if afterErr != nil {
		// trades may have executed, so the report must still come out
		r.logger.Warn("failed to revalue portfolio after execution, reporting pre-trade state", zap.Error(afterErr))
		after = before
	}

	buyHold := r.valuation.Snapshot(balances, r.pricesOf(after)).TotalValue

	fmt.Fprintln(r.out, r.renderer.OutcomeTable(outcomes))
	fmt.Fprintln(r.out, r.renderer.PortfolioTable("Portfolio after", after, r.cfg.Targets, r.cfg.DeviationThreshold))
	fmt.Fprintln(r.out, r.renderer.SummaryTable(report.BuildSummary(started, before, after, buyHold, plan, outcomes)))

	r.logger.Info("rebalance run finished", zap.Duration("took", time.Since(started)))
	return nil
}

// snapshot fetches fresh balances and prices and values the portfolio.
// Targeted symbols missing from the account are seeded with zero balance
// so cold-start buys are planned.
func (r *Rebalancer) snapshot(ctx context.Context) (*domain.PortfolioSnapshot, map[string]decimal.Decimal, error) {
	balances, err := r.venue.wallet.Balances(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch balances")
	}
	for _, symbol := range r.cfg.Targets.Symbols() {
		if _, ok := balances[symbol]; !ok {
			balances[symbol] = decimal.Zero
		}
	}

	symbols := make([]string, 0, len(balances))
	for symbol := range balances {
		symbols = append(symbols, symbol)
	}

	prices, err := r.venue.pricer.Prices(ctx, symbols)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch prices")
	}

	return r.valuation.Snapshot(balances, prices), balances, nil
}

// pricesOf extracts the quoted prices from a snapshot for revaluation.
func (r *Rebalancer) pricesOf(snap *domain.PortfolioSnapshot) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(snap.Assets))
	for symbol, pos := range snap.Assets {
		if symbol != snap.Base {
			prices[symbol] = pos.Price
		}
	}
	return prices
}

// record appends every outcome to the ledger and mirrors the rows. A
// ledger write failure is logged, it never interrupts the run.
func (r *Rebalancer) record(outcomes []domain.TradeOutcome) {
	if r.ledger != nil {
		for _, outcome := range outcomes {
			if err := r.ledger.Append(outcome); err != nil {
				r.logger.Error("failed to append trade outcome to ledger",
					zap.String("symbol", outcome.Instruction.Symbol), zap.Error(err))
			}
		}
	}
	if r.mirror != nil {
		r.mirror.Sync(outcomes)
	}
}
