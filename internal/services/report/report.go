// Package report renders portfolio state and run results as terminal
// tables. It is purely presentational: no decision logic lives here.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginTop(1)
	offTarget   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Renderer renders tables for one rebalance run.
type Renderer struct {
	base string
}

// NewRenderer returns a renderer denominating values in the base currency.
func NewRenderer(base string) *Renderer {
	return &Renderer{base: base}
}

// PortfolioTable renders the valued portfolio with current vs target
// shares. Rows whose deviation exceeds the threshold are highlighted.
func (r *Renderer) PortfolioTable(title string, snap *domain.PortfolioSnapshot, targets *domain.TargetAllocation, threshold decimal.Decimal) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("ASSET", "AMOUNT", "PRICE ("+r.base+")", "VALUE ("+r.base+")", "SHARE", "TARGET")

	for _, symbol := range targets.Symbols() {
		target := targets.Share(symbol)
		share := snap.Share(symbol)

		shareText := formatPercent(share)
		if share.Sub(target).Abs().GreaterThan(threshold) {
			shareText = offTarget.Render(shareText)
		}

		t.Row(
			symbol,
			snap.Quantity(symbol).StringFixed(6),
			snap.Price(symbol).StringFixed(2),
			snap.Value(symbol).StringFixed(2),
			shareText,
			formatPercent(target),
		)
	}

	for _, symbol := range snap.Unpriced {
		t.Row(symbol, "-", "-", "-", "-", formatPercent(targets.Share(symbol)))
	}

	header := titleStyle.Render(fmt.Sprintf("%s — total value %s %s", title, snap.TotalValue.StringFixed(2), r.base))
	return header + "\n" + t.Render()
}

// OutcomeTable renders one row per trade outcome.
func (r *Renderer) OutcomeTable(outcomes []domain.TradeOutcome) string {
	if len(outcomes) == 0 {
		return titleStyle.Render("No trades this run")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("SIDE", "ASSET", "VALUE ("+r.base+")", "FILLED QTY", "FILL PRICE", "STATUS", "DETAIL")

	for _, outcome := range outcomes {
		detail := outcome.Error
		if detail == "" {
			detail = string(outcome.Reason)
		}
		t.Row(
			outcome.Instruction.Side.String(),
			outcome.Instruction.Symbol,
			outcome.Instruction.Value.StringFixed(2),
			outcome.FilledQuantity.String(),
			outcome.FilledPrice.StringFixed(2),
			string(outcome.Status),
			detail,
		)
	}

	return titleStyle.Render("Trades") + "\n" + t.Render()
}

// SummaryTable renders the final run summary.
func (r *Renderer) SummaryTable(summary RunSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("METRIC", "VALUE")

	profit := summary.FinalValue.Sub(summary.InitialValue)
	buyHoldProfit := summary.BuyHoldFinalValue.Sub(summary.InitialValue)

	t.Row("Date", summary.Timestamp.Format("2006-01-02 15:04:05"))
	t.Row("Initial value", summary.InitialValue.StringFixed(2)+" "+r.base)
	t.Row("Final value", summary.FinalValue.StringFixed(2)+" "+r.base)
	t.Row("Total fees", summary.TotalFees.StringFixed(4)+" "+r.base)
	t.Row("Rebalance profit", signed(profit)+" "+r.base)
	t.Row("Rebalance ROI", signedPercent(roi(profit, summary.InitialValue)))
	t.Row("Buy-and-hold value", summary.BuyHoldFinalValue.StringFixed(2)+" "+r.base)
	t.Row("Buy-and-hold profit", signed(buyHoldProfit)+" "+r.base)
	t.Row("Buy-and-hold ROI", signedPercent(roi(buyHoldProfit, summary.InitialValue)))
	t.Row("Filled", strconv.Itoa(summary.Filled))
	t.Row("Skipped (threshold)", strconv.Itoa(summary.SkippedThreshold))
	t.Row("Skipped (min order)", strconv.Itoa(summary.SkippedMinOrder))
	t.Row("Skipped (dry run)", strconv.Itoa(summary.SkippedDryRun))
	t.Row("Skipped (other)", strconv.Itoa(summary.SkippedOther))
	t.Row("Failed", strconv.Itoa(summary.Failed))

	return titleStyle.Render("Rebalance summary") + "\n" + t.Render()
}

// RunSummary aggregates one run for presentation.
type RunSummary struct {
	Timestamp         time.Time
	InitialValue      decimal.Decimal
	FinalValue        decimal.Decimal
	BuyHoldFinalValue decimal.Decimal
	TotalFees         decimal.Decimal
	Filled            int
	SkippedThreshold  int
	SkippedMinOrder   int
	SkippedDryRun     int
	SkippedOther      int
	Failed            int
}

// BuildSummary counts outcomes and planner skips into a RunSummary.
// The run always completes with a summary; partial success shows up as a
// nonzero Failed count, never as a missing report.
func BuildSummary(at time.Time, before, after *domain.PortfolioSnapshot, buyHoldFinal decimal.Decimal, plan *domain.Plan, outcomes []domain.TradeOutcome) RunSummary {
	summary := RunSummary{
		Timestamp:         at,
		InitialValue:      before.TotalValue,
		FinalValue:        after.TotalValue,
		BuyHoldFinalValue: buyHoldFinal,
		TotalFees:         decimal.Zero,
	}

	for _, skip := range plan.Skips {
		switch skip.Reason {
		case domain.SkipWithinThreshold:
			summary.SkippedThreshold++
		case domain.SkipBelowMinOrder:
			summary.SkippedMinOrder++
		default:
			summary.SkippedOther++
		}
	}

	for _, outcome := range outcomes {
		summary.TotalFees = summary.TotalFees.Add(outcome.Fee)
		switch outcome.Status {
		case domain.StatusFilled:
			summary.Filled++
		case domain.StatusFailed:
			summary.Failed++
		case domain.StatusSkipped:
			if outcome.Reason == domain.SkipDryRun {
				summary.SkippedDryRun++
			} else {
				summary.SkippedOther++
			}
		}
	}
	return summary
}

func formatPercent(v decimal.Decimal) string {
	return v.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func roi(profit, initial decimal.Decimal) decimal.Decimal {
	if !initial.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(initial).Mul(decimal.NewFromInt(100))
}

func signed(v decimal.Decimal) string {
	if v.IsNegative() {
		return lossStyle.Render(v.StringFixed(2))
	}
	return gainStyle.Render(v.StringFixed(2))
}

func signedPercent(v decimal.Decimal) string {
	if v.IsNegative() {
		return lossStyle.Render(v.StringFixed(2) + "%")
	}
	return gainStyle.Render(v.StringFixed(2) + "%")
}
