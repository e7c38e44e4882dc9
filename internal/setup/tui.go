// Package setup provides the interactive terminal wizard that produces a
// config.yaml for the rebalancer.
package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rebalancer/internal/domain"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// wizardConfig is the YAML document the wizard writes.
type wizardConfig struct {
	Platform           string                   `yaml:"platform"`
	BaseCurrency       string                   `yaml:"base_currency"`
	Targets            *domain.TargetAllocation `yaml:"target_allocations"`
	DeviationThreshold string                   `yaml:"deviation_threshold"`
	MinOrderValue      string                   `yaml:"min_order_value"`
	FeeRate            string                   `yaml:"fee_rate"`
	DryRun             bool                     `yaml:"dry_run"`
	Schedule           string                   `yaml:"schedule,omitempty"`
	SheetWebhookURL    string                   `yaml:"sheet_webhook_url,omitempty"`
}

// RunWizard walks the user through a configuration and writes it to path.
func RunWizard(path string) error {
	var (
		platform     string
		base         string
		targetsRaw   string
		thresholdStr string
		minOrderStr  string
		feeRateStr   string
		dryRun       bool
		schedule     string
		webhook      string
		confirm      bool
	)

	// defaults
	base = "USDT"
	thresholdStr = "0.05"
	minOrderStr = "50"
	feeRateStr = "0.0025"
	dryRun = true

	clearScreen()
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("A few questions and your portfolio is on autopilot.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Simulation", "simulate"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: PORTFOLIO"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base currency").
				Description("The quote asset all values are denominated in (e.g. USDT)").
				Value(&base),
			huh.NewInput().
				Title("Target allocations").
				Description("Comma-separated SYMBOL:share pairs summing to 1, base included (e.g. USDT:0.1,BTC:0.5,ETH:0.4)").
				Value(&targetsRaw),
		),
	).Run()
	if err != nil {
		return err
	}

	targets, err := parseTargets(targetsRaw)
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: LIMITS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Deviation threshold").
				Description("Share drift that triggers a trade, as a fraction (0.05 = 5 percentage points)").
				Value(&thresholdStr),
			huh.NewInput().
				Title("Minimum order value").
				Description("Exchange floor for one order, in base currency").
				Value(&minOrderStr),
			huh.NewInput().
				Title("Fee rate").
				Description("Taker fee fraction, used for the buy funds ceiling").
				Value(&feeRateStr),
			huh.NewConfirm().
				Title("Dry run?").
				Description("Compute and report instructions without placing orders").
				Value(&dryRun),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen()
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: EXTRAS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cron schedule (optional)").
				Description("Leave empty for a single run, e.g. '0 9 * * *' for daily at 09:00").
				Value(&schedule),
			huh.NewInput().
				Title("Sheet webhook URL (optional)").
				Description("Ledger rows are mirrored there, best effort").
				Value(&webhook),
		),
	).Run()
	if err != nil {
		return err
	}

	if err := validateWizardInput(base, targets, thresholdStr, minOrderStr, feeRateStr); err != nil {
		return err
	}

	clearScreen()
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Write configuration to %s?", path)).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Aborted, nothing written.")
		return nil
	}

	doc := wizardConfig{
		Platform:           platform,
		BaseCurrency:       base,
		Targets:            targets,
		DeviationThreshold: thresholdStr,
		MinOrderValue:      minOrderStr,
		FeeRate:            feeRateStr,
		DryRun:             dryRun,
		Schedule:           strings.TrimSpace(schedule),
		SheetWebhookURL:    strings.TrimSpace(webhook),
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal configuration")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	fmt.Println(stepStyle.Render("Configuration written to " + path))
	return nil
}

// parseTargets turns "USDT:0.1,BTC:0.5" into an ordered allocation.
func parseTargets(raw string) (*domain.TargetAllocation, error) {
	targets := domain.NewTargetAllocation()
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, share, found := strings.Cut(part, ":")
		if !found {
			return nil, errors.Errorf("incorrect allocation entry %q, expected SYMBOL:share", part)
		}
		value, err := decimal.NewFromString(strings.TrimSpace(share))
		if err != nil {
			return nil, errors.Wrapf(err, "incorrect share for %s", symbol)
		}
		targets.Set(strings.TrimSpace(strings.ToUpper(symbol)), value)
	}
	return targets, nil
}

func validateWizardInput(base string, targets *domain.TargetAllocation, threshold, minOrder, feeRate string) error {
	if err := targets.Validate(strings.ToUpper(base)); err != nil {
		return err
	}
	for name, raw := range map[string]string{
		"deviation threshold": threshold,
		"minimum order value": minOrder,
		"fee rate":            feeRate,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return errors.Wrapf(err, "incorrect %s", name)
		}
	}
	return nil
}

func clearScreen() {
	fmt.Print("\033[H\033[2J")
}
