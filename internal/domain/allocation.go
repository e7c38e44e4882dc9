package domain

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// allocationSumTolerance is how far the target shares may drift from 1.0
// before the configuration is rejected.
var allocationSumTolerance = decimal.New(1, -6)

// TargetAllocation holds the desired share per symbol. Symbol order is
// preserved from the configuration document so that planning is
// deterministic and reproducible given identical input.
type TargetAllocation struct {
	symbols []string
	shares  map[string]decimal.Decimal
}

// NewTargetAllocation builds an allocation from ordered symbol/share pairs.
func NewTargetAllocation() *TargetAllocation {
	return &TargetAllocation{shares: make(map[string]decimal.Decimal)}
}

// Set adds or replaces a symbol's target share, keeping first-seen order.
func (a *TargetAllocation) Set(symbol string, share decimal.Decimal) {
	if a.shares == nil {
		a.shares = make(map[string]decimal.Decimal)
	}
	if _, ok := a.shares[symbol]; !ok {
		a.symbols = append(a.symbols, symbol)
	}
	a.shares[symbol] = share
}

// Share returns the target share for the symbol, zero if the symbol is
// not targeted.
func (a *TargetAllocation) Share(symbol string) decimal.Decimal {
	if v, ok := a.shares[symbol]; ok {
		return v
	}
	return decimal.Zero
}

// Contains reports whether the symbol has an explicit target.
func (a *TargetAllocation) Contains(symbol string) bool {
	_, ok := a.shares[symbol]
	return ok
}

// Symbols returns targeted symbols in configuration order.
func (a *TargetAllocation) Symbols() []string {
	out := make([]string, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// Len returns the number of targeted symbols.
func (a *TargetAllocation) Len() int {
	return len(a.symbols)
}

// Validate checks the configuration invariants: every share in [0,1],
// shares summing to 1 within tolerance, and the base currency present
// (even with a zero share). Violations abort before any market interaction.
func (a *TargetAllocation) Validate(base string) error {
	if a == nil || len(a.symbols) == 0 {
		return errors.New("target_allocations must not be empty")
	}
	if base == "" {
		return errors.New("base currency symbol must be set")
	}
	if !a.Contains(base) {
		return errors.Errorf("base currency %s must be present in target_allocations", base)
	}

	sum := decimal.Zero
	for _, symbol := range a.symbols {
		share := a.shares[symbol]
		if share.IsNegative() || share.GreaterThan(decimal.NewFromInt(1)) {
			return errors.Errorf("target share for %s must be within [0,1], got %s", symbol, share.String())
		}
		sum = sum.Add(share)
	}

	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(allocationSumTolerance) {
		return errors.Errorf("target shares must sum to 1.0, got %s", sum.String())
	}
	return nil
}

// MarshalYAML encodes the mapping in configuration order.
func (a *TargetAllocation) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, symbol := range a.symbols {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: symbol},
			&yaml.Node{Kind: yaml.ScalarNode, Value: a.shares[symbol].String(), Style: yaml.DoubleQuotedStyle},
		)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping while preserving key order.
// Shares are given as strings or numbers, e.g. {THB: "0.1", BTC: 0.5}.
func (a *TargetAllocation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("target_allocations must be a mapping, got %s", node.Tag)
	}

	a.symbols = nil
	a.shares = make(map[string]decimal.Decimal, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		raw := node.Content[i+1].Value
		share, err := decimal.NewFromString(raw)
		if err != nil {
			return errors.Wrapf(err, "incorrect target share for %s", key)
		}
		a.Set(key, share)
	}
	return nil
}
