package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"emergency-fund/internal/core/domain"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// PlanCatalog is the subscription plan seed file
type PlanCatalog struct {
	Plans []PlanEntry `toml:"plan"`
}

// PlanEntry is one [[plan]] table. Amounts are quoted decimal strings.
type PlanEntry struct {
	Code           string           `toml:"code"`
	Label          string           `toml:"label"`
	AmountPerMonth decimal.Decimal  `toml:"amount_per_month"`
	DurationMonths int              `toml:"duration_months"`
	Nominal        *decimal.Decimal `toml:"nominal"`
	SupportMin     *decimal.Decimal `toml:"support_min"`
	SupportMax     *decimal.Decimal `toml:"support_max"`
	Inactive       bool             `toml:"inactive"`
}

// ToDomain converts an entry into a catalog plan
func (e PlanEntry) ToDomain() *domain.SubscriptionPlan {
	return &domain.SubscriptionPlan{
		Code:           strings.TrimSpace(e.Code),
		Label:          e.Label,
		AmountPerMonth: e.AmountPerMonth,
		DurationMonths: e.DurationMonths,
		Nominal:        e.Nominal,
		SupportMin:     e.SupportMin,
		SupportMax:     e.SupportMax,
		IsActive:       !e.Inactive,
	}
}

// DefaultPlanCatalog is used when no catalog file exists
func DefaultPlanCatalog() *PlanCatalog {
	plan := func(code, label string, amount int64, months int) PlanEntry {
		return PlanEntry{
			Code:           code,
			Label:          label,
			AmountPerMonth: decimal.NewFromInt(amount),
			DurationMonths: months,
		}
	}
	return &PlanCatalog{Plans: []PlanEntry{
		plan("CI-1", "Cotisation 1", 1000, 12),
		plan("CI-2", "Cotisation 2", 2500, 12),
		plan("CI-3", "Cotisation 3", 5000, 12),
		plan("CI-4", "Cotisation 4", 10000, 12),
	}}
}

// LoadPlanCatalog decodes a TOML catalog. A missing file yields the default
// catalog.
func LoadPlanCatalog(path string) (*PlanCatalog, error) {
	if path == "" {
		return DefaultPlanCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPlanCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return ParsePlanCatalog(string(data))
}

// ParsePlanCatalog decodes and validates catalog text
func ParsePlanCatalog(data string) (*PlanCatalog, error) {
	var catalog PlanCatalog
	if _, err := toml.Decode(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode plan catalog: %w", err)
	}

	seen := make(map[string]bool, len(catalog.Plans))
	for i, p := range catalog.Plans {
		code := strings.TrimSpace(p.Code)
		switch {
		case code == "":
			return nil, fmt.Errorf("plan #%d: code is required", i+1)
		case seen[code]:
			return nil, fmt.Errorf("plan %s: duplicate code", code)
		case !p.AmountPerMonth.IsPositive():
			return nil, fmt.Errorf("plan %s: amount_per_month must be positive", code)
		case p.DurationMonths < 1:
			return nil, fmt.Errorf("plan %s: duration_months must be at least 1", code)
		}
		seen[code] = true
	}
	return &catalog, nil
}
