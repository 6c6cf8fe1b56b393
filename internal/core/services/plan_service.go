package services

import (
	"context"
	"strings"

	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanService manages the subscription plan catalog
type PlanService struct {
	plans PlanRepository
}

// NewPlanService creates a new plan service
func NewPlanService(plans PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

// CreatePlanInput represents create plan input
type CreatePlanInput struct {
	Code           string           `json:"code" validate:"required,max=20"`
	Label          string           `json:"label" validate:"required,max=100"`
	AmountPerMonth decimal.Decimal  `json:"amount_per_month"`
	DurationMonths int              `json:"duration_months" validate:"gte=1,lte=120"`
	Nominal        *decimal.Decimal `json:"nominal,omitempty"`
	SupportMin     *decimal.Decimal `json:"support_min,omitempty"`
	SupportMax     *decimal.Decimal `json:"support_max,omitempty"`
}

// List lists plans
func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error) {
	return s.plans.List(ctx, activeOnly)
}

// Create adds a plan to the catalog
func (s *PlanService) Create(ctx context.Context, input *CreatePlanInput) (*domain.SubscriptionPlan, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if !input.AmountPerMonth.IsPositive() {
		return nil, domain.Invalid("amount_per_month", "must be greater than 0")
	}
	for field, v := range map[string]*decimal.Decimal{
		"nominal":     input.Nominal,
		"support_min": input.SupportMin,
		"support_max": input.SupportMax,
	} {
		if v != nil && v.IsNegative() {
			return nil, domain.Invalid(field, "must not be negative")
		}
	}
	if input.SupportMin != nil && input.SupportMax != nil && input.SupportMin.GreaterThan(*input.SupportMax) {
		return nil, domain.Invalid("support_min", "must not exceed support_max")
	}

	plan := &domain.SubscriptionPlan{
		Code:           strings.TrimSpace(input.Code),
		Label:          strings.TrimSpace(input.Label),
		AmountPerMonth: input.AmountPerMonth,
		DurationMonths: input.DurationMonths,
		Nominal:        input.Nominal,
		SupportMin:     input.SupportMin,
		SupportMax:     input.SupportMax,
		IsActive:       true,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	zap.L().Info("plan created", zap.String("code", plan.Code))
	return plan, nil
}
