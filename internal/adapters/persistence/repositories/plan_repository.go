package repositories

import (
	"context"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanRepository handles subscription plan data access
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create creates a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *domain.SubscriptionPlan) error {
	row := models.NewSubscriptionPlan(plan)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return domain.Invalid("code", "plan %s already exists", plan.Code)
		}
		return domain.Store("create plan", err)
	}
	plan.ID = row.ID
	return nil
}

// Upsert creates a plan or refreshes the catalog fields of an existing code
func (r *PlanRepository) Upsert(ctx context.Context, plan *domain.SubscriptionPlan) error {
	row := models.NewSubscriptionPlan(plan)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"label", "amount_per_month", "duration_months",
			"nominal", "support_min", "support_max", "is_active", "updated_at",
		}),
	}).Create(row).Error
	return wrapErr("upsert plan", "plan", plan.Code, err)
}

// GetByCode gets a plan by code
func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*domain.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	if err != nil {
		return nil, wrapErr("get plan", "plan", code, err)
	}
	return plan.ToDomain(), nil
}

// List lists plans ordered by monthly amount
func (r *PlanRepository) List(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error) {
	var rows []*models.SubscriptionPlan
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("amount_per_month ASC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, domain.Store("list plans", err)
	}
	plans := make([]*domain.SubscriptionPlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, row.ToDomain())
	}
	return plans, nil
}
