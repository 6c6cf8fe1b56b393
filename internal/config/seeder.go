package config

import (
	"context"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanStore receives catalog plans
type PlanStore interface {
	Upsert(ctx context.Context, plan *domain.SubscriptionPlan) error
}

// Seeder handles database seeding
type Seeder struct {
	db    *gorm.DB
	plans PlanStore
	cfg   *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, plans PlanStore, cfg *Config) *Seeder {
	return &Seeder{db: db, plans: plans, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	zap.L().Info("running database seeders")

	if err := s.SeedPlans(ctx); err != nil {
		return err
	}

	if err := s.seedAdminUser(ctx); err != nil {
		zap.L().Warn("admin seeder skipped", zap.Error(err))
	}

	zap.L().Info("database seeding completed")
	return nil
}

// SeedPlans upserts the plan catalog
func (s *Seeder) SeedPlans(ctx context.Context) error {
	catalog, err := LoadPlanCatalog(s.cfg.Fund.PlanCatalog)
	if err != nil {
		return err
	}
	for _, entry := range catalog.Plans {
		if err := s.plans.Upsert(ctx, entry.ToDomain()); err != nil {
			return err
		}
	}
	zap.L().Info("plan catalog seeded", zap.Int("plans", len(catalog.Plans)))
	return nil
}

// seedAdminUser seeds default admin user.
// This is for development only; production admins are created out of band.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if s.cfg.IsProd() {
		return nil
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@fund.local",
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	zap.L().Info("admin user created", zap.String("username", admin.Username))
	return nil
}
