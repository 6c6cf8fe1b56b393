package services

import (
	"context"
	"time"

	"emergency-fund/internal/core/domain"
)

// DemandRepository is the storage contract the lifecycle depends on.
// Implementations return domain errors: NotFoundError for missing rows,
// ErrStaleWrite for a failed status precondition, StoreError otherwise.
type DemandRepository interface {
	Create(ctx context.Context, demand *domain.Demand) (*domain.Demand, error)
	GetByID(ctx context.Context, id string) (*domain.Demand, error)
	Update(ctx context.Context, id string, fields domain.DemandFields, actorID uint, at time.Time) (*domain.Demand, error)
	SetStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Demand, error)
	Delete(ctx context.Context, id string, actorID uint, at time.Time) error
	QueryPage(ctx context.Context, filter domain.DemandFilter, page domain.PageRequest, sort domain.SortOrder) (*domain.DemandPage, error)
	CountByStatus(ctx context.Context, filter domain.DemandFilter) (domain.StatusCounts, error)
	CountIDsWithBase(ctx context.Context, base string) (int64, error)
	AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error
	History(ctx context.Context, demandID string) ([]*domain.HistoryEntry, error)
}

// ContractRepository persists contracts and answers rollback guards
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	// FindByDemand returns nil, nil when the demand has no contract
	FindByDemand(ctx context.Context, demandID string) (*domain.Contract, error)
	Activity(ctx context.Context, id string) (domain.ContractActivity, error)
	DeleteDocuments(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
	// ListUnlinked returns contracts whose demand does not point back at them
	ListUnlinked(ctx context.Context, limit int) ([]*domain.Contract, error)
}

// MemberRepository reads members
type MemberRepository interface {
	GetByID(ctx context.Context, id uint) (*domain.Member, error)
}

// PlanRepository reads the subscription plan catalog
type PlanRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.SubscriptionPlan, error)
	Create(ctx context.Context, plan *domain.SubscriptionPlan) error
}

// EventPublisher forwards lifecycle events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
