package services

import (
	"context"
	"errors"
	"time"

	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultReconcileBatch bounds one reconciliation sweep
const DefaultReconcileBatch = 100

// ContractNominal returns the plan nominal, defaulting to amount x duration
func ContractNominal(plan domain.PlanSnapshot) decimal.Decimal {
	if plan.Nominal != nil {
		return *plan.Nominal
	}
	return plan.AmountPerMonth.Mul(decimal.NewFromInt(int64(plan.DurationMonths)))
}

func orZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

// DeriveContract maps an approved demand onto a new ACTIVE contract. Unset
// support bounds become 0 and the first payment date falls back to the
// desired start date.
func DeriveContract(d *domain.Demand, contractID string, firstPayment *time.Time, actorID uint, at time.Time) *domain.Contract {
	demandID := d.ID
	first := d.DesiredStartDate
	if firstPayment != nil && !firstPayment.IsZero() {
		first = *firstPayment
	}
	return &domain.Contract{
		ID:               contractID,
		DemandID:         &demandID,
		MemberID:         d.MemberID,
		Member:           d.Member,
		Plan:             d.Plan,
		Nominal:          ContractNominal(d.Plan),
		SupportMin:       orZero(d.Plan.SupportMin),
		SupportMax:       orZero(d.Plan.SupportMax),
		PaymentFrequency: d.PaymentFrequency,
		FirstPaymentDate: first,
		Status:           domain.ContractActive,
		CreatedBy:        actorID,
		CreatedAt:        at,
	}
}

// ConversionCoordinator turns an approved demand into a contract exactly once
// and undoes it when the contract is deleted. The contract write and the
// demand link are two separate writes; a crash between them leaves an
// unlinked contract that Convert or ReconcileConversions resumes.
type ConversionCoordinator struct {
	engine    *DemandLifecycleEngine
	demands   DemandRepository
	contracts ContractRepository
	ids       *IDFormatter
	clock     Clock
	events    EventPublisher
}

// NewConversionCoordinator creates a new conversion coordinator
func NewConversionCoordinator(engine *DemandLifecycleEngine) *ConversionCoordinator {
	return &ConversionCoordinator{
		engine:    engine,
		demands:   engine.demands,
		contracts: engine.contracts,
		ids:       engine.ids,
		clock:     engine.clock,
		events:    engine.events,
	}
}

// ConversionResult is the linked demand and its contract
type ConversionResult struct {
	Demand   *domain.Demand
	Contract *domain.Contract
	Resumed  bool
}

// Convert creates the contract of an APPROVED demand and links it
func (c *ConversionCoordinator) Convert(ctx context.Context, demandID string, firstPayment *time.Time, actorID uint) (*ConversionResult, error) {
	demand, err := c.demands.GetByID(ctx, demandID)
	if err != nil {
		return nil, err
	}
	if demand.IsConverted() {
		return nil, &domain.AlreadyConvertedError{DemandID: demand.ID, ContractID: *demand.ContractID, Current: demand.Status}
	}
	if demand.Status != domain.StatusApproved {
		return nil, conflict(demand, domain.ActionConvert)
	}

	now := c.clock.Now()
	contract, resumed, err := c.ensureContract(ctx, demand, firstPayment, actorID, now)
	if err != nil {
		return nil, err
	}

	linked, err := c.link(ctx, demand, contract, actorID, now)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Demand: linked, Contract: contract, Resumed: resumed}, nil
}

// ensureContract returns the contract already created for the demand, or
// creates one
func (c *ConversionCoordinator) ensureContract(ctx context.Context, demand *domain.Demand, firstPayment *time.Time, actorID uint, now time.Time) (*domain.Contract, bool, error) {
	existing, err := c.contracts.FindByDemand(ctx, demand.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		zap.L().Warn("resuming conversion with unlinked contract",
			zap.String("demand_id", demand.ID), zap.String("contract_id", existing.ID))
		return existing, true, nil
	}

	base := c.ids.ContractID(demand.MemberID, now)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		contract := DeriveContract(demand, WithSequence(base, attempt), firstPayment, actorID, now)
		err := c.contracts.Create(ctx, contract)
		if err == nil {
			return contract, false, nil
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return nil, false, err
		}
		// Either another converter won the race for this demand, or the
		// identifier is taken by a contract of the same member this minute.
		existing, ferr := c.contracts.FindByDemand(ctx, demand.ID)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing != nil {
			return existing, true, nil
		}
	}
	return nil, false, domain.Store("create contract", domain.ErrDuplicateID)
}

func (c *ConversionCoordinator) link(ctx context.Context, demand *domain.Demand, contract *domain.Contract, actorID uint, now time.Time) (*domain.Demand, error) {
	contractID := contract.ID
	updated, err := c.demands.SetStatus(ctx, demand.ID, domain.StatusChange{
		Action:       domain.ActionConvert,
		From:         domain.StatusApproved,
		To:           domain.StatusConverted,
		LinkContract: &contractID,
		ActorID:      actorID,
		At:           now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrStaleWrite) {
			return nil, c.engine.staleConflict(ctx, demand.ID, domain.ActionConvert, err)
		}
		zap.L().Error("contract created but demand not linked",
			zap.String("demand_id", demand.ID), zap.String("contract_id", contractID), zap.Error(err))
		return nil, &domain.ConversionIncompleteError{DemandID: demand.ID, ContractID: contractID, Err: err}
	}

	c.engine.record(ctx, &domain.HistoryEntry{
		DemandID:   demand.ID,
		Action:     domain.ActionConvert,
		FromStatus: domain.StatusApproved,
		ToStatus:   domain.StatusConverted,
		ContractID: &contractID,
		ActorID:    actorID,
	}, now)
	return updated, nil
}

// DeleteContract is the compensating action of a conversion. It is refused
// while the contract has payments, support history or early refunds. The
// linked demand goes back to APPROVED with its contract cleared.
func (c *ConversionCoordinator) DeleteContract(ctx context.Context, contractID string, actorID uint) error {
	contract, err := c.contracts.GetByID(ctx, contractID)
	if err != nil {
		return err
	}

	activity, err := c.contracts.Activity(ctx, contractID)
	if err != nil {
		return err
	}
	if !activity.Empty() {
		return &domain.DependentActivityError{ContractID: contractID, Activity: activity}
	}

	now := c.clock.Now()
	if contract.DemandID != nil {
		if err := c.revertDemand(ctx, *contract.DemandID, contractID, actorID, now); err != nil {
			return err
		}
	}

	if n, err := c.contracts.DeleteDocuments(ctx, contractID); err != nil {
		zap.L().Warn("contract document cleanup failed",
			zap.String("contract_id", contractID), zap.Error(err))
	} else if n > 0 {
		zap.L().Info("contract documents removed",
			zap.String("contract_id", contractID), zap.Int64("count", n))
	}

	if err := c.contracts.Delete(ctx, contractID); err != nil {
		return err
	}

	if c.events != nil {
		event := domain.Event{
			Type:       domain.EventContractDeleted,
			ContractID: contractID,
			ActorID:    actorID,
			OccurredAt: now,
		}
		if contract.DemandID != nil {
			event.DemandID = *contract.DemandID
		}
		if err := c.events.Publish(ctx, event); err != nil {
			zap.L().Warn("publish contract deletion", zap.String("contract_id", contractID), zap.Error(err))
		}
	}
	return nil
}

func (c *ConversionCoordinator) revertDemand(ctx context.Context, demandID, contractID string, actorID uint, now time.Time) error {
	demand, err := c.demands.GetByID(ctx, demandID)
	if errors.Is(err, domain.ErrNotFound) {
		zap.L().Warn("contract references a missing demand",
			zap.String("contract_id", contractID), zap.String("demand_id", demandID))
		return nil
	}
	if err != nil {
		return err
	}
	// An unlinked contract (interrupted conversion) leaves the demand APPROVED
	if demand.ContractID == nil || *demand.ContractID != contractID {
		return nil
	}

	_, err = c.demands.SetStatus(ctx, demandID, domain.StatusChange{
		Action:        domain.ActionRollback,
		From:          demand.Status,
		To:            domain.StatusApproved,
		ClearContract: true,
		ActorID:       actorID,
		At:            now,
	})
	if err != nil {
		return err
	}

	c.engine.record(ctx, &domain.HistoryEntry{
		DemandID:   demandID,
		Action:     domain.ActionRollback,
		FromStatus: demand.Status,
		ToStatus:   domain.StatusApproved,
		ContractID: &contractID,
		ActorID:    actorID,
	}, now)
	return nil
}

// ReconcileResult summarizes one sweep
type ReconcileResult struct {
	Scanned int      `json:"scanned"`
	Linked  []string `json:"linked"`
	Skipped []string `json:"skipped"`
}

// ReconcileConversions links contracts left behind by an interrupted
// conversion to their still-APPROVED demand
func (c *ConversionCoordinator) ReconcileConversions(ctx context.Context, actorID uint, limit int) (*ReconcileResult, error) {
	if limit <= 0 {
		limit = DefaultReconcileBatch
	}
	orphans, err := c.contracts.ListUnlinked(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Scanned: len(orphans), Linked: []string{}, Skipped: []string{}}
	for _, contract := range orphans {
		if contract.DemandID == nil {
			continue
		}
		demand, err := c.demands.GetByID(ctx, *contract.DemandID)
		if err != nil {
			zap.L().Warn("reconcile: demand unavailable",
				zap.String("contract_id", contract.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, contract.ID)
			continue
		}
		if demand.Status != domain.StatusApproved || demand.IsConverted() {
			zap.L().Warn("reconcile: demand not linkable",
				zap.String("contract_id", contract.ID),
				zap.String("demand_id", demand.ID),
				zap.String("status", string(demand.Status)))
			result.Skipped = append(result.Skipped, contract.ID)
			continue
		}
		if _, err := c.link(ctx, demand, contract, actorID, c.clock.Now()); err != nil {
			zap.L().Error("reconcile: link failed", zap.String("contract_id", contract.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, contract.ID)
			continue
		}
		result.Linked = append(result.Linked, contract.ID)
	}
	return result, nil
}
