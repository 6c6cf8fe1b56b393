package services

import (
	"context"
	"strings"
	"time"

	"emergency-fund/internal/core/domain"

	"go.uber.org/zap"
)

// List bounds, same as the rest of the API
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// TabAll is the default listing tab sorted by status priority
const TabAll = "all"

// DemandService is the entry point for every external caller
type DemandService struct {
	engine      *DemandLifecycleEngine
	coordinator *ConversionCoordinator
	demands     DemandRepository
	contracts   ContractRepository
	members     MemberRepository
	plans       PlanRepository
}

// NewDemandService wires the façade around an engine and a coordinator
func NewDemandService(
	engine *DemandLifecycleEngine,
	coordinator *ConversionCoordinator,
	members MemberRepository,
	plans PlanRepository,
) *DemandService {
	return &DemandService{
		engine:      engine,
		coordinator: coordinator,
		demands:     engine.demands,
		contracts:   engine.contracts,
		members:     members,
		plans:       plans,
	}
}

// CreateDemandInput represents create demand input
type CreateDemandInput struct {
	MemberID         uint                    `json:"member_id" validate:"required"`
	Cause            string                  `json:"cause" validate:"required"`
	PlanCode         string                  `json:"plan_code" validate:"required,max=20"`
	PaymentFrequency string                  `json:"payment_frequency" validate:"required,oneof=DAILY MONTHLY"`
	DesiredStartDate time.Time               `json:"desired_start_date"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact"`
}

// Create validates the request and submits a new PENDING demand
func (s *DemandService) Create(ctx context.Context, input *CreateDemandInput, actorID uint) (*domain.Demand, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := ValidateCause(input.Cause); err != nil {
		return nil, err
	}
	if input.DesiredStartDate.IsZero() {
		return nil, domain.Invalid("desired_start_date", "is required")
	}

	member, err := s.members.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, domain.Invalid("member_id", "member is not active")
	}

	plan, err := s.activePlan(ctx, input.PlanCode)
	if err != nil {
		return nil, err
	}

	draft := &domain.Demand{
		MemberID: member.ID,
		Member: domain.MemberSnapshot{
			Name:      member.FullName(),
			Matricule: member.Matricule,
			Phone:     member.Phone,
			Email:     member.Email,
		},
		Cause:            input.Cause,
		Plan:             plan.Snapshot(),
		PaymentFrequency: domain.PaymentFrequency(input.PaymentFrequency),
		DesiredStartDate: input.DesiredStartDate,
		EmergencyContact: input.EmergencyContact,
	}

	demand, err := s.engine.Create(ctx, draft, actorID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("demand created",
		zap.String("demand_id", demand.ID),
		zap.Uint("member_id", demand.MemberID),
		zap.Uint("actor_id", actorID))
	return demand, nil
}

func (s *DemandService) activePlan(ctx context.Context, code string) (*domain.SubscriptionPlan, error) {
	plan, err := s.plans.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.Invalid("plan_code", "plan %s is not active", plan.Code)
	}
	return plan, nil
}

// Get gets a demand by ID
func (s *DemandService) Get(ctx context.Context, id string) (*domain.Demand, error) {
	return s.demands.GetByID(ctx, id)
}

// ListInput represents list input
type ListInput struct {
	Tab      string
	MemberID *uint
	Search   string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
}

func (in *ListInput) filter() (domain.DemandFilter, error) {
	filter := domain.DemandFilter{
		MemberID: in.MemberID,
		Search:   strings.TrimSpace(in.Search),
		From:     in.From,
		To:       in.To,
	}
	tab := strings.TrimSpace(in.Tab)
	if tab != "" && !strings.EqualFold(tab, TabAll) {
		status, ok := domain.ParseStatus(tab)
		if !ok {
			return filter, domain.Invalid("tab", "unknown status %q", tab)
		}
		filter.Status = &status
	}
	return filter, nil
}

// List lists demands. The "all" tab sorts by status priority, then newest
// first; a status tab sorts newest first.
func (s *DemandService) List(ctx context.Context, input *ListInput) (*domain.DemandPage, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = DefaultPageLimit
	}
	if input.Limit > MaxPageLimit {
		input.Limit = MaxPageLimit
	}

	filter, err := input.filter()
	if err != nil {
		return nil, err
	}
	sort := domain.SortCreatedDesc
	if filter.Status == nil {
		sort = domain.SortPriority
	}

	return s.demands.QueryPage(ctx, filter, domain.PageRequest{Page: input.Page, Limit: input.Limit}, sort)
}

// Stats counts demands per status for the list tabs
func (s *DemandService) Stats(ctx context.Context, input *ListInput) (domain.StatusCounts, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}
	filter.Status = nil
	return s.demands.CountByStatus(ctx, filter)
}

// UpdateDemandInput represents update demand input; nil fields are unchanged
type UpdateDemandInput struct {
	Cause            *string                  `json:"cause,omitempty"`
	PlanCode         *string                  `json:"plan_code,omitempty" validate:"omitempty,max=20"`
	PaymentFrequency *string                  `json:"payment_frequency,omitempty" validate:"omitempty,oneof=DAILY MONTHLY"`
	DesiredStartDate *time.Time               `json:"desired_start_date,omitempty"`
	EmergencyContact *domain.EmergencyContact `json:"emergency_contact,omitempty"`
}

// Update changes the non-workflow fields of a demand
func (s *DemandService) Update(ctx context.Context, id string, input *UpdateDemandInput, actorID uint) (*domain.Demand, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	fields := domain.DemandFields{
		Cause:            input.Cause,
		DesiredStartDate: input.DesiredStartDate,
		EmergencyContact: input.EmergencyContact,
	}
	if input.DesiredStartDate != nil && input.DesiredStartDate.IsZero() {
		return nil, domain.Invalid("desired_start_date", "is required")
	}
	if input.PaymentFrequency != nil {
		freq := domain.PaymentFrequency(*input.PaymentFrequency)
		fields.PaymentFrequency = &freq
	}
	if input.PlanCode != nil {
		plan, err := s.activePlan(ctx, *input.PlanCode)
		if err != nil {
			return nil, err
		}
		snapshot := plan.Snapshot()
		fields.Plan = &snapshot
	}

	return s.engine.Update(ctx, id, fields, actorID)
}

// Accept approves a demand
func (s *DemandService) Accept(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	return s.engine.Accept(ctx, id, reason, actorID)
}

// Reject rejects a demand
func (s *DemandService) Reject(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	return s.engine.Reject(ctx, id, reason, actorID)
}

// Reopen reopens a rejected demand
func (s *DemandService) Reopen(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	return s.engine.Reopen(ctx, id, reason, actorID)
}

// Delete removes a demand
func (s *DemandService) Delete(ctx context.Context, id string, actorID uint) error {
	if err := s.engine.Delete(ctx, id, actorID); err != nil {
		return err
	}
	zap.L().Info("demand deleted", zap.String("demand_id", id), zap.Uint("actor_id", actorID))
	return nil
}

// Convert turns an approved demand into an active contract
func (s *DemandService) Convert(ctx context.Context, id string, firstPayment *time.Time, actorID uint) (*ConversionResult, error) {
	result, err := s.coordinator.Convert(ctx, id, firstPayment, actorID)
	if err != nil {
		return nil, err
	}
	zap.L().Info("demand converted",
		zap.String("demand_id", id),
		zap.String("contract_id", result.Contract.ID),
		zap.Bool("resumed", result.Resumed))
	return result, nil
}

// GetContract gets a contract by ID
func (s *DemandService) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

// DeleteContract deletes a contract and reverts its demand to APPROVED
func (s *DemandService) DeleteContract(ctx context.Context, id string, actorID uint) error {
	if err := s.coordinator.DeleteContract(ctx, id, actorID); err != nil {
		return err
	}
	zap.L().Info("contract deleted", zap.String("contract_id", id), zap.Uint("actor_id", actorID))
	return nil
}

// History gets the audit trail of a demand
func (s *DemandService) History(ctx context.Context, id string) ([]*domain.HistoryEntry, error) {
	if _, err := s.demands.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.demands.History(ctx, id)
}

// DemandSchedule computes the schedule of a demand from its plan snapshot
func (s *DemandService) DemandSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	demand, err := s.demands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return CalculateSchedule(ScheduleInputFromPlan(demand.Plan, demand.PaymentFrequency, demand.DesiredStartDate))
}

// ContractSchedule computes the schedule of a contract from its first payment date
func (s *DemandService) ContractSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	contract, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return CalculateSchedule(ScheduleInputFromPlan(contract.Plan, contract.PaymentFrequency, contract.FirstPaymentDate))
}

// PreviewScheduleInput computes a schedule for a plan before submission
type PreviewScheduleInput struct {
	PlanCode         string    `json:"plan_code" validate:"required"`
	PaymentFrequency string    `json:"payment_frequency" validate:"required,oneof=DAILY MONTHLY"`
	StartDate        time.Time `json:"start_date"`
}

// PreviewSchedule computes the schedule a new demand would get
func (s *DemandService) PreviewSchedule(ctx context.Context, input *PreviewScheduleInput) (*domain.Schedule, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	plan, err := s.activePlan(ctx, input.PlanCode)
	if err != nil {
		return nil, err
	}
	return CalculateSchedule(ScheduleInputFromPlan(plan.Snapshot(), domain.PaymentFrequency(input.PaymentFrequency), input.StartDate))
}

// ReconcileConversions links contracts left unlinked by an interrupted conversion
func (s *DemandService) ReconcileConversions(ctx context.Context, actorID uint, limit int) (*ReconcileResult, error) {
	result, err := s.coordinator.ReconcileConversions(ctx, actorID, limit)
	if err != nil {
		return nil, err
	}
	if len(result.Linked) > 0 || len(result.Skipped) > 0 {
		zap.L().Info("conversion reconciliation",
			zap.Int("scanned", result.Scanned),
			zap.Int("linked", len(result.Linked)),
			zap.Int("skipped", len(result.Skipped)))
	}
	return result, nil
}
