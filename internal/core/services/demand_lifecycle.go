package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"emergency-fund/internal/core/domain"

	"go.uber.org/zap"
)

// Length bounds enforced before persistence
const (
	MinCauseLength  = 10
	MaxCauseLength  = 500
	MinReasonLength = 10
)

// createAttempts bounds identifier retries when two creations race on the
// same minute and the sequence backend hands out the same number
const createAttempts = 3

type transition struct {
	from []domain.DemandStatus
	to   domain.DemandStatus
}

// transitions is the complete status graph. Update and delete keep the status
// and are not listed.
var transitions = map[domain.Action]transition{
	domain.ActionAccept:   {from: []domain.DemandStatus{domain.StatusPending, domain.StatusReopened}, to: domain.StatusApproved},
	domain.ActionReject:   {from: []domain.DemandStatus{domain.StatusPending, domain.StatusReopened}, to: domain.StatusRejected},
	domain.ActionReopen:   {from: []domain.DemandStatus{domain.StatusRejected}, to: domain.StatusReopened},
	domain.ActionConvert:  {from: []domain.DemandStatus{domain.StatusApproved}, to: domain.StatusConverted},
	domain.ActionRollback: {from: []domain.DemandStatus{domain.StatusConverted}, to: domain.StatusApproved},
}

var eventByAction = map[domain.Action]domain.EventType{
	domain.ActionCreate:  domain.EventDemandCreated,
	domain.ActionUpdate:  domain.EventDemandUpdated,
	domain.ActionAccept:  domain.EventDemandAccepted,
	domain.ActionReject:  domain.EventDemandRejected,
	domain.ActionReopen:  domain.EventDemandReopened,
	domain.ActionDelete:  domain.EventDemandDeleted,
	domain.ActionConvert: domain.EventDemandConverted,
}

// CanTransition reports whether action is legal from status
func CanTransition(action domain.Action, status domain.DemandStatus) bool {
	tr, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range tr.from {
		if s == status {
			return true
		}
	}
	return false
}

// TargetStatus returns the status an action leads to
func TargetStatus(action domain.Action) (domain.DemandStatus, bool) {
	tr, ok := transitions[action]
	return tr.to, ok
}

func conflict(d *domain.Demand, action domain.Action) error {
	return &domain.StateConflictError{
		DemandID: d.ID,
		Action:   action,
		Current:  d.Status,
		Required: transitions[action].from,
	}
}

// ValidateCause checks the 10-500 character bound
func ValidateCause(cause string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(cause))
	if n < MinCauseLength || n > MaxCauseLength {
		return domain.Invalid("cause", "must be between %d and %d characters, got %d", MinCauseLength, MaxCauseLength, n)
	}
	return nil
}

// ValidateReason checks the minimum justification length
func ValidateReason(field, reason string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(reason))
	if n < MinReasonLength {
		return domain.Invalid(field, "must be at least %d characters, got %d", MinReasonLength, n)
	}
	return nil
}

// DemandLifecycleEngine owns the demand state machine. Every action re-reads
// the record, checks its guard and writes with a status precondition.
type DemandLifecycleEngine struct {
	demands   DemandRepository
	contracts ContractRepository
	ids       *IDFormatter
	sequence  IDSequence
	clock     Clock
	events    EventPublisher
}

// NewDemandLifecycleEngine creates a new lifecycle engine
func NewDemandLifecycleEngine(
	demands DemandRepository,
	contracts ContractRepository,
	ids *IDFormatter,
	sequence IDSequence,
	clock Clock,
	events EventPublisher,
) *DemandLifecycleEngine {
	if clock == nil {
		clock = SystemClock{}
	}
	if sequence == nil {
		sequence = NewStoreSequence(demands)
	}
	return &DemandLifecycleEngine{
		demands:   demands,
		contracts: contracts,
		ids:       ids,
		sequence:  sequence,
		clock:     clock,
		events:    events,
	}
}

// Create assigns the identifier and initial state, then persists the draft
func (e *DemandLifecycleEngine) Create(ctx context.Context, draft *domain.Demand, actorID uint) (*domain.Demand, error) {
	if err := ValidateCause(draft.Cause); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	base := e.ids.DemandID(draft.Member.Matricule, now)

	draft.Cause = strings.TrimSpace(draft.Cause)
	draft.Status = domain.StatusPending
	draft.Priority = domain.StatusPending.Priority()
	draft.DecisionReason = ""
	draft.ReopenReason = ""
	draft.ContractID = nil
	draft.Trace = domain.Traceability{Created: &domain.Stamp{By: actorID, At: now}}
	draft.CreatedAt = now
	draft.UpdatedAt = now

	var created *domain.Demand
	for attempt := 0; attempt < createAttempts; attempt++ {
		n, err := e.sequence.Next(ctx, base)
		if err != nil {
			return nil, domain.Store("next demand sequence", err)
		}
		draft.ID = WithSequence(base, n)

		created, err = e.demands.Create(ctx, draft)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateID) || attempt == createAttempts-1 {
			return nil, err
		}
		zap.L().Warn("demand identifier collision, retrying",
			zap.String("id", draft.ID), zap.Int("attempt", attempt+1))
	}

	e.record(ctx, &domain.HistoryEntry{
		DemandID: created.ID,
		Action:   domain.ActionCreate,
		ToStatus: created.Status,
		ActorID:  actorID,
	}, now)
	return created, nil
}

// Accept approves a PENDING or REOPENED demand
func (e *DemandLifecycleEngine) Accept(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	return e.decide(ctx, domain.ActionAccept, id, reason, actorID)
}

// Reject refuses a PENDING or REOPENED demand
func (e *DemandLifecycleEngine) Reject(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	return e.decide(ctx, domain.ActionReject, id, reason, actorID)
}

func (e *DemandLifecycleEngine) decide(ctx context.Context, action domain.Action, id, reason string, actorID uint) (*domain.Demand, error) {
	reason = strings.TrimSpace(reason)
	if err := ValidateReason("decision_reason", reason); err != nil {
		return nil, err
	}
	return e.transition(ctx, action, id, actorID, func(ch *domain.StatusChange) {
		ch.DecisionReason = &reason
	}, reason)
}

// Reopen moves a REJECTED demand back into review. The reason is optional.
func (e *DemandLifecycleEngine) Reopen(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error) {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		if err := ValidateReason("reopen_reason", reason); err != nil {
			return nil, err
		}
	}
	return e.transition(ctx, domain.ActionReopen, id, actorID, func(ch *domain.StatusChange) {
		ch.ReopenReason = &reason
	}, reason)
}

func (e *DemandLifecycleEngine) transition(
	ctx context.Context,
	action domain.Action,
	id string,
	actorID uint,
	apply func(*domain.StatusChange),
	reason string,
) (*domain.Demand, error) {
	current, err := e.demands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(action, current.Status) {
		return nil, conflict(current, action)
	}

	now := e.clock.Now()
	change := domain.StatusChange{
		Action:  action,
		From:    current.Status,
		To:      transitions[action].to,
		ActorID: actorID,
		At:      now,
	}
	if apply != nil {
		apply(&change)
	}

	updated, err := e.demands.SetStatus(ctx, id, change)
	if err != nil {
		return nil, e.staleConflict(ctx, id, action, err)
	}

	e.record(ctx, &domain.HistoryEntry{
		DemandID:   id,
		Action:     action,
		FromStatus: change.From,
		ToStatus:   change.To,
		Reason:     reason,
		ActorID:    actorID,
	}, now)
	return updated, nil
}

// staleConflict turns a failed precondition into the conflict the caller
// would have seen had it read the record a moment later
func (e *DemandLifecycleEngine) staleConflict(ctx context.Context, id string, action domain.Action, err error) error {
	if !errors.Is(err, domain.ErrStaleWrite) {
		return err
	}
	latest, rerr := e.demands.GetByID(ctx, id)
	if rerr != nil {
		return rerr
	}
	if action == domain.ActionConvert && latest.IsConverted() {
		return &domain.AlreadyConvertedError{DemandID: id, ContractID: *latest.ContractID, Current: latest.Status}
	}
	return conflict(latest, action)
}

// Update changes non-workflow fields only; the status is left untouched
func (e *DemandLifecycleEngine) Update(ctx context.Context, id string, fields domain.DemandFields, actorID uint) (*domain.Demand, error) {
	if fields.Empty() {
		return nil, domain.Invalid("", "no field to update")
	}
	if fields.Cause != nil {
		if err := ValidateCause(*fields.Cause); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*fields.Cause)
		fields.Cause = &trimmed
	}
	if fields.PaymentFrequency != nil && !fields.PaymentFrequency.Valid() {
		return nil, domain.Invalid("payment_frequency", "must be DAILY or MONTHLY")
	}

	current, err := e.demands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	updated, err := e.demands.Update(ctx, id, fields, actorID, now)
	if err != nil {
		return nil, err
	}

	e.record(ctx, &domain.HistoryEntry{
		DemandID:   id,
		Action:     domain.ActionUpdate,
		FromStatus: current.Status,
		ToStatus:   current.Status,
		Changes:    fields.Changes(),
		ActorID:    actorID,
	}, now)
	return updated, nil
}

// Delete stamps and removes a demand. A linked contract with recorded
// activity blocks the deletion.
func (e *DemandLifecycleEngine) Delete(ctx context.Context, id string, actorID uint) error {
	current, err := e.demands.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if current.IsConverted() {
		activity, err := e.contracts.Activity(ctx, *current.ContractID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			zap.L().Warn("demand references a missing contract",
				zap.String("demand_id", id), zap.String("contract_id", *current.ContractID))
		case err != nil:
			return err
		case !activity.Empty():
			return &domain.DependentActivityError{ContractID: *current.ContractID, Activity: activity}
		}
	}

	now := e.clock.Now()
	if err := e.demands.Delete(ctx, id, actorID, now); err != nil {
		return err
	}

	e.record(ctx, &domain.HistoryEntry{
		DemandID:   id,
		Action:     domain.ActionDelete,
		FromStatus: current.Status,
		ToStatus:   current.Status,
		ContractID: current.ContractID,
		ActorID:    actorID,
	}, now)
	return nil
}

// record appends the audit row and publishes the matching event. Both are
// logged on failure; the transition itself has already been persisted.
func (e *DemandLifecycleEngine) record(ctx context.Context, entry *domain.HistoryEntry, at time.Time) {
	entry.CreatedAt = at
	if err := e.demands.AppendHistory(ctx, entry); err != nil {
		zap.L().Error("append demand history",
			zap.String("demand_id", entry.DemandID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}

	eventType, ok := eventByAction[entry.Action]
	if !ok || e.events == nil {
		return
	}
	event := domain.Event{
		Type:       eventType,
		DemandID:   entry.DemandID,
		Status:     entry.ToStatus,
		ActorID:    entry.ActorID,
		Reason:     entry.Reason,
		OccurredAt: at,
	}
	if entry.ContractID != nil {
		event.ContractID = *entry.ContractID
	}
	if err := e.events.Publish(ctx, event); err != nil {
		zap.L().Warn("publish lifecycle event",
			zap.String("type", string(eventType)),
			zap.String("demand_id", entry.DemandID),
			zap.Error(err))
	}
}
