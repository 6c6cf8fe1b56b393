package domain

import "time"

// DemandFields are the non-workflow fields an update may change. Nil means
// unchanged.
type DemandFields struct {
	Cause            *string
	Plan             *PlanSnapshot
	PaymentFrequency *PaymentFrequency
	DesiredStartDate *time.Time
	EmergencyContact *EmergencyContact
}

// Empty reports whether no field is set
func (f DemandFields) Empty() bool {
	return f.Cause == nil && f.Plan == nil && f.PaymentFrequency == nil &&
		f.DesiredStartDate == nil && f.EmergencyContact == nil
}

// StatusChange is a conditional status write: it only applies when the stored
// status still equals From.
type StatusChange struct {
	Action         Action
	From           DemandStatus
	To             DemandStatus
	DecisionReason *string
	ReopenReason   *string
	// LinkContract sets contract_id and additionally requires it to be unset
	LinkContract *string
	// ClearContract unsets contract_id
	ClearContract bool
	ActorID       uint
	At            time.Time
}

// Changes lists the set fields for the audit trail
func (f DemandFields) Changes() map[string]any {
	changes := map[string]any{}
	if f.Cause != nil {
		changes["cause"] = *f.Cause
	}
	if f.Plan != nil {
		changes["plan"] = *f.Plan
	}
	if f.PaymentFrequency != nil {
		changes["payment_frequency"] = *f.PaymentFrequency
	}
	if f.DesiredStartDate != nil {
		changes["desired_start_date"] = f.DesiredStartDate.Format("2006-01-02")
	}
	if f.EmergencyContact != nil {
		changes["emergency_contact"] = *f.EmergencyContact
	}
	return changes
}
