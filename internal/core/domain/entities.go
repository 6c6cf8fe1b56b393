package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents user role in the system
type Role string

const (
	RoleUser    Role = "USER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// User represents an operator account
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member represents a member of the mutual-assistance scheme
type Member struct {
	ID        uint
	Matricule string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	IsActive  bool
}

// FullName returns "first last"
func (m *Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// SubscriptionPlan is a catalog tier (CI) a demand references
type SubscriptionPlan struct {
	ID             uint
	Code           string
	Label          string
	AmountPerMonth decimal.Decimal
	DurationMonths int
	Nominal        *decimal.Decimal
	SupportMin     *decimal.Decimal
	SupportMax     *decimal.Decimal
	IsActive       bool
}

// Snapshot freezes the plan fields copied onto a demand
func (p *SubscriptionPlan) Snapshot() PlanSnapshot {
	return PlanSnapshot{
		Code:           p.Code,
		Label:          p.Label,
		AmountPerMonth: p.AmountPerMonth,
		DurationMonths: p.DurationMonths,
		Nominal:        p.Nominal,
		SupportMin:     p.SupportMin,
		SupportMax:     p.SupportMax,
	}
}

// PlanSnapshot is the plan as it was when the demand was submitted.
// Optional amounts stay nil until conversion applies defaults.
type PlanSnapshot struct {
	Code           string           `json:"code"`
	Label          string           `json:"label"`
	AmountPerMonth decimal.Decimal  `json:"amount_per_month"`
	DurationMonths int              `json:"duration_months"`
	Nominal        *decimal.Decimal `json:"nominal,omitempty"`
	SupportMin     *decimal.Decimal `json:"support_min,omitempty"`
	SupportMax     *decimal.Decimal `json:"support_max,omitempty"`
}

// MemberSnapshot is the denormalized member identity captured at creation
type MemberSnapshot struct {
	Name      string `json:"name"`
	Matricule string `json:"matricule"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// EmergencyContact is mandatory on every demand
type EmergencyContact struct {
	Name         string `json:"name" validate:"required,max=150"`
	Phone        string `json:"phone" validate:"required,max=30"`
	Relationship string `json:"relationship" validate:"required,max=50"`
	IDDocument   string `json:"id_document" validate:"required,max=100"`
}

// Stamp is one <action>By/<action>At pair
type Stamp struct {
	By uint      `json:"by"`
	At time.Time `json:"at"`
}

// Traceability holds the latest stamp of every action. Each action owns its
// own pair; the full sequence lives in the demand history.
type Traceability struct {
	Created   *Stamp `json:"created,omitempty"`
	Updated   *Stamp `json:"updated,omitempty"`
	Accepted  *Stamp `json:"accepted,omitempty"`
	Rejected  *Stamp `json:"rejected,omitempty"`
	Reopened  *Stamp `json:"reopened,omitempty"`
	Deleted   *Stamp `json:"deleted,omitempty"`
	Converted *Stamp `json:"converted,omitempty"`
}

// Demand is a member's request for emergency-fund assistance
type Demand struct {
	ID               string
	MemberID         uint
	Member           MemberSnapshot
	Cause            string
	Plan             PlanSnapshot
	PaymentFrequency PaymentFrequency
	DesiredStartDate time.Time
	EmergencyContact EmergencyContact
	Status           DemandStatus
	Priority         int
	DecisionReason   string
	ReopenReason     string
	ContractID       *string
	Trace            Traceability
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsConverted reports whether a contract is already linked
func (d *Demand) IsConverted() bool {
	return d.ContractID != nil && *d.ContractID != ""
}

// ContractStatus is the status of a contract
type ContractStatus string

const (
	ContractActive ContractStatus = "ACTIVE"
	ContractClosed ContractStatus = "CLOSED"
)

// Contract is the financial instrument derived 1:1 from an approved demand
type Contract struct {
	ID               string
	DemandID         *string
	MemberID         uint
	Member           MemberSnapshot
	Plan             PlanSnapshot
	Nominal          decimal.Decimal
	SupportMin       decimal.Decimal
	SupportMax       decimal.Decimal
	PaymentFrequency PaymentFrequency
	FirstPaymentDate time.Time
	Status           ContractStatus
	CreatedBy        uint
	CreatedAt        time.Time
}

// ContractActivity counts records that block a contract rollback
type ContractActivity struct {
	Payments     int64 `json:"payments"`
	SupportItems int64 `json:"support_items"`
	EarlyRefunds int64 `json:"early_refunds"`
}

// Empty reports whether nothing blocks deletion
func (a ContractActivity) Empty() bool {
	return a.Payments == 0 && a.SupportItems == 0 && a.EarlyRefunds == 0
}

// HistoryEntry is one row of the demand audit trail
type HistoryEntry struct {
	ID         uint
	DemandID   string
	Action     Action
	FromStatus DemandStatus
	ToStatus   DemandStatus
	Reason     string
	Changes    map[string]any
	ContractID *string
	ActorID    uint
	CreatedAt  time.Time
}
