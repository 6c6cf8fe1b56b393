package models

import (
	"encoding/json"
	"time"

	"emergency-fund/internal/core/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

func decimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func stamp(by *uint, at *time.Time) *domain.Stamp {
	if by == nil || at == nil {
		return nil
	}
	return &domain.Stamp{By: *by, At: *at}
}

// ToDomain converts a user row
func (u *User) ToDomain() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		Role:      domain.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToDomain converts a member row
func (m *Member) ToDomain() *domain.Member {
	return &domain.Member{
		ID:        m.ID,
		Matricule: m.Matricule,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Phone:     m.Phone,
		Email:     m.Email,
		IsActive:  m.IsActive,
	}
}

// ToDomain converts a plan row
func (p *SubscriptionPlan) ToDomain() *domain.SubscriptionPlan {
	return &domain.SubscriptionPlan{
		ID:             p.ID,
		Code:           p.Code,
		Label:          p.Label,
		AmountPerMonth: p.AmountPerMonth,
		DurationMonths: p.DurationMonths,
		Nominal:        decimalPtr(p.Nominal),
		SupportMin:     decimalPtr(p.SupportMin),
		SupportMax:     decimalPtr(p.SupportMax),
		IsActive:       p.IsActive,
	}
}

// NewSubscriptionPlan builds a plan row
func NewSubscriptionPlan(p *domain.SubscriptionPlan) *SubscriptionPlan {
	return &SubscriptionPlan{
		ID:             p.ID,
		Code:           p.Code,
		Label:          p.Label,
		AmountPerMonth: p.AmountPerMonth,
		DurationMonths: p.DurationMonths,
		Nominal:        nullDecimal(p.Nominal),
		SupportMin:     nullDecimal(p.SupportMin),
		SupportMax:     nullDecimal(p.SupportMax),
		IsActive:       p.IsActive,
	}
}

// NewMemberColumns builds the member snapshot columns
func NewMemberColumns(m domain.MemberSnapshot) MemberColumns {
	return MemberColumns{Name: m.Name, Matricule: m.Matricule, Phone: m.Phone, Email: m.Email}
}

func (c MemberColumns) toDomain() domain.MemberSnapshot {
	return domain.MemberSnapshot{Name: c.Name, Matricule: c.Matricule, Phone: c.Phone, Email: c.Email}
}

// NewPlanColumns builds the plan snapshot columns
func NewPlanColumns(p domain.PlanSnapshot) PlanColumns {
	return PlanColumns{
		Code:           p.Code,
		Label:          p.Label,
		AmountPerMonth: p.AmountPerMonth,
		DurationMonths: p.DurationMonths,
		Nominal:        nullDecimal(p.Nominal),
		SupportMin:     nullDecimal(p.SupportMin),
		SupportMax:     nullDecimal(p.SupportMax),
	}
}

func (c PlanColumns) toDomain() domain.PlanSnapshot {
	return domain.PlanSnapshot{
		Code:           c.Code,
		Label:          c.Label,
		AmountPerMonth: c.AmountPerMonth,
		DurationMonths: c.DurationMonths,
		Nominal:        decimalPtr(c.Nominal),
		SupportMin:     decimalPtr(c.SupportMin),
		SupportMax:     decimalPtr(c.SupportMax),
	}
}

// NewContactColumns builds the emergency contact columns
func NewContactColumns(c domain.EmergencyContact) ContactColumns {
	return ContactColumns{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship, IDDocument: c.IDDocument}
}

func (c ContactColumns) toDomain() domain.EmergencyContact {
	return domain.EmergencyContact{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship, IDDocument: c.IDDocument}
}

// NewDemand builds a demand row for insertion
func NewDemand(d *domain.Demand) *Demand {
	row := &Demand{
		ID:               d.ID,
		MemberID:         d.MemberID,
		Member:           NewMemberColumns(d.Member),
		Cause:            d.Cause,
		Plan:             NewPlanColumns(d.Plan),
		PaymentFrequency: string(d.PaymentFrequency),
		DesiredStartDate: d.DesiredStartDate,
		Contact:          NewContactColumns(d.EmergencyContact),
		Status:           string(d.Status),
		Priority:         d.Priority,
		DecisionReason:   d.DecisionReason,
		ReopenReason:     d.ReopenReason,
		ContractID:       d.ContractID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.Trace.Created != nil {
		row.CreatedBy = d.Trace.Created.By
	}
	return row
}

// ToDomain converts a demand row
func (d *Demand) ToDomain() *domain.Demand {
	out := &domain.Demand{
		ID:               d.ID,
		MemberID:         d.MemberID,
		Member:           d.Member.toDomain(),
		Cause:            d.Cause,
		Plan:             d.Plan.toDomain(),
		PaymentFrequency: domain.PaymentFrequency(d.PaymentFrequency),
		DesiredStartDate: d.DesiredStartDate,
		EmergencyContact: d.Contact.toDomain(),
		Status:           domain.DemandStatus(d.Status),
		Priority:         d.Priority,
		DecisionReason:   d.DecisionReason,
		ReopenReason:     d.ReopenReason,
		ContractID:       d.ContractID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	out.Trace = domain.Traceability{
		Created:   &domain.Stamp{By: d.CreatedBy, At: d.CreatedAt},
		Updated:   stamp(d.EditedBy, d.EditedAt),
		Accepted:  stamp(d.AcceptedBy, d.AcceptedAt),
		Rejected:  stamp(d.RejectedBy, d.RejectedAt),
		Reopened:  stamp(d.ReopenedBy, d.ReopenedAt),
		Converted: stamp(d.ConvertedBy, d.ConvertedAt),
	}
	if d.DeletedAt.Valid {
		deletedAt := d.DeletedAt.Time
		out.Trace.Deleted = stamp(d.DeletedBy, &deletedAt)
	}
	return out
}

// NewContract builds a contract row for insertion
func NewContract(c *domain.Contract) *Contract {
	return &Contract{
		ID:               c.ID,
		DemandID:         c.DemandID,
		MemberID:         c.MemberID,
		Member:           NewMemberColumns(c.Member),
		Plan:             NewPlanColumns(c.Plan),
		Nominal:          c.Nominal,
		SupportMin:       c.SupportMin,
		SupportMax:       c.SupportMax,
		PaymentFrequency: string(c.PaymentFrequency),
		FirstPaymentDate: c.FirstPaymentDate,
		Status:           string(c.Status),
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.CreatedAt,
	}
}

// ToDomain converts a contract row
func (c *Contract) ToDomain() *domain.Contract {
	return &domain.Contract{
		ID:               c.ID,
		DemandID:         c.DemandID,
		MemberID:         c.MemberID,
		Member:           c.Member.toDomain(),
		Plan:             c.Plan.toDomain(),
		Nominal:          c.Nominal,
		SupportMin:       c.SupportMin,
		SupportMax:       c.SupportMax,
		PaymentFrequency: domain.PaymentFrequency(c.PaymentFrequency),
		FirstPaymentDate: c.FirstPaymentDate,
		Status:           domain.ContractStatus(c.Status),
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
	}
}

// NewDemandHistory builds a history row
func NewDemandHistory(e *domain.HistoryEntry) (*DemandHistory, error) {
	row := &DemandHistory{
		DemandID:   e.DemandID,
		Action:     string(e.Action),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		Reason:     e.Reason,
		ContractID: e.ContractID,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
	}
	if len(e.Changes) > 0 {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, err
		}
		row.Changes = datatypes.JSON(raw)
	}
	return row, nil
}

// ToDomain converts a history row
func (h *DemandHistory) ToDomain() *domain.HistoryEntry {
	entry := &domain.HistoryEntry{
		ID:         h.ID,
		DemandID:   h.DemandID,
		Action:     domain.Action(h.Action),
		FromStatus: domain.DemandStatus(h.FromStatus),
		ToStatus:   domain.DemandStatus(h.ToStatus),
		Reason:     h.Reason,
		ContractID: h.ContractID,
		ActorID:    h.ActorID,
		CreatedAt:  h.CreatedAt,
	}
	if len(h.Changes) > 0 {
		if err := json.Unmarshal(h.Changes, &entry.Changes); err != nil {
			entry.Changes = nil
			zap.L().Warn("corrupt history changes",
				zap.Uint("history_id", h.ID),
				zap.String("demand_id", h.DemandID),
				zap.Error(err))
		}
	}
	return entry
}
