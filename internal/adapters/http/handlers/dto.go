package handlers

import (
	"strconv"
	"strings"
	"time"

	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/pkg/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD date at UTC midnight
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.Invalid(field, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

// parseOptionalDate returns nil for an empty value
func parseOptionalDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// actorID returns the authenticated user id set by the auth middleware
func actorID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// DemandResponse DTO
type DemandResponse struct {
	ID               string                  `json:"id"`
	MemberID         uint                    `json:"member_id"`
	Member           domain.MemberSnapshot   `json:"member"`
	Cause            string                  `json:"cause"`
	Plan             domain.PlanSnapshot     `json:"plan"`
	PaymentFrequency domain.PaymentFrequency `json:"payment_frequency"`
	DesiredStartDate string                  `json:"desired_start_date"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact"`
	Status           domain.DemandStatus     `json:"status"`
	Priority         int                     `json:"priority"`
	DecisionReason   string                  `json:"decision_reason,omitempty"`
	ReopenReason     string                  `json:"reopen_reason,omitempty"`
	ContractID       *string                 `json:"contract_id"`
	Traceability     domain.Traceability     `json:"traceability"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func newDemandResponse(d *domain.Demand) *DemandResponse {
	return &DemandResponse{
		ID:               d.ID,
		MemberID:         d.MemberID,
		Member:           d.Member,
		Cause:            d.Cause,
		Plan:             d.Plan,
		PaymentFrequency: d.PaymentFrequency,
		DesiredStartDate: d.DesiredStartDate.Format(dateLayout),
		EmergencyContact: d.EmergencyContact,
		Status:           d.Status,
		Priority:         d.Priority,
		DecisionReason:   d.DecisionReason,
		ReopenReason:     d.ReopenReason,
		ContractID:       d.ContractID,
		Traceability:     d.Trace,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ContractResponse DTO
type ContractResponse struct {
	ID               string                  `json:"id"`
	DemandID         *string                 `json:"demand_id"`
	MemberID         uint                    `json:"member_id"`
	Member           domain.MemberSnapshot   `json:"member"`
	Plan             domain.PlanSnapshot     `json:"plan"`
	Nominal          decimal.Decimal         `json:"nominal"`
	SupportMin       decimal.Decimal         `json:"support_min"`
	SupportMax       decimal.Decimal         `json:"support_max"`
	PaymentFrequency domain.PaymentFrequency `json:"payment_frequency"`
	FirstPaymentDate string                  `json:"first_payment_date"`
	Status           domain.ContractStatus   `json:"status"`
	CreatedBy        uint                    `json:"created_by"`
	CreatedAt        time.Time               `json:"created_at"`
}

func newContractResponse(c *domain.Contract) *ContractResponse {
	return &ContractResponse{
		ID:               c.ID,
		DemandID:         c.DemandID,
		MemberID:         c.MemberID,
		Member:           c.Member,
		Plan:             c.Plan,
		Nominal:          c.Nominal,
		SupportMin:       c.SupportMin,
		SupportMax:       c.SupportMax,
		PaymentFrequency: c.PaymentFrequency,
		FirstPaymentDate: c.FirstPaymentDate.Format(dateLayout),
		Status:           c.Status,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
	}
}

// HistoryResponse DTO
type HistoryResponse struct {
	ID         uint                `json:"id"`
	Action     domain.Action       `json:"action"`
	FromStatus domain.DemandStatus `json:"from_status,omitempty"`
	ToStatus   domain.DemandStatus `json:"to_status,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Changes    map[string]any      `json:"changes,omitempty"`
	ContractID *string             `json:"contract_id,omitempty"`
	ActorID    uint                `json:"actor_id"`
	CreatedAt  time.Time           `json:"created_at"`
}

func newHistoryResponse(e *domain.HistoryEntry) *HistoryResponse {
	return &HistoryResponse{
		ID:         e.ID,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Reason:     e.Reason,
		Changes:    e.Changes,
		ContractID: e.ContractID,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
	}
}

// PlanResponse DTO
type PlanResponse struct {
	ID             uint             `json:"id"`
	Code           string           `json:"code"`
	Label          string           `json:"label"`
	AmountPerMonth decimal.Decimal  `json:"amount_per_month"`
	DurationMonths int              `json:"duration_months"`
	Nominal        *decimal.Decimal `json:"nominal,omitempty"`
	SupportMin     *decimal.Decimal `json:"support_min,omitempty"`
	SupportMax     *decimal.Decimal `json:"support_max,omitempty"`
	IsActive       bool             `json:"is_active"`
}

func newPlanResponse(p *domain.SubscriptionPlan) *PlanResponse {
	return &PlanResponse{
		ID:             p.ID,
		Code:           p.Code,
		Label:          p.Label,
		AmountPerMonth: p.AmountPerMonth,
		DurationMonths: p.DurationMonths,
		Nominal:        p.Nominal,
		SupportMin:     p.SupportMin,
		SupportMax:     p.SupportMax,
		IsActive:       p.IsActive,
	}
}

// ScheduleItemResponse DTO
type ScheduleItemResponse struct {
	Period       int             `json:"period"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Cumulative   decimal.Decimal `json:"cumulative"`
	PaymentCount int             `json:"payment_count"`
}

// ScheduleResponse DTO
type ScheduleResponse struct {
	Frequency     domain.PaymentFrequency `json:"frequency"`
	DailyRate     *decimal.Decimal        `json:"daily_rate,omitempty"`
	Items         []ScheduleItemResponse  `json:"items"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	TotalMonths   int                     `json:"total_months"`
	TotalPayments int                     `json:"total_payments"`
}

func newScheduleResponse(s *domain.Schedule) *ScheduleResponse {
	items := make([]ScheduleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ScheduleItemResponse{
			Period:       it.Period,
			Date:         it.Date.Format(dateLayout),
			Amount:       it.Amount,
			Cumulative:   it.Cumulative,
			PaymentCount: it.PaymentCount,
		})
	}
	return &ScheduleResponse{
		Frequency:     s.Frequency,
		DailyRate:     s.DailyRate,
		Items:         items,
		TotalAmount:   s.TotalAmount,
		TotalMonths:   s.TotalMonths,
		TotalPayments: s.TotalPayments,
	}
}

// listInput reads the demand list query string
func listInput(c *fiber.Ctx) (*services.ListInput, error) {
	params := pagination.GetParams(c)
	input := &services.ListInput{
		Tab:    c.Query("tab", services.TabAll),
		Search: c.Query("q"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	if memberID := c.Query("member_id"); memberID != "" {
		id, err := strconv.ParseUint(memberID, 10, 32)
		if err != nil {
			return nil, domain.Invalid("member_id", "must be a positive integer")
		}
		uid := uint(id)
		input.MemberID = &uid
	}

	var err error
	if input.From, err = parseOptionalDate("from", c.Query("from")); err != nil {
		return nil, err
	}
	if input.To, err = parseOptionalDate("to", c.Query("to")); err != nil {
		return nil, err
	}
	if input.To != nil {
		end := input.To.Add(24*time.Hour - time.Nanosecond)
		input.To = &end
	}
	return input, nil
}
