package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandFilter narrows a demand listing
type DemandFilter struct {
	Status   *DemandStatus // nil means the "all" tab
	MemberID *uint
	Search   string
	From     *time.Time
	To       *time.Time
}

// SortOrder selects the listing order
type SortOrder string

const (
	// SortPriority is the default "all" tab order: priority asc, created desc
	SortPriority    SortOrder = "priority"
	SortCreatedDesc SortOrder = "created_desc"
	SortCreatedAsc  SortOrder = "created_asc"
)

// PageRequest is a 1-indexed page request
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the page
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// DemandPage is a page of demands with pagination metadata
type DemandPage struct {
	Items      []*Demand `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// StatusCounts maps each status to its number of demands
type StatusCounts map[DemandStatus]int64

// Total sums every status
func (c StatusCounts) Total() int64 {
	var n int64
	for _, v := range c {
		n += v
	}
	return n
}

// ScheduleItem is one period of a repayment plan
type ScheduleItem struct {
	Period       int             `json:"period"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Cumulative   decimal.Decimal `json:"cumulative"`
	PaymentCount int             `json:"payment_count"`
}

// Schedule is the itemized plan plus totals
type Schedule struct {
	Frequency     PaymentFrequency `json:"frequency"`
	DailyRate     *decimal.Decimal `json:"daily_rate,omitempty"`
	Items         []ScheduleItem   `json:"items"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	TotalMonths   int              `json:"total_months"`
	TotalPayments int              `json:"total_payments"`
}
