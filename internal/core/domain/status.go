package domain

import "strings"

// DemandStatus is the workflow state of a demand. The string values are part
// of the external contract.
type DemandStatus string

const (
	StatusPending   DemandStatus = "PENDING"
	StatusApproved  DemandStatus = "APPROVED"
	StatusRejected  DemandStatus = "REJECTED"
	StatusConverted DemandStatus = "CONVERTED"
	StatusReopened  DemandStatus = "REOPENED"
)

// AllStatuses in priority order
var AllStatuses = []DemandStatus{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusConverted,
	StatusReopened,
}

var statusPriority = map[DemandStatus]int{
	StatusPending:   1,
	StatusApproved:  2,
	StatusRejected:  3,
	StatusConverted: 4,
	StatusReopened:  5,
}

// Priority returns the default "all" tab sort rank, 0 for unknown statuses
func (s DemandStatus) Priority() int {
	return statusPriority[s]
}

// Valid reports whether s is part of the status vocabulary
func (s DemandStatus) Valid() bool {
	_, ok := statusPriority[s]
	return ok
}

// ParseStatus parses a status case-insensitively
func ParseStatus(v string) (DemandStatus, bool) {
	s := DemandStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// PaymentFrequency selects monthly or daily repayment
type PaymentFrequency string

const (
	FrequencyDaily   PaymentFrequency = "DAILY"
	FrequencyMonthly PaymentFrequency = "MONTHLY"
)

// Valid reports whether f is a known frequency
func (f PaymentFrequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyMonthly
}

// Action names a lifecycle operation
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionAccept   Action = "ACCEPT"
	ActionReject   Action = "REJECT"
	ActionReopen   Action = "REOPEN"
	ActionConvert  Action = "CONVERT"
	ActionDelete   Action = "DELETE"
	ActionRollback Action = "ROLLBACK"
)
