package domain

import "time"

// EventType names a lifecycle event published for downstream consumers
type EventType string

const (
	EventDemandCreated   EventType = "demand.created"
	EventDemandUpdated   EventType = "demand.updated"
	EventDemandAccepted  EventType = "demand.accepted"
	EventDemandRejected  EventType = "demand.rejected"
	EventDemandReopened  EventType = "demand.reopened"
	EventDemandDeleted   EventType = "demand.deleted"
	EventDemandConverted EventType = "demand.converted"
	EventContractDeleted EventType = "contract.deleted"
)

// Event is the payload published on every lifecycle transition
type Event struct {
	Type       EventType    `json:"type"`
	DemandID   string       `json:"demand_id,omitempty"`
	ContractID string       `json:"contract_id,omitempty"`
	Status     DemandStatus `json:"status,omitempty"`
	ActorID    uint         `json:"actor_id"`
	Reason     string       `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
