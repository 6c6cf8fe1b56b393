package handlers

import (
	"context"

	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/pkg/pagination"
	"emergency-fund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DemandHandler handles demand endpoints
type DemandHandler struct {
	demandService *services.DemandService
}

// NewDemandHandler creates a new demand handler
func NewDemandHandler(demandService *services.DemandService) *DemandHandler {
	return &DemandHandler{
		demandService: demandService,
	}
}

// CreateDemandRequest represents create demand request
type CreateDemandRequest struct {
	MemberID         uint                    `json:"member_id"`
	Cause            string                  `json:"cause"`
	PlanCode         string                  `json:"plan_code"`
	PaymentFrequency string                  `json:"payment_frequency"`
	DesiredStartDate string                  `json:"desired_start_date" example:"2026-02-01"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact"`
}

// UpdateDemandRequest represents update demand request
type UpdateDemandRequest struct {
	Cause            *string                  `json:"cause,omitempty"`
	PlanCode         *string                  `json:"plan_code,omitempty"`
	PaymentFrequency *string                  `json:"payment_frequency,omitempty"`
	DesiredStartDate *string                  `json:"desired_start_date,omitempty" example:"2026-02-01"`
	EmergencyContact *domain.EmergencyContact `json:"emergency_contact,omitempty"`
}

// ReasonRequest carries a decision or reopen justification
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ConvertRequest represents convert request
type ConvertRequest struct {
	FirstPaymentDate string `json:"first_payment_date,omitempty" example:"2026-03-01"`
}

// Create creates a new demand
// @Summary Create demand
// @Description Submit a new emergency-fund demand (Officer only)
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDemandRequest true "Demand data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /demands [post]
func (h *DemandHandler) Create(c *fiber.Ctx) error {
	var req CreateDemandRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.DesiredStartDate == "" {
		return response.FromError(c, domain.Invalid("desired_start_date", "is required"))
	}
	start, err := parseDate("desired_start_date", req.DesiredStartDate)
	if err != nil {
		return response.FromError(c, err)
	}

	input := &services.CreateDemandInput{
		MemberID:         req.MemberID,
		Cause:            req.Cause,
		PlanCode:         req.PlanCode,
		PaymentFrequency: req.PaymentFrequency,
		DesiredStartDate: start,
		EmergencyContact: req.EmergencyContact,
	}

	demand, err := h.demandService.Create(c.Context(), input, actorID(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Demand created successfully", fiber.Map{
		"demand": newDemandResponse(demand),
	})
}

// List lists demands
// @Summary List demands
// @Description List demands by tab. The all tab is ordered by status priority.
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tab query string false "all, PENDING, APPROVED, REJECTED, REOPENED or CONVERTED" default(all)
// @Param member_id query int false "Filter by member ID"
// @Param q query string false "Search identifier, member name, matricule or cause"
// @Param from query string false "Created from (YYYY-MM-DD)"
// @Param to query string false "Created to (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /demands [get]
func (h *DemandHandler) List(c *fiber.Ctx) error {
	input, err := listInput(c)
	if err != nil {
		return response.FromError(c, err)
	}

	page, err := h.demandService.List(c.Context(), input)
	if err != nil {
		return response.FromError(c, err)
	}

	items := make([]*DemandResponse, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, newDemandResponse(d))
	}

	return response.Success(c, "Demands retrieved successfully", fiber.Map{
		"demands": items,
		"meta":    pagination.GetMeta(&pagination.Params{Page: page.Page, Limit: page.Limit}, page.Total),
	})
}

// Stats counts demands per status
// @Summary Demand tab counters
// @Description Count demands per status with the list filters applied
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param member_id query int false "Filter by member ID"
// @Param q query string false "Search"
// @Success 200 {object} response.Response
// @Router /demands/stats [get]
func (h *DemandHandler) Stats(c *fiber.Ctx) error {
	input, err := listInput(c)
	if err != nil {
		return response.FromError(c, err)
	}

	counts, err := h.demandService.Stats(c.Context(), input)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Demand stats retrieved successfully", fiber.Map{
		"counts": counts,
		"total":  counts.Total(),
	})
}

// GetByID gets a demand
// @Summary Get demand
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /demands/{id} [get]
func (h *DemandHandler) GetByID(c *fiber.Ctx) error {
	demand, err := h.demandService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Demand retrieved successfully", fiber.Map{
		"demand": newDemandResponse(demand),
	})
}

// Update updates a demand
// @Summary Update demand
// @Description Update non-workflow fields. The status is never changed here.
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Param body body UpdateDemandRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /demands/{id} [put]
func (h *DemandHandler) Update(c *fiber.Ctx) error {
	var req UpdateDemandRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.UpdateDemandInput{
		Cause:            req.Cause,
		PlanCode:         req.PlanCode,
		PaymentFrequency: req.PaymentFrequency,
		EmergencyContact: req.EmergencyContact,
	}
	if req.DesiredStartDate != nil {
		start, err := parseDate("desired_start_date", *req.DesiredStartDate)
		if err != nil {
			return response.FromError(c, err)
		}
		input.DesiredStartDate = &start
	}

	demand, err := h.demandService.Update(c.Context(), c.Params("id"), input, actorID(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Demand updated successfully", fiber.Map{
		"demand": newDemandResponse(demand),
	})
}

// Delete deletes a demand
// @Summary Delete demand
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /demands/{id} [delete]
func (h *DemandHandler) Delete(c *fiber.Ctx) error {
	if err := h.demandService.Delete(c.Context(), c.Params("id"), actorID(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Demand deleted successfully", nil)
}

// Accept approves a demand
// @Summary Accept demand
// @Description Approve a PENDING or REOPENED demand
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Param body body ReasonRequest true "Decision reason (min 10 characters)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /demands/{id}/accept [put]
func (h *DemandHandler) Accept(c *fiber.Ctx) error {
	return h.decide(c, h.demandService.Accept, "Demand accepted successfully")
}

// Reject refuses a demand
// @Summary Reject demand
// @Description Reject a PENDING or REOPENED demand
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Param body body ReasonRequest true "Decision reason (min 10 characters)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /demands/{id}/reject [put]
func (h *DemandHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, h.demandService.Reject, "Demand rejected successfully")
}

// Reopen reopens a rejected demand
// @Summary Reopen demand
// @Description Move a REJECTED demand back into review
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Param body body ReasonRequest false "Reopen reason"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /demands/{id}/reopen [put]
func (h *DemandHandler) Reopen(c *fiber.Ctx) error {
	return h.decide(c, h.demandService.Reopen, "Demand reopened successfully")
}

type decideFunc func(ctx context.Context, id, reason string, actorID uint) (*domain.Demand, error)

func (h *DemandHandler) decide(c *fiber.Ctx, fn decideFunc, message string) error {
	var req ReasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	demand, err := fn(c.Context(), c.Params("id"), req.Reason, actorID(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, message, fiber.Map{
		"demand": newDemandResponse(demand),
	})
}

// Convert converts an approved demand into a contract
// @Summary Convert demand
// @Description Create the contract of an APPROVED demand and link it
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Param body body ConvertRequest false "Conversion options"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /demands/{id}/convert [post]
func (h *DemandHandler) Convert(c *fiber.Ctx) error {
	var req ConvertRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	firstPayment, err := parseOptionalDate("first_payment_date", req.FirstPaymentDate)
	if err != nil {
		return response.FromError(c, err)
	}

	result, err := h.demandService.Convert(c.Context(), c.Params("id"), firstPayment, actorID(c))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Demand converted successfully", fiber.Map{
		"demand":   newDemandResponse(result.Demand),
		"contract": newContractResponse(result.Contract),
		"resumed":  result.Resumed,
	})
}

// History lists the audit trail of a demand
// @Summary Demand history
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /demands/{id}/history [get]
func (h *DemandHandler) History(c *fiber.Ctx) error {
	entries, err := h.demandService.History(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	history := make([]*HistoryResponse, 0, len(entries))
	for _, e := range entries {
		history = append(history, newHistoryResponse(e))
	}

	return response.Success(c, "Demand history retrieved successfully", fiber.Map{
		"history": history,
	})
}

// Schedule computes the payment schedule of a demand
// @Summary Demand schedule
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Demand ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /demands/{id}/schedule [get]
func (h *DemandHandler) Schedule(c *fiber.Ctx) error {
	schedule, err := h.demandService.DemandSchedule(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Schedule computed successfully", fiber.Map{
		"schedule": newScheduleResponse(schedule),
	})
}
