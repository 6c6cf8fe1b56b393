package handlers

import (
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles subscription plan endpoints
type PlanHandler struct {
	planService   *services.PlanService
	demandService *services.DemandService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *services.PlanService, demandService *services.DemandService) *PlanHandler {
	return &PlanHandler{
		planService:   planService,
		demandService: demandService,
	}
}

// List lists subscription plans
// @Summary List plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param all query bool false "Include inactive plans"
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.Context(), !c.QueryBool("all", false))
	if err != nil {
		return response.FromError(c, err)
	}

	items := make([]*PlanResponse, 0, len(plans))
	for _, p := range plans {
		items = append(items, newPlanResponse(p))
	}

	return response.Success(c, "Plans retrieved successfully", fiber.Map{
		"plans": items,
	})
}

// Create adds a plan to the catalog
// @Summary Create plan
// @Description Add a subscription plan (Admin only)
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePlanInput true "Plan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /plans [post]
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePlanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	plan, err := h.planService.Create(c.Context(), &input)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Plan created successfully", fiber.Map{
		"plan": newPlanResponse(plan),
	})
}

// PreviewScheduleRequest represents schedule preview request
type PreviewScheduleRequest struct {
	PlanCode         string `json:"plan_code"`
	PaymentFrequency string `json:"payment_frequency"`
	StartDate        string `json:"start_date" example:"2026-01-31"`
}

// PreviewSchedule computes a schedule before a demand is submitted
// @Summary Preview schedule
// @Description Compute the payment schedule of a plan from a start date
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PreviewScheduleRequest true "Schedule parameters"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /schedules/preview [post]
func (h *PlanHandler) PreviewSchedule(c *fiber.Ctx) error {
	var req PreviewScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return response.FromError(c, err)
	}

	schedule, err := h.demandService.PreviewSchedule(c.Context(), &services.PreviewScheduleInput{
		PlanCode:         req.PlanCode,
		PaymentFrequency: req.PaymentFrequency,
		StartDate:        start,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Schedule computed successfully", fiber.Map{
		"schedule": newScheduleResponse(schedule),
	})
}
