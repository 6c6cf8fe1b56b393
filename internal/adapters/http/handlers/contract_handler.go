package handlers

import (
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ContractHandler handles contract endpoints
type ContractHandler struct {
	demandService *services.DemandService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(demandService *services.DemandService) *ContractHandler {
	return &ContractHandler{
		demandService: demandService,
	}
}

// GetByID gets a contract
// @Summary Get contract
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contracts/{id} [get]
func (h *ContractHandler) GetByID(c *fiber.Ctx) error {
	contract, err := h.demandService.GetContract(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Contract retrieved successfully", fiber.Map{
		"contract": newContractResponse(contract),
	})
}

// Delete deletes a contract and returns its demand to APPROVED
// @Summary Delete contract
// @Description Roll back a conversion. Refused while payments, support history or early refunds exist.
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Delete(c *fiber.Ctx) error {
	if err := h.demandService.DeleteContract(c.Context(), c.Params("id"), actorID(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Contract deleted successfully", nil)
}

// Schedule computes the payment schedule of a contract
// @Summary Contract schedule
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contracts/{id}/schedule [get]
func (h *ContractHandler) Schedule(c *fiber.Ctx) error {
	schedule, err := h.demandService.ContractSchedule(c.Context(), c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Schedule computed successfully", fiber.Map{
		"schedule": newScheduleResponse(schedule),
	})
}
