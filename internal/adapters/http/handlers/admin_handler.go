package handlers

import (
	"emergency-fund/internal/core/services"
	"emergency-fund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles maintenance endpoints
type AdminHandler struct {
	demandService *services.DemandService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(demandService *services.DemandService) *AdminHandler {
	return &AdminHandler{
		demandService: demandService,
	}
}

// Reconcile links contracts left behind by interrupted conversions
// @Summary Reconcile conversions
// @Description Link unlinked contracts to their APPROVED demand (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Batch size" default(100)
// @Success 200 {object} response.Response
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", services.DefaultReconcileBatch)

	result, err := h.demandService.ReconcileConversions(c.Context(), actorID(c), limit)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Reconciliation completed", fiber.Map{
		"result": result,
	})
}
