package response

import (
	"errors"

	"emergency-fund/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error codes returned in Response.Code
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeAlreadyConverted  = "ALREADY_CONVERTED"
	CodeDependentActivity = "DEPENDENT_ACTIVITY"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// FromError maps a domain error onto its HTTP status. Store failures are
// 503 and flagged retryable; anything unknown is a 500.
func FromError(c *fiber.Ctx, err error) error {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		converted  *domain.AlreadyConvertedError
		conflict   *domain.StateConflictError
		dependent  *domain.DependentActivityError
		incomplete *domain.ConversionIncompleteError
	)

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Error:   validation.Error(),
			Code:    CodeValidation,
			Details: fiber.Map{"field": validation.Field},
		})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(Response{
			Error: notFound.Error(),
			Code:  CodeNotFound,
		})
	case errors.As(err, &converted):
		return c.Status(fiber.StatusConflict).JSON(Response{
			Error: converted.Error(),
			Code:  CodeAlreadyConverted,
			Details: fiber.Map{
				"demand_id":   converted.DemandID,
				"contract_id": converted.ContractID,
			},
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusConflict).JSON(Response{
			Error: conflict.Error(),
			Code:  CodeStateConflict,
			Details: fiber.Map{
				"current":  conflict.Current,
				"required": conflict.Required,
			},
		})
	case errors.As(err, &dependent):
		return c.Status(fiber.StatusConflict).JSON(Response{
			Error:   dependent.Error(),
			Code:    CodeDependentActivity,
			Details: dependent.Activity,
		})
	case errors.As(err, &incomplete):
		zap.L().Error("conversion incomplete", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{
			Error:     "conversion incomplete, retry to finish linking the contract",
			Code:      CodeStoreUnavailable,
			Details:   fiber.Map{"demand_id": incomplete.DemandID, "contract_id": incomplete.ContractID},
			Retryable: true,
		})
	case errors.Is(err, domain.ErrStore), errors.Is(err, domain.ErrDuplicateID):
		zap.L().Error("store failure", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{
			Error:     "storage temporarily unavailable",
			Code:      CodeStoreUnavailable,
			Retryable: true,
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return Unauthorized(c, "Invalid username or password")
	case errors.Is(err, domain.ErrUserInactive):
		return Forbidden(c, "User account is inactive")
	case errors.Is(err, domain.ErrUnauthorized):
		return Unauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return Forbidden(c, "You don't have permission to access this resource")
	default:
		zap.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(Response{
			Error: "Internal Server Error",
			Code:  CodeInternal,
		})
	}
}
