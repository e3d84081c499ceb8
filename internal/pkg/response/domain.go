package response

import (
	"onda-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
)

var domainStatus = map[string]int{
	"PolicyDisabled":        fiber.StatusForbidden,
	"FeeOutOfRange":         fiber.StatusBadRequest,
	"PolicyInUse":           fiber.StatusConflict,
	"InvalidState":          fiber.StatusConflict,
	"AlreadyActive":         fiber.StatusConflict,
	"ProductNotActive":      fiber.StatusConflict,
	"NotOverdue":            fiber.StatusBadRequest,
	"OptionExpired":         fiber.StatusBadRequest,
	"OptionNotExpired":      fiber.StatusBadRequest,
	"NotExpired":            fiber.StatusBadRequest,
	"InvalidExpiry":         fiber.StatusBadRequest,
	"Unauthorized":          fiber.StatusForbidden,
	"RequireKeysEqViolated": fiber.StatusForbidden,
	"InvalidParameters":     fiber.StatusBadRequest,
	"InsufficientFunds":     fiber.StatusBadRequest,
	"AccountFrozen":         fiber.StatusConflict,
	"InvalidDelegate":       fiber.StatusConflict,
	"InvalidCollection":     fiber.StatusBadRequest,
	"NotFound":              fiber.StatusNotFound,
	"NumericalOverflow":     fiber.StatusBadRequest,
}

// Domain sends a service error with the standard error format, mapping the
// stable error code to an HTTP status. Unknown errors become 500 without the
// internal message leaking.
func Domain(c *fiber.Ctx, err error) error {
	code := domain.ErrorCode(err)
	status, ok := domainStatus[code]
	if !ok {
		return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return c.Status(status).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    err.Error(),
			Code:       code,
			StatusCode: status,
		},
	})
}
