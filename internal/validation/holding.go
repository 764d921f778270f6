package validation

import (
	"strings"

	"github.com/ndewijer/Yield-Bank-Backend/internal/api/request"
)

// ValidateCreateHolding checks a create request.
func ValidateCreateHolding(req request.CreateHoldingRequest) error {
	if err := Struct(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" && req.Symbol == "" {
		return fieldError("name", "name is required")
	}
	return nil
}

// ValidateUpdateHolding checks an update request.
func ValidateUpdateHolding(req request.UpdateHoldingRequest) error {
	if err := Struct(req); err != nil {
		return err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fieldError("name", "name is required")
	}
	return nil
}
