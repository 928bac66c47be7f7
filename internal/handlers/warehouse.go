// internal/handlers/warehouse.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/javajoker/commerce-jobs/internal/services"
	"github.com/javajoker/commerce-jobs/internal/utils"
)

type WarehouseHandler struct {
	selector *services.WarehouseSelector
}

func NewWarehouseHandler(selector *services.WarehouseSelector) *WarehouseHandler {
	return &WarehouseHandler{selector: selector}
}

// SelectWarehouse picks the nearest warehouse able to fulfill a quantity of
// a product for a destination city. The order service calls this at order
// creation time.
func (h *WarehouseHandler) SelectWarehouse(c *gin.Context) {
	var req services.SelectWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", nil)
		return
	}

	warehouse, err := h.selector.SelectWarehouse(c.Request.Context(), &req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			utils.BadRequestResponse(c, "validation failed", utils.GetValidationErrors(validationErrs))
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	if warehouse == nil {
		utils.NotFoundResponse(c, "warehouse with inventory")
		return
	}

	utils.SuccessResponse(c, warehouse)
}
