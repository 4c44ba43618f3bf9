package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-recurrente/internal/application/dto"
	"github.com/jhoicas/facturacion-recurrente/internal/application/numbering"
)

// NumberingHandler vista previa de numeración.
type NumberingHandler struct {
	uc *numbering.PreviewUseCase
}

// NewNumberingHandler construye el handler.
func NewNumberingHandler(uc *numbering.PreviewUseCase) *NumberingHandler {
	return &NumberingHandler{uc: uc}
}

// NextNumber número que recibiría el próximo documento, o el ya asignado si viene model_id.
// GET /api/next-number?key=invoice|estimate|payment&customer_id=&model_id=
func (h *NumberingHandler) NextNumber(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == 0 {
		return unauthorized(c)
	}
	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "key requerido"})
	}
	customerID, err := optionalID(c.Query("customer_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "customer_id inválido"})
	}
	var modelID *int64
	if raw := c.Query("model_id"); raw != "" {
		id, err := optionalID(raw)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "model_id inválido"})
		}
		modelID = &id
	}
	out, err := h.uc.NextNumber(c.UserContext(), companyID, key, customerID, modelID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func optionalID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
