package handler

import (
	"bytes"

	"go-schoolfeeding/internal/report"
	"go-schoolfeeding/internal/service"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BudgetHandler struct {
	service service.BudgetService
}

func NewBudgetHandler(s service.BudgetService) *BudgetHandler {
	return &BudgetHandler{service: s}
}

// CreateBudget sets a fiscal year budget and allocates it
// POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c *fiber.Ctx) error {
	var in service.BudgetInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	gov, err := h.service.Create(c.UserContext(), actorFromCtx(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Budget allocated", "data": gov})
}

// UpdateBudget reallocates a fiscal year budget as a new version
// PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid budget ID"})
	}
	var in service.BudgetInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	gov, err := h.service.Update(c.UserContext(), actorFromCtx(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Budget reallocated", "data": gov})
}

// DeleteBudget DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid budget ID"})
	}
	if err := h.service.Delete(c.UserContext(), actorFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Budget deleted"})
}

// GetBudgets GET /api/v1/budgets
// With ?fiscal_year= it returns that year's current allocation instead.
func (h *BudgetHandler) GetBudgets(c *fiber.Ctx) error {
	if fy := c.Query("fiscal_year"); fy != "" {
		gov, err := h.service.GetAllocationByFiscalYear(c.UserContext(), fy)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": gov})
	}
	govs, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(govs)
}

// GetAllocation GET /api/v1/budgets/:id
func (h *BudgetHandler) GetAllocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid budget ID"})
	}
	gov, err := h.service.GetAllocation(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(gov)
}

// ExportAllocation streams the current allocation as a spreadsheet
// GET /api/v1/budgets/:id/export
func (h *BudgetHandler) ExportAllocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid budget ID"})
	}
	gov, err := h.service.GetAllocation(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	var buf bytes.Buffer
	if err := report.WriteBudgetAllocation(&buf, gov); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+report.FileName(gov)+`"`)
	return c.Send(buf.Bytes())
}

// GetDistrictBudgets GET /api/v1/budgets/districts/:id
func (h *BudgetHandler) GetDistrictBudgets(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid district ID"})
	}
	rows, err := h.service.ListDistrictBudgets(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}

// GetSchoolBudgets GET /api/v1/budgets/schools/:id
func (h *BudgetHandler) GetSchoolBudgets(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid school ID"})
	}
	rows, err := h.service.ListSchoolBudgets(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rows)
}
