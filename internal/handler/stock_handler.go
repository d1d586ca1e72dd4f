package handler

import (
	"go-schoolfeeding/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	ledger   service.InventoryLedger
	stockIn  service.StockInService
	stockOut service.StockOutService
}

func NewStockHandler(ledger service.InventoryLedger, stockIn service.StockInService, stockOut service.StockOutService) *StockHandler {
	return &StockHandler{ledger: ledger, stockIn: stockIn, stockOut: stockOut}
}

func schoolScope(c *fiber.Ctx) (uuid.UUID, bool) {
	return scopeID(c, "school_id", actorFromCtx(c).SchoolID)
}

func missingSchool(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "school_id is required"})
}

// GetBalances GET /api/v1/stock?school_id=
func (h *StockHandler) GetBalances(c *fiber.Ctx) error {
	schoolID, ok := schoolScope(c)
	if !ok {
		return missingSchool(c)
	}
	stocks, err := h.ledger.ListBySchool(c.UserContext(), schoolID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stocks)
}

// GetLowStock GET /api/v1/stock/low?school_id=
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	schoolID, ok := schoolScope(c)
	if !ok {
		return missingSchool(c)
	}
	stocks, err := h.ledger.ListLowStock(c.UserContext(), schoolID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stocks)
}

// GetStockIns GET /api/v1/stock-ins?school_id=|order_id=
func (h *StockHandler) GetStockIns(c *fiber.Ctx) error {
	if raw := c.Query("order_id"); raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
		}
		ins, err := h.stockIn.ListByOrder(c.UserContext(), orderID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ins)
	}

	schoolID, ok := schoolScope(c)
	if !ok {
		return missingSchool(c)
	}
	ins, err := h.stockIn.ListBySchool(c.UserContext(), schoolID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ins)
}

// WithdrawStock POST /api/v1/stock-outs
func (h *StockHandler) WithdrawStock(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	var in service.StockOutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if in.SchoolID == uuid.Nil && actor.SchoolID != nil {
		in.SchoolID = *actor.SchoolID
	}
	out, err := h.stockOut.Withdraw(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock withdrawn", "data": out})
}

// UpdateStockOut PUT /api/v1/stock-outs/:id
func (h *StockHandler) UpdateStockOut(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock out ID"})
	}
	var in service.UpdateStockOutInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	out, err := h.stockOut.Update(c.UserContext(), actorFromCtx(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock out updated", "data": out})
}

// DeleteStockOut DELETE /api/v1/stock-outs/:id
func (h *StockHandler) DeleteStockOut(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock out ID"})
	}
	if err := h.stockOut.Delete(c.UserContext(), actorFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock out deleted"})
}

// GetStockOut GET /api/v1/stock-outs/:id
func (h *StockHandler) GetStockOut(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid stock out ID"})
	}
	out, err := h.stockOut.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetStockOuts GET /api/v1/stock-outs?school_id=
func (h *StockHandler) GetStockOuts(c *fiber.Ctx) error {
	schoolID, ok := schoolScope(c)
	if !ok {
		return missingSchool(c)
	}
	outs, err := h.stockOut.ListBySchool(c.UserContext(), schoolID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(outs)
}
