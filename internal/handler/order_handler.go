package handler

import (
	"context"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// AssignOrder gives an approved request, or one of its items, to a supplier
// POST /api/v1/orders
func (h *OrderHandler) AssignOrder(c *fiber.Ctx) error {
	var in service.AssignOrderInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	order, err := h.service.Assign(c.UserContext(), actorFromCtx(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order assigned", "data": order})
}

type orderStep func(ctx context.Context, actor service.Actor, id uuid.UUID) (*model.Order, error)

func (h *OrderHandler) step(c *fiber.Ctx, fn orderStep, message string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}
	order, err := fn(c.UserContext(), actorFromCtx(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "data": order})
}

// StartProcessing POST /api/v1/orders/:id/process
func (h *OrderHandler) StartProcessing(c *fiber.Ctx) error {
	return h.step(c, h.service.StartProcessing, "Order is being processed")
}

// MarkDelivered POST /api/v1/orders/:id/deliver
func (h *OrderHandler) MarkDelivered(c *fiber.Ctx) error {
	return h.step(c, h.service.MarkDelivered, "Order delivered")
}

// MarkPaid POST /api/v1/orders/:id/pay
func (h *OrderHandler) MarkPaid(c *fiber.Ctx) error {
	return h.step(c, h.service.MarkPaid, "Order paid")
}

// ConfirmReceipt approves a delivered order and stocks its lines
// POST /api/v1/orders/:id/receive
func (h *OrderHandler) ConfirmReceipt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}
	var in service.ConfirmReceiptInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	order, err := h.service.ConfirmReceipt(c.UserContext(), actorFromCtx(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Delivery received", "data": order})
}

// CancelOrder DELETE /api/v1/orders/:id
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}
	if err := h.service.Cancel(c.UserContext(), actorFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled"})
}

// GetOrder GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}
	order, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// GetOrders lists orders for the caller: suppliers see their own, staff see
// their school or district unless a query id is given.
// GET /api/v1/orders?supplier_id=&school_id=&district_id=&status=
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	status := model.DeliveryStatus(c.Query("status"))
	ctx := c.UserContext()

	var self *uuid.UUID
	if actor.Role == model.RoleSupplier {
		if id, err := uuid.Parse(actor.UserID); err == nil {
			self = &id
		}
	}

	var (
		orders []model.Order
		err    error
	)
	if supplierID, ok := scopeID(c, "supplier_id", self); ok {
		orders, err = h.service.ListBySupplier(ctx, supplierID, status)
	} else if schoolID, ok := scopeID(c, "school_id", actor.SchoolID); ok {
		orders, err = h.service.ListBySchool(ctx, schoolID, status)
	} else if districtID, ok := scopeID(c, "district_id", actor.DistrictID); ok {
		orders, err = h.service.ListByDistrict(ctx, districtID, status)
	} else {
		return c.Status(400).JSON(fiber.Map{"error": "supplier_id, school_id or district_id is required"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}
