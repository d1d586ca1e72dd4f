package handler

import (
	"context"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RequestHandler struct {
	service service.RequestService
}

func NewRequestHandler(s service.RequestService) *RequestHandler {
	return &RequestHandler{service: s}
}

// CreateRequest submits a school request. School staff may omit school_id.
// POST /api/v1/requests
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	var in service.CreateRequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if in.SchoolID == uuid.Nil && actor.SchoolID != nil {
		in.SchoolID = *actor.SchoolID
	}

	req, err := h.service.Create(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Request submitted", "data": req})
}

// UpdateRequest replaces the lines of a pending request
// PUT /api/v1/requests/:id
func (h *RequestHandler) UpdateRequest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}
	var in service.UpdateRequestInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	req, err := h.service.UpdateDetails(c.UserContext(), actorFromCtx(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request updated", "data": req})
}

type requestDecision func(ctx context.Context, actor service.Actor, id uuid.UUID) (*model.RequestItem, error)

// ApproveRequest marks a pending request COMPLETED
// POST /api/v1/requests/:id/approve
func (h *RequestHandler) ApproveRequest(c *fiber.Ctx) error {
	return h.decide(c, h.service.Approve, "Request approved")
}

// RejectRequest marks a pending request REJECTED
// POST /api/v1/requests/:id/reject
func (h *RequestHandler) RejectRequest(c *fiber.Ctx) error {
	return h.decide(c, h.service.Reject, "Request rejected")
}

func (h *RequestHandler) decide(c *fiber.Ctx, fn requestDecision, message string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}
	req, err := fn(c.UserContext(), actorFromCtx(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": message, "data": req})
}

// DeleteRequest withdraws a pending request
// DELETE /api/v1/requests/:id
func (h *RequestHandler) DeleteRequest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}
	if err := h.service.Delete(c.UserContext(), actorFromCtx(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request deleted"})
}

// GetRequest returns one request with its lines
// GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}
	req, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(req)
}

// GetRequests lists requests of a school or a district, optionally by status.
// GET /api/v1/requests?school_id=&district_id=&status=
func (h *RequestHandler) GetRequests(c *fiber.Ctx) error {
	actor := actorFromCtx(c)
	status := model.RequestStatus(c.Query("status"))

	var (
		reqs []model.RequestItem
		err  error
	)
	if schoolID, ok := scopeID(c, "school_id", actor.SchoolID); ok {
		reqs, err = h.service.ListBySchool(c.UserContext(), schoolID, status)
	} else if districtID, ok := scopeID(c, "district_id", actor.DistrictID); ok {
		reqs, err = h.service.ListByDistrict(c.UserContext(), districtID, status)
	} else {
		return c.Status(400).JSON(fiber.Map{"error": "school_id or district_id is required"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}
