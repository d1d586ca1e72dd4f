package handler

import (
	"errors"

	"go-schoolfeeding/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actorFromCtx builds the acting user from the locals set by RequireAuth.
func actorFromCtx(c *fiber.Ctx) service.Actor {
	actor := service.Actor{UserID: "system", Name: "Unknown"}
	if v, ok := c.Locals("user_id").(string); ok {
		actor.UserID = v
	}
	if v, ok := c.Locals("user_name").(string); ok {
		actor.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		actor.Email = v
	}
	if v, ok := c.Locals("user_role").(string); ok {
		actor.Role = v
	}
	if v, ok := c.Locals("school_id").(*uuid.UUID); ok {
		actor.SchoolID = v
	}
	if v, ok := c.Locals("district_id").(*uuid.UUID); ok {
		actor.DistrictID = v
	}
	return actor
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// scopeID picks the id from the query string, falling back to the actor's
// own scope. ok is false when neither is present or the query is malformed.
func scopeID(c *fiber.Ctx, key string, fallback *uuid.UUID) (uuid.UUID, bool) {
	if raw := c.Query(key); raw != "" {
		id, err := uuid.Parse(raw)
		return id, err == nil
	}
	if fallback != nil {
		return *fallback, true
	}
	return uuid.Nil, false
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrAllocation):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := fiber.Map{"error": err.Error()}
	if status == fiber.StatusInternalServerError {
		body["error"] = "Internal Server Error"
	}
	var short *service.InsufficientStockError
	if errors.As(err, &short) {
		body["item_id"] = short.ItemID
		body["requested"] = short.Requested
		body["available"] = short.Available
		body["shortfall"] = short.Shortfall
	}
	return c.Status(status).JSON(body)
}
