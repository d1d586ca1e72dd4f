package handler

import (
	"go-schoolfeeding/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CatalogHandler serves the read-only reference data: items, districts and schools.
type CatalogHandler struct {
	itemRepo   repository.ItemRepository
	schoolRepo repository.SchoolRepository
}

func NewCatalogHandler(itemRepo repository.ItemRepository, schoolRepo repository.SchoolRepository) *CatalogHandler {
	return &CatalogHandler{itemRepo: itemRepo, schoolRepo: schoolRepo}
}

// GetItems GET /api/v1/items
func (h *CatalogHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.itemRepo.FindAll(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch items"})
	}
	return c.JSON(items)
}

// GetDistricts GET /api/v1/districts
func (h *CatalogHandler) GetDistricts(c *fiber.Ctx) error {
	districts, err := h.schoolRepo.FindDistricts(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch districts"})
	}
	return c.JSON(districts)
}

// GetSchools GET /api/v1/schools?district_id=
func (h *CatalogHandler) GetSchools(c *fiber.Ctx) error {
	var districtID *uuid.UUID
	if raw := c.Query("district_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid district ID"})
		}
		districtID = &id
	}
	schools, err := h.schoolRepo.FindAll(c.UserContext(), districtID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch schools"})
	}
	return c.JSON(schools)
}

// GetSchool GET /api/v1/schools/:id
func (h *CatalogHandler) GetSchool(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid school ID"})
	}
	school, err := h.schoolRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "School not found"})
	}
	return c.JSON(school)
}
