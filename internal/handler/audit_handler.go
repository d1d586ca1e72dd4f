package handler

import (
	"go-schoolfeeding/internal/audit"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	sink *audit.DBSink
}

func NewAuditHandler(sink *audit.DBSink) *AuditHandler {
	return &AuditHandler{sink: sink}
}

// GetAuditLogs returns the newest audit entries
// GET /api/v1/audit-logs?resource=&limit=
func (h *AuditHandler) GetAuditLogs(c *fiber.Ctx) error {
	logs, err := h.sink.List(c.UserContext(), c.Query("resource"), c.QueryInt("limit", 100))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch audit logs"})
	}
	return c.JSON(logs)
}
