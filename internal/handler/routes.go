package handler

import (
	"go-schoolfeeding/internal/middleware"
	"go-schoolfeeding/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler mounted under /api/v1.
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Role    *RoleHandler
	Catalog *CatalogHandler
	Request *RequestHandler
	Order   *OrderHandler
	Stock   *StockHandler
	Budget  *BudgetHandler
	Audit   *AuditHandler
}

// RegisterRoutes mounts the API. requireAuth guards everything except login,
// password reset and token validation.
func RegisterRoutes(app *fiber.App, h Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/heartbeat", requireAuth, h.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Reference data
	protected.Get("/items", h.Catalog.GetItems)
	protected.Get("/districts", h.Catalog.GetDistricts)
	protected.Get("/schools", h.Catalog.GetSchools)
	protected.Get("/schools/:id", h.Catalog.GetSchool)

	// Requests
	protected.Get("/requests", priv(model.PrivRequestView), h.Request.GetRequests)
	protected.Get("/requests/:id", priv(model.PrivRequestView), h.Request.GetRequest)
	protected.Post("/requests", priv(model.PrivRequestCreate), h.Request.CreateRequest)
	protected.Put("/requests/:id", priv(model.PrivRequestCreate), h.Request.UpdateRequest)
	protected.Delete("/requests/:id", priv(model.PrivRequestCreate), h.Request.DeleteRequest)
	protected.Post("/requests/:id/approve", priv(model.PrivRequestRespond), h.Request.ApproveRequest)
	protected.Post("/requests/:id/reject", priv(model.PrivRequestRespond), h.Request.RejectRequest)

	// Orders
	protected.Get("/orders", priv(model.PrivOrderView), h.Order.GetOrders)
	protected.Get("/orders/:id", priv(model.PrivOrderView), h.Order.GetOrder)
	protected.Post("/orders", priv(model.PrivOrderAssign), h.Order.AssignOrder)
	protected.Delete("/orders/:id", priv(model.PrivOrderAssign), h.Order.CancelOrder)
	protected.Post("/orders/:id/process", priv(model.PrivOrderDeliver), h.Order.StartProcessing)
	protected.Post("/orders/:id/deliver", priv(model.PrivOrderDeliver), h.Order.MarkDelivered)
	protected.Post("/orders/:id/receive", priv(model.PrivOrderReceive), h.Order.ConfirmReceipt)
	protected.Post("/orders/:id/pay", priv(model.PrivOrderPay), h.Order.MarkPaid)

	// Stock
	protected.Get("/stock", priv(model.PrivStockView), h.Stock.GetBalances)
	protected.Get("/stock/low", priv(model.PrivStockView), h.Stock.GetLowStock)
	protected.Get("/stock-ins", priv(model.PrivStockView), h.Stock.GetStockIns)
	protected.Get("/stock-outs", priv(model.PrivStockView), h.Stock.GetStockOuts)
	protected.Get("/stock-outs/:id", priv(model.PrivStockView), h.Stock.GetStockOut)
	protected.Post("/stock-outs", priv(model.PrivStockOut), h.Stock.WithdrawStock)
	protected.Put("/stock-outs/:id", priv(model.PrivStockOut), h.Stock.UpdateStockOut)
	protected.Delete("/stock-outs/:id", priv(model.PrivStockOut), h.Stock.DeleteStockOut)

	// Budgets
	protected.Get("/budgets", priv(model.PrivBudgetView), h.Budget.GetBudgets)
	protected.Get("/budgets/districts/:id", priv(model.PrivBudgetView), h.Budget.GetDistrictBudgets)
	protected.Get("/budgets/schools/:id", priv(model.PrivBudgetView), h.Budget.GetSchoolBudgets)
	protected.Get("/budgets/:id", priv(model.PrivBudgetView), h.Budget.GetAllocation)
	protected.Get("/budgets/:id/export", priv(model.PrivBudgetView), h.Budget.ExportAllocation)
	protected.Post("/budgets", priv(model.PrivBudgetManage), h.Budget.CreateBudget)
	protected.Put("/budgets/:id", priv(model.PrivBudgetManage), h.Budget.UpdateBudget)
	protected.Delete("/budgets/:id", priv(model.PrivBudgetManage), h.Budget.DeleteBudget)

	// Users and roles
	protected.Get("/users", priv(model.PrivUserManage), h.User.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserManage), h.User.GetUser)
	protected.Post("/users", priv(model.PrivUserManage), h.User.CreateUser)
	protected.Get("/suppliers", middleware.RequireAnyPrivilege(model.PrivOrderAssign, model.PrivUserManage), h.User.GetSuppliers)
	protected.Get("/roles", h.Role.GetRoles)
	protected.Get("/privileges", h.Role.GetPrivileges)

	protected.Get("/audit-logs", priv(model.PrivAuditView), h.Audit.GetAuditLogs)
}
