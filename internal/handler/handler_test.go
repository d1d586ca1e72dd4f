package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go-schoolfeeding/internal/audit"
	"go-schoolfeeding/internal/lock"
	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testAuth stands in for RequireAuth; tests switch the acting user freely.
type testAuth struct {
	userID     uuid.UUID
	role       string
	schoolID   *uuid.UUID
	districtID *uuid.UUID
	privileges []string
}

func (a *testAuth) handler(c *fiber.Ctx) error {
	c.Locals("user_id", a.userID.String())
	c.Locals("user_name", "Tester")
	c.Locals("user_email", "tester@example.com")
	c.Locals("user_role", a.role)
	c.Locals("user_privileges", a.privileges)
	c.Locals("school_id", a.schoolID)
	c.Locals("district_id", a.districtID)
	return c.Next()
}

func (a *testAuth) as(role string) {
	a.role = role
	a.privileges = model.RolePrivileges[role]
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	auth     *testAuth
	district model.District
	school   model.School
	maize    model.Item
	supplier model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{db: db, auth: &testAuth{userID: uuid.New()}}
	env.district = model.District{Name: "Gasabo", IsActive: true}
	db.Create(&env.district)
	env.school = model.School{Name: "GS Kacyiru", DistrictID: env.district.ID, StudentCount: 100, IsActive: true}
	db.Create(&env.school)
	env.maize = model.Item{Name: "Maize", GramsPerStudent: decimal.NewFromInt(150), Unit: "kg"}
	db.Create(&env.maize)
	role := model.Role{Code: model.RoleSupplier, Name: "Supplier"}
	db.Create(&role)
	env.supplier = model.User{Email: "mills@example.com", FullName: "Kigali Mills", RoleID: &role.ID, IsActive: true}
	db.Create(&env.supplier)

	sink := audit.NewDBSink(db)
	events := service.NewEvents(sink, nil, nil)
	stockRepo := repository.NewStockRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	itemRepo := repository.NewItemRepo(db)
	schoolRepo := repository.NewSchoolRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	ledger := service.NewInventoryLedger(stockRepo, decimal.NewFromInt(10))
	stockIn := service.NewStockInService(stockRepo, ledger, events)

	env.app = fiber.New()
	RegisterRoutes(env.app, Handlers{
		Auth:    NewAuthHandler(service.NewAuthService(userRepo, nil)),
		User:    NewUserHandler(service.NewUserService(userRepo, roleRepo, itemRepo)),
		Role:    NewRoleHandler(roleRepo, repository.NewPrivilegeRepo(db)),
		Catalog: NewCatalogHandler(itemRepo, schoolRepo),
		Request: NewRequestHandler(service.NewRequestService(db, requestRepo, itemRepo, events)),
		Order:   NewOrderHandler(service.NewOrderService(db, orderRepo, requestRepo, userRepo, stockIn, events)),
		Stock:   NewStockHandler(ledger, stockIn, service.NewStockOutService(db, repository.NewStockOutRepo(db), itemRepo, ledger, events)),
		Budget:  NewBudgetHandler(service.NewBudgetService(db, repository.NewBudgetRepo(db), schoolRepo, lock.NewLocalLocker(), 0, events)),
		Audit:   NewAuditHandler(sink),
	}, env.auth.handler)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded, raw
}

func dataID(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data["id"].(string)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.NotFoundError{Resource: "order", ID: "x"}, 404},
		{&service.InsufficientStockError{}, 409},
		{&service.TransitionError{}, 409},
		{fmt.Errorf("wrapped: %w", service.ErrConflict), 409},
		{fmt.Errorf("wrapped: %w", service.ErrValidation), 400},
		{fmt.Errorf("wrapped: %w", service.ErrAllocation), 422},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestFeedingFlowOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	e.auth.as(model.RoleSchoolStaff)
	e.auth.schoolID = &e.school.ID
	status, body, _ := e.do(t, "POST", "/api/v1/requests", fiber.Map{
		"lines": []fiber.Map{{"item_id": e.maize.ID, "quantity": "50"}},
	})
	if status != 201 {
		t.Fatalf("create request: expected 201, got %d %v", status, body)
	}
	requestID := dataID(t, body)

	e.auth.as(model.RoleDistrictStaff)
	e.auth.schoolID = nil
	e.auth.districtID = &e.district.ID
	if status, body, _ := e.do(t, "POST", "/api/v1/requests/"+requestID+"/approve", nil); status != 200 {
		t.Fatalf("approve: expected 200, got %d %v", status, body)
	}
	status, body, _ = e.do(t, "POST", "/api/v1/orders", fiber.Map{
		"request_item_id": requestID,
		"supplier_id":     e.supplier.ID,
		"order_price":     "125000",
	})
	if status != 201 {
		t.Fatalf("assign: expected 201, got %d %v", status, body)
	}
	orderID := dataID(t, body)

	e.auth.as(model.RoleSupplier)
	e.auth.userID = e.supplier.ID
	e.auth.districtID = nil
	for _, step := range []string{"process", "deliver"} {
		if status, body, _ := e.do(t, "POST", "/api/v1/orders/"+orderID+"/"+step, nil); status != 200 {
			t.Fatalf("%s: expected 200, got %d %v", step, status, body)
		}
	}
	status, _, raw := e.do(t, "GET", "/api/v1/orders", nil)
	var mine []map[string]interface{}
	if err := json.Unmarshal(raw, &mine); status != 200 || err != nil || len(mine) != 1 {
		t.Fatalf("supplier order list: %d %s", status, raw)
	}

	e.auth.as(model.RoleSchoolStaff)
	e.auth.userID = uuid.New()
	e.auth.schoolID = &e.school.ID
	if status, body, _ := e.do(t, "POST", "/api/v1/orders/"+orderID+"/receive", fiber.Map{"rating": 5}); status != 200 {
		t.Fatalf("receive: expected 200, got %d %v", status, body)
	}

	status, _, raw = e.do(t, "GET", "/api/v1/stock-ins?order_id="+orderID, nil)
	var ins []model.StockIn
	if err := json.Unmarshal(raw, &ins); status != 200 || err != nil || len(ins) != 1 {
		t.Fatalf("stock-ins for order: %d %s", status, raw)
	}
	status, _, _ = e.do(t, "POST", "/api/v1/stock-ins", fiber.Map{
		"order_id": orderID, "item_id": e.maize.ID, "quantity": "50",
	})
	if status != fiber.StatusMethodNotAllowed && status != fiber.StatusNotFound {
		t.Fatalf("stock can only be received through order receipt, POST /stock-ins gave %d", status)
	}

	withdraw := func(qty string) (int, map[string]interface{}) {
		status, body, _ := e.do(t, "POST", "/api/v1/stock-outs", fiber.Map{
			"lines": []fiber.Map{{"item_id": e.maize.ID, "quantity": qty}},
		})
		return status, body
	}
	if status, body := withdraw("20"); status != 201 {
		t.Fatalf("withdraw 20: expected 201, got %d %v", status, body)
	}
	status, body = withdraw("40")
	if status != 409 {
		t.Fatalf("withdraw 40: expected 409, got %d %v", status, body)
	}
	available, _ := decimal.NewFromString(fmt.Sprint(body["available"]))
	shortfall, _ := decimal.NewFromString(fmt.Sprint(body["shortfall"]))
	if !available.Equal(decimal.NewFromInt(30)) || !shortfall.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected shortfall detail in body, got %v", body)
	}

	status, _, raw = e.do(t, "GET", "/api/v1/stock", nil)
	var balances []model.Stock
	if err := json.Unmarshal(raw, &balances); status != 200 || err != nil || len(balances) != 1 {
		t.Fatalf("balances: %d %s", status, raw)
	}
	if !balances[0].Quantity.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected balance 30, got %s", balances[0].Quantity)
	}
}

func TestPrivilegesAndBadInput(t *testing.T) {
	e := newTestEnv(t)

	e.auth.as(model.RoleSupplier)
	if status, _, _ := e.do(t, "POST", "/api/v1/budgets", fiber.Map{"fiscal_year": "2026/2027", "budget": "1000"}); status != 403 {
		t.Fatalf("supplier creating a budget: expected 403, got %d", status)
	}

	e.auth.as(model.RoleDistrictStaff)
	if status, _, _ := e.do(t, "POST", "/api/v1/requests/not-a-uuid/approve", nil); status != 400 {
		t.Fatalf("malformed id: expected 400, got %d", status)
	}
	if status, _, _ := e.do(t, "POST", "/api/v1/requests/"+uuid.NewString()+"/approve", nil); status != 404 {
		t.Fatalf("unknown request: expected 404, got %d", status)
	}
	if status, _, _ := e.do(t, "GET", "/api/v1/requests", nil); status != 400 {
		t.Fatalf("request list without scope: expected 400, got %d", status)
	}
}

func TestBudgetOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	e.auth.as(model.RoleGovAdmin)

	status, body, _ := e.do(t, "POST", "/api/v1/budgets", fiber.Map{"fiscal_year": "2026/2027", "budget": "0"})
	if status != 422 {
		t.Fatalf("zero budget: expected 422, got %d %v", status, body)
	}

	status, body, _ = e.do(t, "POST", "/api/v1/budgets", fiber.Map{"fiscal_year": "2026/2027", "budget": "5000", "status": true})
	if status != 201 {
		t.Fatalf("create budget: expected 201, got %d %v", status, body)
	}
	govID := dataID(t, body)

	if status, _, _ := e.do(t, "POST", "/api/v1/budgets", fiber.Map{"fiscal_year": "2026/2027", "budget": "10"}); status != 409 {
		t.Fatalf("duplicate fiscal year: expected 409, got %d", status)
	}

	status, body, _ = e.do(t, "GET", "/api/v1/budgets?fiscal_year=2026/2027", nil)
	if status != 200 || dataID(t, body) != govID {
		t.Fatalf("budget by fiscal year: %d %v", status, body)
	}
	if status, _, _ := e.do(t, "GET", "/api/v1/budgets?fiscal_year=1999/2000", nil); status != 404 {
		t.Fatalf("unknown fiscal year: expected 404, got %d", status)
	}

	req := httptest.NewRequest("GET", "/api/v1/budgets/"+govID+"/export", nil)
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: unexpected %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "budget-2026-2027.xlsx") {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}

	status, _, raw := e.do(t, "GET", "/api/v1/budgets/schools/"+e.school.ID.String(), nil)
	var rows []model.BudgetSchool
	if err := json.Unmarshal(raw, &rows); status != 200 || err != nil || len(rows) != 1 {
		t.Fatalf("school budgets: %d %s", status, raw)
	}
	if !rows[0].Budget.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("single school gets the whole budget, got %s", rows[0].Budget)
	}

	status, _, raw = e.do(t, "GET", "/api/v1/audit-logs?resource=budget", nil)
	var logs []model.AuditLog
	if err := json.Unmarshal(raw, &logs); status != 200 || err != nil || len(logs) == 0 {
		t.Fatalf("audit logs: %d %s", status, raw)
	}
	for _, l := range logs {
		if l.Resource != "budget" {
			t.Fatalf("resource filter leaked %q", l.Resource)
		}
	}
}
