package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubUsers struct {
	users map[uuid.UUID]*model.User
}

func (s *stubUsers) FindByID(id uuid.UUID) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) FindByEmail(string) (*model.User, error) { return nil, errors.New("unused") }
func (s *stubUsers) FindForUpdate(*gorm.DB, uuid.UUID) (*model.User, error) {
	return nil, errors.New("unused")
}
func (s *stubUsers) Create(*model.User) error                   { return nil }
func (s *stubUsers) Update(*model.User) error                   { return nil }
func (s *stubUsers) FindAll() ([]model.User, error)             { return nil, nil }
func (s *stubUsers) FindByRole(string) ([]model.User, error)    { return nil, nil }
func (s *stubUsers) UpdateTokenVersion(uuid.UUID, string) error { return nil }
func (s *stubUsers) UpdateLastSeen(uuid.UUID) error             { return nil }

func TestRequireAuth(t *testing.T) {
	schoolID := uuid.New()
	staff := &model.User{
		Email:        "staff@example.com",
		Role:         &model.Role{Code: model.RoleSchoolStaff},
		IsActive:     true,
		SchoolID:     &schoolID,
		TokenVersion: "v1",
		Privileges:   []model.Privilege{{Code: model.PrivStockOut}},
	}
	staff.ID = uuid.New()
	inactive := &model.User{IsActive: false, TokenVersion: "v1"}
	inactive.ID = uuid.New()
	repo := &stubUsers{users: map[uuid.UUID]*model.User{staff.ID: staff, inactive.ID: inactive}}

	app := fiber.New()
	app.Get("/stock-outs", RequireAuth(repo), RequirePrivilege(model.PrivStockOut), func(c *fiber.Ctx) error {
		id, _ := c.Locals("school_id").(*uuid.UUID)
		if id == nil || *id != schoolID || c.Locals("user_role") != model.RoleSchoolStaff {
			return c.SendStatus(500)
		}
		return c.SendStatus(200)
	})
	app.Get("/budgets", RequireAuth(repo), RequirePrivilege(model.PrivBudgetManage), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})

	token := func(u *model.User, version string) string {
		tok, err := jwt.GenerateToken(jwt.Claims{UserID: u.ID, Email: u.Email, TokenVersion: version})
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/stock-outs", "", 401},
		{"wrong scheme", "/stock-outs", "Token abc", 401},
		{"garbage token", "/stock-outs", "Bearer abc", 401},
		{"replaced session", "/stock-outs", token(staff, "v0"), 401},
		{"inactive user", "/stock-outs", token(inactive, "v1"), 401},
		{"granted", "/stock-outs", token(staff, "v1"), 200},
		{"missing privilege", "/budgets", token(staff, "v1"), 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestRequireAnyPrivilegeWithoutLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireAnyPrivilege(model.PrivOrderAssign, model.PrivUserManage), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
