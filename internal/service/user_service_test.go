package service

import (
	"errors"
	"testing"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"

	"github.com/google/uuid"
)

func newUserServices(t *testing.T) (*fixture, UserService, AuthService) {
	t.Helper()
	f := newFixture(t)
	if err := repository.NewPrivilegeRepo(f.db).SeedDefaults(); err != nil {
		t.Fatalf("seed privileges: %v", err)
	}
	roleRepo := repository.NewRoleRepo(f.db)
	if err := roleRepo.SeedDefaults(); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	userRepo := repository.NewUserRepo(f.db)
	return f, NewUserService(userRepo, roleRepo, repository.NewItemRepo(f.db)), NewAuthService(userRepo, nil)
}

func TestCreateUserScopes(t *testing.T) {
	f, users, _ := newUserServices(t)

	tests := []struct {
		name string
		req  CreateUserRequest
		want error
	}{
		{"school staff without school", CreateUserRequest{Email: "a@example.com", Password: "secret1", FullName: "A", RoleCode: model.RoleSchoolStaff}, ErrValidation},
		{"district staff without district", CreateUserRequest{Email: "b@example.com", Password: "secret1", FullName: "B", RoleCode: model.RoleDistrictStaff}, ErrValidation},
		{"supplier without profile", CreateUserRequest{Email: "c@example.com", Password: "secret1", FullName: "C", RoleCode: model.RoleSupplier}, ErrValidation},
		{"unknown role", CreateUserRequest{Email: "d@example.com", Password: "secret1", FullName: "D", RoleCode: "JANITOR"}, ErrValidation},
		{"supplier with unknown item", CreateUserRequest{
			Email: "e@example.com", Password: "secret1", FullName: "E", RoleCode: model.RoleSupplier,
			Supplier: &SupplierProfileRequest{TinNumber: "100200300", ItemIDs: []uuid.UUID{uuid.New()}},
		}, ErrValidation},
		{"duplicate email", CreateUserRequest{Email: f.supplier.Email, Password: "secret1", FullName: "F", RoleCode: model.RoleGovAdmin}, ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := users.CreateUser(&req, "admin"); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSupplierWithCatalog(t *testing.T) {
	f, users, _ := newUserServices(t)

	user, err := users.CreateUser(&CreateUserRequest{
		Email:    "mills@example.com",
		Password: "secret1",
		FullName: "Kigali Mills",
		RoleCode: model.RoleSupplier,
		Supplier: &SupplierProfileRequest{TinNumber: "100200300", ItemIDs: []uuid.UUID{f.maize.ID, f.beans.ID}},
	}, "admin")
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if !user.IsSupplier() || len(user.Privileges) == 0 {
		t.Fatalf("expected supplier with role privileges, got %+v", user)
	}

	suppliers, err := users.ListSuppliers()
	if err != nil {
		t.Fatalf("list suppliers: %v", err)
	}
	var found *model.User
	for i := range suppliers {
		if suppliers[i].ID == user.ID {
			found = &suppliers[i]
		}
	}
	if found == nil || found.SupplierProfile == nil || len(found.SupplierProfile.Items) != 2 {
		t.Fatalf("expected supplier profile with 2 catalog items, got %+v", found)
	}

	var items int64
	f.db.Model(&model.Item{}).Count(&items)
	if items != 2 {
		t.Fatalf("supplier creation must not add catalog items, got %d", items)
	}
}

func TestLoginAndSessionRotation(t *testing.T) {
	f, users, auth := newUserServices(t)

	created, err := users.CreateUser(&CreateUserRequest{
		Email:    "head@example.com",
		Password: "secret1",
		FullName: "Head Teacher",
		RoleCode: model.RoleSchoolStaff,
		SchoolID: &f.school.ID,
	}, "admin")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := auth.Login("head@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	first, err := auth.Login("head@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if first.Role == nil || first.Role.Code != model.RoleSchoolStaff {
		t.Fatalf("expected school staff role, got %+v", first.Role)
	}
	validated, err := auth.ValidateToken(first.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.User.ID != created.ID {
		t.Fatalf("token resolved to the wrong user")
	}

	if _, err := auth.Login("head@example.com", "secret1"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if _, err := auth.ValidateToken(first.Token); !errors.Is(err, ErrSessionReplaced) {
		t.Fatalf("old token after new login: expected ErrSessionReplaced, got %v", err)
	}

	if err := auth.ResetPassword("head@example.com", "secret1", "secret2"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := auth.Login("head@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := auth.Login("head@example.com", "secret2"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	f.deactivate(&model.User{}, created.ID)
	if _, err := auth.Login("head@example.com", "secret2"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}
