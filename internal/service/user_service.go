package service

import (
	"context"
	"errors"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmailExists = errors.New("email already exists")
)

// UserService provisions the actors of the program: staff scoped to a school
// or district, and suppliers with their profile.
type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
	ListSuppliers() ([]model.User, error)
}

type SupplierProfileRequest struct {
	TinNumber   string      `json:"tin_number" validate:"required"`
	Address     string      `json:"address"`
	Bank        string      `json:"bank"`
	BankAccount string      `json:"bank_account"`
	ItemIDs     []uuid.UUID `json:"item_ids"`
}

type CreateUserRequest struct {
	Email       string                  `json:"email" validate:"required,email"`
	Password    string                  `json:"password" validate:"required,min=6"`
	FullName    string                  `json:"full_name" validate:"required"`
	PhoneNumber string                  `json:"phone_number"`
	RoleCode    string                  `json:"role_code" validate:"required,oneof=GOV_ADMIN DISTRICT_STAFF SCHOOL_STAFF SUPPLIER"`
	DistrictID  *uuid.UUID              `json:"district_id"`
	SchoolID    *uuid.UUID              `json:"school_id"`
	Supplier    *SupplierProfileRequest `json:"supplier"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	itemRepo repository.ItemRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, itemRepo repository.ItemRepository) UserService {
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		itemRepo: itemRepo,
	}
}

// catalog resolves supplier item ids against the item catalog.
func (s *userService) catalog(ids []uuid.UUID) ([]model.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	all, err := s.itemRepo.FindAll(context.Background())
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]model.Item, len(all))
	for _, it := range all {
		known[it.ID] = it
	}
	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := known[id]
		if !ok {
			return nil, validationErr("unknown item %s", id)
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}

	switch req.RoleCode {
	case model.RoleSchoolStaff:
		if req.SchoolID == nil {
			return nil, validationErr("school staff need a school_id")
		}
	case model.RoleDistrictStaff:
		if req.DistrictID == nil {
			return nil, validationErr("district staff need a district_id")
		}
	case model.RoleSupplier:
		if req.Supplier == nil {
			return nil, validationErr("suppliers need a supplier profile")
		}
		if errs := validator.ValidateStruct(req.Supplier); len(errs) > 0 {
			return nil, validationErr("%s", errs[0])
		}
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.roleRepo.FindByCode(req.RoleCode)
	if err != nil {
		return nil, errors.New("role not found")
	}

	user := &model.User{
		Email:       req.Email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		RoleID:      &role.ID,
		IsActive:    true,
		DistrictID:  req.DistrictID,
		SchoolID:    req.SchoolID,
		Privileges:  role.Privileges,
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if p := req.Supplier; p != nil && req.RoleCode == model.RoleSupplier {
		items, err := s.catalog(p.ItemIDs)
		if err != nil {
			return nil, err
		}
		user.SupplierProfile = &model.SupplierProfile{
			TinNumber:   p.TinNumber,
			Address:     p.Address,
			Bank:        p.Bank,
			BankAccount: p.BankAccount,
			Items:       items,
		}
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) ListSuppliers() ([]model.User, error) {
	return s.userRepo.FindByRole(model.RoleSupplier)
}
