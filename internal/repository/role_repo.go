package repository

import (
	"errors"

	"go-schoolfeeding/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	// SeedDefaults creates the four actor roles and grants each its default
	// privileges when it has none yet. Privileges must be seeded first.
	SeedDefaults() error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		var existing model.Role
		err := r.db.Preload("Privileges").Where("code = ?", role.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := r.db.Create(&role).Error; err != nil {
				return err
			}
			existing = role
		} else if err != nil {
			return err
		}

		if len(existing.Privileges) > 0 {
			continue
		}
		var privileges []model.Privilege
		if err := r.db.Where("code IN ?", model.RolePrivileges[role.Code]).Find(&privileges).Error; err != nil {
			return err
		}
		if err := r.db.Model(&existing).Association("Privileges").Replace(privileges); err != nil {
			return err
		}
	}
	return nil
}
