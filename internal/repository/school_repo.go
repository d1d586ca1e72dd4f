package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SchoolRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.School, error)
	FindAll(ctx context.Context, districtID *uuid.UUID) ([]model.School, error)
	FindDistricts(ctx context.Context) ([]model.District, error)
	// FindAllocatable returns active districts ordered by name, each with its
	// active schools ordered by name.
	FindAllocatable(tx *gorm.DB) ([]model.District, error)
}

type schoolRepo struct {
	db *gorm.DB
}

func NewSchoolRepo(db *gorm.DB) SchoolRepository {
	return &schoolRepo{db}
}

func (r *schoolRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.School, error) {
	var school model.School
	if err := r.db.WithContext(ctx).Preload("District").First(&school, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepo) FindAll(ctx context.Context, districtID *uuid.UUID) ([]model.School, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if districtID != nil {
		q = q.Where("district_id = ?", *districtID)
	}
	var schools []model.School
	err := q.Find(&schools).Error
	return schools, err
}

func (r *schoolRepo) FindDistricts(ctx context.Context) ([]model.District, error) {
	var districts []model.District
	err := r.db.WithContext(ctx).Order("name ASC").Find(&districts).Error
	return districts, err
}

func (r *schoolRepo) FindAllocatable(tx *gorm.DB) ([]model.District, error) {
	var districts []model.District
	err := tx.
		Preload("Schools", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("name ASC")
		}).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&districts).Error
	return districts, err
}
