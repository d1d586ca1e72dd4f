package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestFilter struct {
	SchoolID   *uuid.UUID
	DistrictID *uuid.UUID
	Status     model.RequestStatus
}

type RequestRepository interface {
	Create(tx *gorm.DB, req *model.RequestItem) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.RequestItem, error)
	ReplaceDetails(tx *gorm.DB, req *model.RequestItem, details []model.RequestItemDetail, updatedBy string) error
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.RequestStatus, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RequestItem, error)
	FindAll(ctx context.Context, f RequestFilter) ([]model.RequestItem, error)
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db}
}

func (r *requestRepo) Create(tx *gorm.DB, req *model.RequestItem) error {
	return tx.Create(req).Error
}

func (r *requestRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.RequestItem, error) {
	var req model.RequestItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("request_item_id = ?", id).Order("item_id ASC").Find(&req.Details).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) ReplaceDetails(tx *gorm.DB, req *model.RequestItem, details []model.RequestItemDetail, updatedBy string) error {
	if err := tx.Unscoped().Where("request_item_id = ?", req.ID).Delete(&model.RequestItemDetail{}).Error; err != nil {
		return err
	}
	for i := range details {
		details[i].RequestItemID = req.ID
		details[i].CreatedBy = updatedBy
		details[i].UpdatedBy = updatedBy
	}
	if err := tx.Create(&details).Error; err != nil {
		return err
	}
	req.Details = details
	return tx.Model(&model.RequestItem{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"description": req.Description,
		"updated_by":  updatedBy,
	}).Error
}

func (r *requestRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.RequestStatus, updatedBy string) error {
	return tx.Model(&model.RequestItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"request_status": status,
		"updated_by":     updatedBy,
	}).Error
}

func (r *requestRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.RequestItem{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.RequestItem{}, "id = ?", id).Error
}

func (r *requestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RequestItem, error) {
	var req model.RequestItem
	err := r.db.WithContext(ctx).
		Preload("School").Preload("District").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Preload("Details.Item").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) FindAll(ctx context.Context, f RequestFilter) ([]model.RequestItem, error) {
	q := r.db.WithContext(ctx).
		Preload("School").Preload("Details").Preload("Details.Item").
		Order("created_at DESC")
	if f.SchoolID != nil {
		q = q.Where("school_id = ?", *f.SchoolID)
	}
	if f.DistrictID != nil {
		q = q.Where("district_id = ?", *f.DistrictID)
	}
	if f.Status != "" {
		q = q.Where("request_status = ?", f.Status)
	}
	var reqs []model.RequestItem
	err := q.Find(&reqs).Error
	return reqs, err
}
