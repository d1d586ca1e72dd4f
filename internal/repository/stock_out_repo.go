package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockOutRepository interface {
	Create(tx *gorm.DB, out *model.StockOut) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.StockOut, error)
	// ReplaceDetails hard-deletes the existing lines and inserts details.
	ReplaceDetails(tx *gorm.DB, out *model.StockOut, details []model.StockOutItemDetail, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockOut, error)
	FindBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockOut, error)
}

type stockOutRepo struct {
	db *gorm.DB
}

func NewStockOutRepo(db *gorm.DB) StockOutRepository {
	return &stockOutRepo{db}
}

func (r *stockOutRepo) Create(tx *gorm.DB, out *model.StockOut) error {
	return tx.Create(out).Error
}

func (r *stockOutRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.StockOut, error) {
	var out model.StockOut
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&out, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("stock_out_id = ?", id).Order("item_id ASC").Find(&out.Details).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stockOutRepo) ReplaceDetails(tx *gorm.DB, out *model.StockOut, details []model.StockOutItemDetail, updatedBy string) error {
	if err := tx.Unscoped().Where("stock_out_id = ?", out.ID).Delete(&model.StockOutItemDetail{}).Error; err != nil {
		return err
	}
	for i := range details {
		details[i].StockOutID = out.ID
		details[i].CreatedBy = updatedBy
		details[i].UpdatedBy = updatedBy
	}
	if len(details) > 0 {
		if err := tx.Create(&details).Error; err != nil {
			return err
		}
	}
	out.Details = details
	return tx.Model(&model.StockOut{}).Where("id = ?", out.ID).Updates(map[string]interface{}{
		"note":       out.Note,
		"updated_by": updatedBy,
	}).Error
}

func (r *stockOutRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.StockOut{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.StockOut{}, "id = ?", id).Error
}

func (r *stockOutRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockOut, error) {
	var out model.StockOut
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("item_id ASC") }).
		Preload("Details.Item").
		First(&out, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stockOutRepo) FindBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockOut, error) {
	var outs []model.StockOut
	err := r.db.WithContext(ctx).
		Preload("Details").Preload("Details.Item").
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Find(&outs).Error
	return outs, err
}
