package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	SupplierID *uuid.UUID
	SchoolID   *uuid.UUID
	DistrictID *uuid.UUID
	Status     model.DeliveryStatus
	PayState   model.PayState
}

type OrderRepository interface {
	Create(tx *gorm.DB, order *model.Order) error
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	// FindLiveByRequest returns the non-deleted orders of a request.
	FindLiveByRequest(tx *gorm.DB, requestID uuid.UUID) ([]model.Order, error)
	Save(tx *gorm.DB, order *model.Order) error
	Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindAll(ctx context.Context, f OrderFilter) ([]model.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(tx *gorm.DB, order *model.Order) error {
	return tx.Omit(clause.Associations).Create(order).Error
}

func (r *orderRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindLiveByRequest(tx *gorm.DB, requestID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := tx.Where("request_item_id = ?", requestID).Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Save(tx *gorm.DB, order *model.Order) error {
	return tx.Omit(clause.Associations).Save(order).Error
}

func (r *orderRepo) Delete(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.Order{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Order{}, "id = ?", id).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Supplier").Preload("Supplier.SupplierProfile").
		Preload("RequestItem").Preload("RequestItem.School").
		Preload("RequestItem.Details").Preload("RequestItem.Details.Item").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindAll(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Supplier").Preload("RequestItem").Preload("RequestItem.School").
		Order("orders.created_at DESC")
	if f.SchoolID != nil || f.DistrictID != nil {
		q = q.Joins("JOIN request_items ON request_items.id = orders.request_item_id")
		if f.SchoolID != nil {
			q = q.Where("request_items.school_id = ?", *f.SchoolID)
		}
		if f.DistrictID != nil {
			q = q.Where("request_items.district_id = ?", *f.DistrictID)
		}
	}
	if f.SupplierID != nil {
		q = q.Where("orders.supplier_id = ?", *f.SupplierID)
	}
	if f.Status != "" {
		q = q.Where("orders.delivery_status = ?", f.Status)
	}
	if f.PayState != "" {
		q = q.Where("orders.order_pay_state = ?", f.PayState)
	}
	var orders []model.Order
	err := q.Find(&orders).Error
	return orders, err
}
