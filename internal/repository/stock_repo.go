package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	// LockOrCreate returns the (school, item) row locked FOR UPDATE, inserting
	// a zero balance first when none exists.
	LockOrCreate(tx *gorm.DB, schoolID, itemID uuid.UUID) (*model.Stock, error)
	// Lock returns gorm.ErrRecordNotFound when no row exists.
	Lock(tx *gorm.DB, schoolID, itemID uuid.UUID) (*model.Stock, error)
	UpdateBalance(tx *gorm.DB, stock *model.Stock, updatedBy string) error
	Find(ctx context.Context, schoolID, itemID uuid.UUID) (*model.Stock, error)
	FindBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error)
	FindBySchoolAndStates(ctx context.Context, schoolID uuid.UUID, states ...model.StockState) ([]model.Stock, error)

	CreateStockIn(tx *gorm.DB, in *model.StockIn) error
	FindStockIns(ctx context.Context, schoolID, orderID *uuid.UUID) ([]model.StockIn, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) LockOrCreate(tx *gorm.DB, schoolID, itemID uuid.UUID) (*model.Stock, error) {
	seed := model.Stock{
		SchoolID:   schoolID,
		ItemID:     itemID,
		StockState: model.StockOutOfStock,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "school_id"}, {Name: "item_id"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return nil, err
	}
	return r.Lock(tx, schoolID, itemID)
}

func (r *stockRepo) Lock(tx *gorm.DB, schoolID, itemID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND item_id = ?", schoolID, itemID).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) UpdateBalance(tx *gorm.DB, stock *model.Stock, updatedBy string) error {
	return tx.Model(&model.Stock{}).
		Where("id = ?", stock.ID).
		Updates(map[string]interface{}{
			"quantity":    stock.Quantity,
			"stock_state": stock.StockState,
			"updated_by":  updatedBy,
		}).Error
}

func (r *stockRepo) Find(ctx context.Context, schoolID, itemID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	err := r.db.WithContext(ctx).Preload("Item").
		Where("school_id = ? AND item_id = ?", schoolID, itemID).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) FindBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.WithContext(ctx).Preload("Item").
		Where("school_id = ?", schoolID).
		Order("item_id ASC").
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) FindBySchoolAndStates(ctx context.Context, schoolID uuid.UUID, states ...model.StockState) ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.WithContext(ctx).Preload("Item").
		Where("school_id = ? AND stock_state IN ?", schoolID, states).
		Order("quantity ASC").
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) CreateStockIn(tx *gorm.DB, in *model.StockIn) error {
	return tx.Create(in).Error
}

func (r *stockRepo) FindStockIns(ctx context.Context, schoolID, orderID *uuid.UUID) ([]model.StockIn, error) {
	q := r.db.WithContext(ctx).Preload("Item").Order("created_at DESC")
	if schoolID != nil {
		q = q.Where("school_id = ?", *schoolID)
	}
	if orderID != nil {
		q = q.Where("order_id = ?", *orderID)
	}
	var ins []model.StockIn
	err := q.Find(&ins).Error
	return ins, err
}
