package repository

import (
	"context"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	// FindByIDs returns the items keyed by id; unknown ids are simply absent.
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Item, error)
	FindAll(ctx context.Context) ([]model.Item, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Item, error) {
	out := make(map[uuid.UUID]model.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []model.Item
	if err := tx.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *itemRepo) FindAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}
