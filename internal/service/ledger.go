package service

import (
	"context"
	"errors"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryLedger keeps one running balance per (school, item). Credit and
// Debit run inside the caller's transaction and lock the balance row.
type InventoryLedger interface {
	Credit(tx *gorm.DB, actor Actor, schoolID, itemID uuid.UUID, qty decimal.Decimal) (*model.Stock, error)
	Debit(tx *gorm.DB, actor Actor, schoolID, itemID uuid.UUID, qty decimal.Decimal) (*model.Stock, error)
	FindBalance(ctx context.Context, schoolID, itemID uuid.UUID) (*model.Stock, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error)
	ListLowStock(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error)
}

type inventoryLedger struct {
	stockRepo    repository.StockRepository
	lowThreshold decimal.Decimal
}

func NewInventoryLedger(stockRepo repository.StockRepository, lowThreshold decimal.Decimal) InventoryLedger {
	return &inventoryLedger{stockRepo: stockRepo, lowThreshold: lowThreshold}
}

func (l *inventoryLedger) Credit(tx *gorm.DB, actor Actor, schoolID, itemID uuid.UUID, qty decimal.Decimal) (*model.Stock, error) {
	if !qty.IsPositive() {
		return nil, validationErr("credit quantity must be positive, got %s", qty)
	}
	stock, err := l.stockRepo.LockOrCreate(tx, schoolID, itemID)
	if err != nil {
		return nil, err
	}
	stock.Quantity = stock.Quantity.Add(qty)
	stock.StockState = model.ClassifyStock(stock.Quantity, l.lowThreshold)
	if err := l.stockRepo.UpdateBalance(tx, stock, actor.UserID); err != nil {
		return nil, err
	}
	return stock, nil
}

func (l *inventoryLedger) Debit(tx *gorm.DB, actor Actor, schoolID, itemID uuid.UUID, qty decimal.Decimal) (*model.Stock, error) {
	if !qty.IsPositive() {
		return nil, validationErr("debit quantity must be positive, got %s", qty)
	}
	stock, err := l.stockRepo.Lock(tx, schoolID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Never stocked: behaves as a zero balance.
		return nil, l.shortfall(tx, itemID, qty, decimal.Zero)
	}
	if err != nil {
		return nil, err
	}
	if stock.Quantity.LessThan(qty) {
		return nil, l.shortfall(tx, itemID, qty, stock.Quantity)
	}

	stock.Quantity = stock.Quantity.Sub(qty)
	stock.StockState = model.ClassifyStock(stock.Quantity, l.lowThreshold)
	if err := l.stockRepo.UpdateBalance(tx, stock, actor.UserID); err != nil {
		return nil, err
	}
	return stock, nil
}

func (l *inventoryLedger) shortfall(tx *gorm.DB, itemID uuid.UUID, requested, available decimal.Decimal) error {
	name := itemID.String()
	var item model.Item
	if err := tx.Select("name").First(&item, "id = ?", itemID).Error; err == nil {
		name = item.Name
	}
	return &InsufficientStockError{
		ItemID:    itemID.String(),
		ItemName:  name,
		Requested: requested,
		Available: available,
		Shortfall: requested.Sub(available),
	}
}

func (l *inventoryLedger) FindBalance(ctx context.Context, schoolID, itemID uuid.UUID) (*model.Stock, error) {
	stock, err := l.stockRepo.Find(ctx, schoolID, itemID)
	if err != nil {
		return nil, notFound(err, "stock for item", itemID)
	}
	return stock, nil
}

func (l *inventoryLedger) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error) {
	return l.stockRepo.FindBySchool(ctx, schoolID)
}

func (l *inventoryLedger) ListLowStock(ctx context.Context, schoolID uuid.UUID) ([]model.Stock, error) {
	return l.stockRepo.FindBySchoolAndStates(ctx, schoolID, model.StockLow, model.StockOutOfStock)
}
