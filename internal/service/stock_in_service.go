package service

import (
	"context"
	"time"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiveInput struct {
	SchoolID       uuid.UUID       `json:"school_id" validate:"uuid_required"`
	OrderID        uuid.UUID       `json:"order_id" validate:"uuid_required"`
	ItemID         uuid.UUID       `json:"item_id" validate:"uuid_required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"decimal_gt0,decimal_scale=3"`
	ExpirationDate *time.Time      `json:"expiration_date"`
}

// StockInService records goods received at a school and credits the ledger.
// Receipts are only booked by ConfirmReceipt, once per request line.
type StockInService interface {
	// Receive persists one StockIn and credits the ledger inside tx.
	Receive(tx *gorm.DB, actor Actor, in ReceiveInput) (*model.StockIn, *model.Stock, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockIn, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockIn, error)

	announce(ctx context.Context, actor Actor, in *model.StockIn, balance *model.Stock)
}

type stockInService struct {
	stockRepo repository.StockRepository
	ledger    InventoryLedger
	events    *Events
}

func NewStockInService(stockRepo repository.StockRepository, ledger InventoryLedger, events *Events) StockInService {
	return &stockInService{
		stockRepo: stockRepo,
		ledger:    ledger,
		events:    events,
	}
}

func (s *stockInService) Receive(tx *gorm.DB, actor Actor, in ReceiveInput) (*model.StockIn, *model.Stock, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, nil, validationErr("%s", errs[0])
	}

	stockIn := &model.StockIn{
		SchoolID:       in.SchoolID,
		OrderID:        in.OrderID,
		ItemID:         in.ItemID,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
	}
	stockIn.CreatedBy = actor.UserID
	stockIn.UpdatedBy = actor.UserID

	if err := s.stockRepo.CreateStockIn(tx, stockIn); err != nil {
		return nil, nil, err
	}
	balance, err := s.ledger.Credit(tx, actor, in.SchoolID, in.ItemID, in.Quantity)
	if err != nil {
		return nil, nil, err
	}
	return stockIn, balance, nil
}

func (s *stockInService) announce(ctx context.Context, actor Actor, in *model.StockIn, balance *model.Stock) {
	s.events.record(ctx, actor, model.AuditCreate, "stock_in", in.ID,
		"item "+in.ItemID.String()+" qty "+in.Quantity.String())
	s.events.broadcast("stock_update", "stock_in_created", map[string]interface{}{
		"stock_in_id": in.ID,
		"school_id":   in.SchoolID,
		"item_id":     in.ItemID,
		"quantity":    in.Quantity,
		"new_stock":   balance.Quantity,
		"stock_state": balance.StockState,
	}, actor, actor.Name+" received "+in.Quantity.String()+" units")
}

func (s *stockInService) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockIn, error) {
	return s.stockRepo.FindStockIns(ctx, &schoolID, nil)
}

func (s *stockInService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockIn, error) {
	return s.stockRepo.FindStockIns(ctx, nil, &orderID)
}
