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

const maxRating = 5

type AssignOrderInput struct {
	RequestItemID uuid.UUID       `json:"request_item_id" validate:"uuid_required"`
	ItemID        *uuid.UUID      `json:"item_id"`
	SupplierID    uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	OrderPrice    decimal.Decimal `json:"order_price" validate:"decimal_gte0,decimal_scale=2"`
	DeliveryDate  *time.Time      `json:"delivery_date"`
}

type ConfirmReceiptInput struct {
	Rating int `json:"rating"`
	// Expirations optionally dates the stock-in of each item.
	Expirations map[uuid.UUID]time.Time `json:"expirations"`
}

// OrderService moves orders SCHEDULED -> PROCESSING -> DELIVERED -> APPROVED.
type OrderService interface {
	Assign(ctx context.Context, actor Actor, in AssignOrderInput) (*model.Order, error)
	StartProcessing(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error)
	MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error)
	ConfirmReceipt(ctx context.Context, actor Actor, id uuid.UUID, in ConfirmReceiptInput) (*model.Order, error)
	MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error)
	ListByDistrict(ctx context.Context, districtID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	requestRepo repository.RequestRepository
	userRepo    repository.UserRepository
	stockIn     StockInService
	events      *Events
	now         func() time.Time
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, requestRepo repository.RequestRepository,
	userRepo repository.UserRepository, stockIn StockInService, events *Events) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		stockIn:     stockIn,
		events:      events,
		now:         time.Now,
	}
}

func (s *orderService) Assign(ctx context.Context, actor Actor, in AssignOrderInput) (*model.Order, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}

	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requestRepo.LockByID(tx, in.RequestItemID)
		if err != nil {
			return notFound(err, "request", in.RequestItemID)
		}
		if req.RequestStatus != model.RequestCompleted {
			return conflictErr("request %s is %s; only approved requests take orders", req.ID, req.RequestStatus)
		}

		supplier, err := s.userRepo.FindForUpdate(tx, in.SupplierID)
		if err != nil {
			return notFound(err, "supplier", in.SupplierID)
		}
		if !supplier.IsSupplier() || !supplier.IsActive {
			return validationErr("user %s is not an active supplier", supplier.ID)
		}

		if err := s.checkCoverage(tx, req, in.ItemID); err != nil {
			return err
		}

		order = &model.Order{
			RequestItemID:  req.ID,
			ItemID:         in.ItemID,
			SupplierID:     supplier.ID,
			DeliveryDate:   in.DeliveryDate,
			DeliveryStatus: model.DeliveryScheduled,
			OrderPrice:     in.OrderPrice,
			OrderPayState:  model.PayPending,
		}
		order.CreatedBy = actor.UserID
		order.UpdatedBy = actor.UserID
		return s.orderRepo.Create(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditCreate, "order_assigned", order)
	return order, nil
}

// checkCoverage keeps every request line delivered by at most one live order.
func (s *orderService) checkCoverage(tx *gorm.DB, req *model.RequestItem, itemID *uuid.UUID) error {
	if itemID != nil {
		if _, ok := req.DetailFor(*itemID); !ok {
			return validationErr("item %s is not part of request %s", *itemID, req.ID)
		}
	}
	live, err := s.orderRepo.FindLiveByRequest(tx, req.ID)
	if err != nil {
		return err
	}
	for _, o := range live {
		switch {
		case itemID == nil:
			return conflictErr("request %s already has order %s", req.ID, o.ID)
		case o.ItemID == nil:
			return conflictErr("request %s is covered by whole-request order %s", req.ID, o.ID)
		case *o.ItemID == *itemID:
			return conflictErr("item %s of request %s already has order %s", *itemID, req.ID, o.ID)
		}
	}
	return nil
}

func (s *orderService) advance(o *model.Order, to model.DeliveryStatus) error {
	next, ok := o.DeliveryStatus.Next()
	if !ok || next != to {
		return &TransitionError{Resource: "order", From: string(o.DeliveryStatus), To: string(to)}
	}
	o.DeliveryStatus = to
	return nil
}

func (s *orderService) StartProcessing(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	return s.step(ctx, actor, id, model.DeliveryProcessing, model.AuditProcess, "order_processing")
}

func (s *orderService) MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	return s.step(ctx, actor, id, model.DeliveryDelivered, model.AuditDeliver, "order_delivered")
}

// step performs the supplier-side transitions, stamping the delivery date.
func (s *orderService) step(ctx context.Context, actor Actor, id uuid.UUID, to model.DeliveryStatus, action model.AuditAction, wsAction string) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "order", id)
		}
		if err := s.advance(order, to); err != nil {
			return err
		}
		now := s.now()
		order.DeliveryDate = &now
		order.UpdatedBy = actor.UserID
		return s.orderRepo.Save(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, action, wsAction, order)
	return order, nil
}

// ConfirmReceipt approves a delivered order and stocks every request line it
// covers, all in one transaction.
func (s *orderService) ConfirmReceipt(ctx context.Context, actor Actor, id uuid.UUID, in ConfirmReceiptInput) (*model.Order, error) {
	if in.Rating < 0 || in.Rating > maxRating {
		return nil, validationErr("rating must be between 0 and %d, got %d", maxRating, in.Rating)
	}

	var (
		order    *model.Order
		stockIns []*model.StockIn
		balances []*model.Stock
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "order", id)
		}
		if err := s.advance(order, model.DeliveryApproved); err != nil {
			return err
		}

		req, err := s.requestRepo.LockByID(tx, order.RequestItemID)
		if err != nil {
			return notFound(err, "request", order.RequestItemID)
		}
		for _, d := range req.Details {
			if !order.Covers(d.ItemID) {
				continue
			}
			line := ReceiveInput{
				SchoolID: req.SchoolID,
				OrderID:  order.ID,
				ItemID:   d.ItemID,
				Quantity: d.Quantity,
			}
			if exp, ok := in.Expirations[d.ItemID]; ok {
				line.ExpirationDate = &exp
			}
			created, balance, err := s.stockIn.Receive(tx, actor, line)
			if err != nil {
				return err
			}
			stockIns = append(stockIns, created)
			balances = append(balances, balance)
		}

		now := s.now()
		order.Rating = in.Rating
		order.ReceivedAt = &now
		if order.OrderPayState == model.PayPending {
			order.OrderPayState = model.PayUnpaid
		}
		order.UpdatedBy = actor.UserID
		return s.orderRepo.Save(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditReceive, "order_received", order)
	for i := range stockIns {
		s.stockIn.announce(ctx, actor, stockIns[i], balances[i])
	}
	return order, nil
}

func (s *orderService) MarkPaid(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "order", id)
		}
		if order.DeliveryStatus != model.DeliveryApproved || order.OrderPayState == model.PayPaid {
			return &TransitionError{
				Resource: "order payment",
				From:     string(order.DeliveryStatus) + "/" + string(order.OrderPayState),
				To:       string(model.PayPaid),
			}
		}
		order.OrderPayState = model.PayPaid
		order.UpdatedBy = actor.UserID
		return s.orderRepo.Save(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditPay, "order_paid", order)
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "order", id)
		}
		if order.DeliveryStatus != model.DeliveryScheduled {
			return &TransitionError{Resource: "order", From: string(order.DeliveryStatus), To: "CANCELLED"}
		}
		return s.orderRepo.Delete(tx, id, actor.UserID)
	})
	if err != nil {
		return err
	}

	s.announce(ctx, actor, model.AuditDelete, "order_cancelled", order)
	return nil
}

func (s *orderService) announce(ctx context.Context, actor Actor, action model.AuditAction, wsAction string, o *model.Order) {
	s.events.record(ctx, actor, action, "order", o.ID, string(o.DeliveryStatus)+"/"+string(o.OrderPayState))
	s.events.broadcast("order_update", wsAction, map[string]interface{}{
		"order_id":        o.ID,
		"request_item_id": o.RequestItemID,
		"supplier_id":     o.SupplierID,
		"delivery_status": o.DeliveryStatus,
		"pay_state":       o.OrderPayState,
	}, actor, actor.Name+" updated order to "+string(o.DeliveryStatus))
}

func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return order, nil
}

func (s *orderService) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error) {
	return s.orderRepo.FindAll(ctx, repository.OrderFilter{SupplierID: &supplierID, Status: status})
}

func (s *orderService) ListBySchool(ctx context.Context, schoolID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error) {
	return s.orderRepo.FindAll(ctx, repository.OrderFilter{SchoolID: &schoolID, Status: status})
}

func (s *orderService) ListByDistrict(ctx context.Context, districtID uuid.UUID, status model.DeliveryStatus) ([]model.Order, error) {
	return s.orderRepo.FindAll(ctx, repository.OrderFilter{DistrictID: &districtID, Status: status})
}
