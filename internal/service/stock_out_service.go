package service

import (
	"context"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockOutInput struct {
	SchoolID uuid.UUID   `json:"school_id" validate:"uuid_required"`
	Note     string      `json:"note"`
	Lines    []LineInput `json:"lines" validate:"required,min=1,dive"`
}

type UpdateStockOutInput struct {
	Note  string      `json:"note"`
	Lines []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// StockOutService withdraws stock for feeding. Every operation is all-or-nothing.
type StockOutService interface {
	Withdraw(ctx context.Context, actor Actor, in StockOutInput) (*model.StockOut, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateStockOutInput) (*model.StockOut, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StockOut, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockOut, error)
}

type stockOutService struct {
	db           *gorm.DB
	stockOutRepo repository.StockOutRepository
	itemRepo     repository.ItemRepository
	ledger       InventoryLedger
	events       *Events
}

func NewStockOutService(db *gorm.DB, stockOutRepo repository.StockOutRepository, itemRepo repository.ItemRepository,
	ledger InventoryLedger, events *Events) StockOutService {
	return &stockOutService{
		db:           db,
		stockOutRepo: stockOutRepo,
		itemRepo:     itemRepo,
		ledger:       ledger,
		events:       events,
	}
}

// resolve fails with NotFound when the school or any item does not exist, so
// only a missing balance row is reported as a shortfall.
func (s *stockOutService) resolve(tx *gorm.DB, schoolID uuid.UUID, lines []LineInput) error {
	var school model.School
	if err := tx.Select("id").First(&school, "id = ?", schoolID).Error; err != nil {
		return notFound(err, "school", schoolID)
	}
	items, err := s.itemRepo.FindByIDs(tx, lineItemIDs(lines))
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, ok := items[l.ItemID]; !ok {
			return &NotFoundError{Resource: "item", ID: l.ItemID.String()}
		}
	}
	return nil
}

func toStockOutDetails(lines []LineInput, actor Actor) []model.StockOutItemDetail {
	details := make([]model.StockOutItemDetail, len(lines))
	for i, l := range lines {
		details[i] = model.StockOutItemDetail{ItemID: l.ItemID, Quantity: l.Quantity}
		details[i].CreatedBy = actor.UserID
		details[i].UpdatedBy = actor.UserID
	}
	return details
}

func (s *stockOutService) Withdraw(ctx context.Context, actor Actor, in StockOutInput) (*model.StockOut, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}
	lines := mergeLines(in.Lines)

	out := &model.StockOut{
		SchoolID: in.SchoolID,
		Note:     in.Note,
		Details:  toStockOutDetails(lines, actor),
	}
	out.CreatedBy = actor.UserID
	out.UpdatedBy = actor.UserID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.resolve(tx, in.SchoolID, lines); err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := s.ledger.Debit(tx, actor, in.SchoolID, l.ItemID, l.Quantity); err != nil {
				return err
			}
		}
		return s.stockOutRepo.Create(tx, out)
	})
	if err != nil {
		s.events.logError("stock_out", "Withdraw", "withdrawal rolled back", in.SchoolID.String(), err)
		return nil, err
	}

	s.announce(ctx, actor, model.AuditCreate, "stock_out_created", out)
	return out, nil
}

// Update swaps the lines of a withdrawal. Old lines are credited back and the
// new lines debited in one transaction, item by item in id order.
func (s *stockOutService) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateStockOutInput) (*model.StockOut, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}
	lines := mergeLines(in.Lines)

	var updated *model.StockOut
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.stockOutRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "stock out", id)
		}
		if err := s.resolve(tx, out.SchoolID, lines); err != nil {
			return err
		}

		old := make([]LineInput, len(out.Details))
		for i, d := range out.Details {
			old[i] = LineInput{ItemID: d.ItemID, Quantity: d.Quantity}
		}
		if err := s.swap(tx, actor, out.SchoolID, old, lines); err != nil {
			return err
		}

		out.Note = in.Note
		if err := s.stockOutRepo.ReplaceDetails(tx, out, toStockOutDetails(lines, actor), actor.UserID); err != nil {
			return err
		}
		updated = out
		return nil
	})
	if err != nil {
		s.events.logError("stock_out", "Update", "update rolled back", id.String(), err)
		return nil, err
	}

	s.announce(ctx, actor, model.AuditUpdate, "stock_out_updated", updated)
	return updated, nil
}

// swap applies credit(old) then debit(new) per item, visiting items in id order.
func (s *stockOutService) swap(tx *gorm.DB, actor Actor, schoolID uuid.UUID, old, next []LineInput) error {
	type delta struct {
		itemID        uuid.UUID
		credit, debit decimal.Decimal
	}
	byItem := map[uuid.UUID]*delta{}
	var order []*delta
	get := func(id uuid.UUID) *delta {
		d, ok := byItem[id]
		if !ok {
			d = &delta{itemID: id}
			byItem[id] = d
			order = append(order, d)
		}
		return d
	}
	for _, l := range old {
		d := get(l.ItemID)
		d.credit = d.credit.Add(l.Quantity)
	}
	for _, l := range next {
		d := get(l.ItemID)
		d.debit = d.debit.Add(l.Quantity)
	}
	sortByItem(order, func(d *delta) uuid.UUID { return d.itemID })

	for _, d := range order {
		if d.credit.IsPositive() {
			if _, err := s.ledger.Credit(tx, actor, schoolID, d.itemID, d.credit); err != nil {
				return err
			}
		}
		if d.debit.IsPositive() {
			if _, err := s.ledger.Debit(tx, actor, schoolID, d.itemID, d.debit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete restores every withdrawn line and soft-deletes the withdrawal.
func (s *stockOutService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	var deleted *model.StockOut
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.stockOutRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "stock out", id)
		}
		for _, d := range out.Details {
			if _, err := s.ledger.Credit(tx, actor, out.SchoolID, d.ItemID, d.Quantity); err != nil {
				return err
			}
		}
		deleted = out
		return s.stockOutRepo.Delete(tx, id, actor.UserID)
	})
	if err != nil {
		return err
	}

	s.announce(ctx, actor, model.AuditDelete, "stock_out_deleted", deleted)
	return nil
}

func (s *stockOutService) announce(ctx context.Context, actor Actor, action model.AuditAction, wsAction string, out *model.StockOut) {
	lines := make([]map[string]interface{}, len(out.Details))
	for i, d := range out.Details {
		lines[i] = map[string]interface{}{"item_id": d.ItemID, "quantity": d.Quantity}
	}
	s.events.record(ctx, actor, action, "stock_out", out.ID, out.Note)
	s.events.broadcast("stock_update", wsAction, map[string]interface{}{
		"stock_out_id": out.ID,
		"school_id":    out.SchoolID,
		"lines":        lines,
	}, actor, actor.Name+" recorded a stock withdrawal")
}

func (s *stockOutService) GetByID(ctx context.Context, id uuid.UUID) (*model.StockOut, error) {
	out, err := s.stockOutRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "stock out", id)
	}
	return out, nil
}

func (s *stockOutService) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.StockOut, error) {
	return s.stockOutRepo.FindBySchool(ctx, schoolID)
}
