package service

import (
	"context"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"
	"go-schoolfeeding/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateRequestInput struct {
	SchoolID    uuid.UUID   `json:"school_id" validate:"uuid_required"`
	Description string      `json:"description"`
	Lines       []LineInput `json:"lines" validate:"required,min=1,dive"`
}

type UpdateRequestInput struct {
	Description string      `json:"description"`
	Lines       []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// RequestService drives a school request from PENDING to COMPLETED or REJECTED.
type RequestService interface {
	Create(ctx context.Context, actor Actor, in CreateRequestInput) (*model.RequestItem, error)
	UpdateDetails(ctx context.Context, actor Actor, id uuid.UUID, in UpdateRequestInput) (*model.RequestItem, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.RequestItem, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID) (*model.RequestItem, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RequestItem, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID, status model.RequestStatus) ([]model.RequestItem, error)
	ListByDistrict(ctx context.Context, districtID uuid.UUID, status model.RequestStatus) ([]model.RequestItem, error)
}

type requestService struct {
	db          *gorm.DB
	requestRepo repository.RequestRepository
	itemRepo    repository.ItemRepository
	events      *Events
}

func NewRequestService(db *gorm.DB, requestRepo repository.RequestRepository, itemRepo repository.ItemRepository, events *Events) RequestService {
	return &requestService{
		db:          db,
		requestRepo: requestRepo,
		itemRepo:    itemRepo,
		events:      events,
	}
}

func (s *requestService) buildDetails(tx *gorm.DB, actor Actor, lines []LineInput) ([]model.RequestItemDetail, error) {
	merged := mergeLines(lines)
	items, err := s.itemRepo.FindByIDs(tx, lineItemIDs(merged))
	if err != nil {
		return nil, err
	}
	details := make([]model.RequestItemDetail, len(merged))
	for i, l := range merged {
		if _, ok := items[l.ItemID]; !ok {
			return nil, validationErr("unknown item %s", l.ItemID)
		}
		details[i] = model.RequestItemDetail{ItemID: l.ItemID, Quantity: l.Quantity}
		details[i].CreatedBy = actor.UserID
		details[i].UpdatedBy = actor.UserID
	}
	return details, nil
}

func (s *requestService) Create(ctx context.Context, actor Actor, in CreateRequestInput) (*model.RequestItem, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}

	var req *model.RequestItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var school model.School
		if err := tx.First(&school, "id = ?", in.SchoolID).Error; err != nil {
			return notFound(err, "school", in.SchoolID)
		}
		if !school.IsActive {
			return validationErr("school %s is inactive", school.Name)
		}

		details, err := s.buildDetails(tx, actor, in.Lines)
		if err != nil {
			return err
		}
		req = &model.RequestItem{
			SchoolID:      school.ID,
			DistrictID:    school.DistrictID,
			Description:   in.Description,
			RequestStatus: model.RequestPending,
			Details:       details,
		}
		req.CreatedBy = actor.UserID
		req.UpdatedBy = actor.UserID
		return s.requestRepo.Create(tx, req)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditCreate, "request_created", req)
	return req, nil
}

func (s *requestService) UpdateDetails(ctx context.Context, actor Actor, id uuid.UUID, in UpdateRequestInput) (*model.RequestItem, error) {
	if errs := validator.ValidateStruct(&in); len(errs) > 0 {
		return nil, validationErr("%s", errs[0])
	}

	var req *model.RequestItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.requestRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "request", id)
		}
		if req.IsTerminal() {
			return &TransitionError{Resource: "request", From: string(req.RequestStatus), To: "EDITED"}
		}
		details, err := s.buildDetails(tx, actor, in.Lines)
		if err != nil {
			return err
		}
		req.Description = in.Description
		return s.requestRepo.ReplaceDetails(tx, req, details, actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditUpdate, "request_updated", req)
	return req, nil
}

func (s *requestService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.RequestItem, error) {
	return s.decide(ctx, actor, id, model.RequestCompleted, model.AuditApprove, "request_approved")
}

func (s *requestService) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*model.RequestItem, error) {
	return s.decide(ctx, actor, id, model.RequestRejected, model.AuditReject, "request_rejected")
}

// decide moves a PENDING request to a terminal status. Approval creates no
// orders; those are assigned separately.
func (s *requestService) decide(ctx context.Context, actor Actor, id uuid.UUID, to model.RequestStatus, action model.AuditAction, wsAction string) (*model.RequestItem, error) {
	var req *model.RequestItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.requestRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "request", id)
		}
		if req.RequestStatus != model.RequestPending {
			return &TransitionError{Resource: "request", From: string(req.RequestStatus), To: string(to)}
		}
		if err := s.requestRepo.UpdateStatus(tx, id, to, actor.UserID); err != nil {
			return err
		}
		req.RequestStatus = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, action, wsAction, req)
	return req, nil
}

func (s *requestService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	var req *model.RequestItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.requestRepo.LockByID(tx, id)
		if err != nil {
			return notFound(err, "request", id)
		}
		if req.RequestStatus != model.RequestPending {
			return &TransitionError{Resource: "request", From: string(req.RequestStatus), To: "DELETED"}
		}
		return s.requestRepo.Delete(tx, id, actor.UserID)
	})
	if err != nil {
		return err
	}

	s.announce(ctx, actor, model.AuditDelete, "request_deleted", req)
	return nil
}

func (s *requestService) announce(ctx context.Context, actor Actor, action model.AuditAction, wsAction string, req *model.RequestItem) {
	s.events.record(ctx, actor, action, "request", req.ID, string(req.RequestStatus))
	s.events.broadcast("request_update", wsAction, map[string]interface{}{
		"request_id":  req.ID,
		"school_id":   req.SchoolID,
		"district_id": req.DistrictID,
		"status":      req.RequestStatus,
		"lines":       len(req.Details),
	}, actor, actor.Name+" "+string(action)+" request")
}

func (s *requestService) GetByID(ctx context.Context, id uuid.UUID) (*model.RequestItem, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "request", id)
	}
	return req, nil
}

func (s *requestService) ListBySchool(ctx context.Context, schoolID uuid.UUID, status model.RequestStatus) ([]model.RequestItem, error) {
	return s.requestRepo.FindAll(ctx, repository.RequestFilter{SchoolID: &schoolID, Status: status})
}

func (s *requestService) ListByDistrict(ctx context.Context, districtID uuid.UUID, status model.RequestStatus) ([]model.RequestItem, error) {
	return s.requestRepo.FindAll(ctx, repository.RequestFilter{DistrictID: &districtID, Status: status})
}
