package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestCompleted RequestStatus = "COMPLETED"
	RequestRejected  RequestStatus = "REJECTED"
)

// RequestItem is a school's ask for a bundle of food items.
type RequestItem struct {
	BaseModel
	SchoolID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"school_id"`
	School        *School             `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	DistrictID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"district_id"`
	District      *District           `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	Description   string              `gorm:"type:text" json:"description"`
	RequestStatus RequestStatus       `gorm:"type:varchar(20);not null;index" json:"request_status"`
	Details       []RequestItemDetail `gorm:"foreignKey:RequestItemID;constraint:OnDelete:CASCADE" json:"details"`
}

func (RequestItem) TableName() string {
	return "request_items"
}

// IsTerminal reports whether the request has left PENDING.
func (r *RequestItem) IsTerminal() bool {
	return r.RequestStatus != RequestPending
}

// DetailFor returns the line for itemID, if any.
func (r *RequestItem) DetailFor(itemID uuid.UUID) (*RequestItemDetail, bool) {
	for i := range r.Details {
		if r.Details[i].ItemID == itemID {
			return &r.Details[i], true
		}
	}
	return nil, false
}

type RequestItemDetail struct {
	BaseModel
	RequestItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_item_id"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null" json:"item_id"`
	Item          *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity      decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
}
