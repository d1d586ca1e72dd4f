package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryScheduled  DeliveryStatus = "SCHEDULED"
	DeliveryProcessing DeliveryStatus = "PROCESSING"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
	DeliveryApproved   DeliveryStatus = "APPROVED"
)

// Next returns the only status an order may move to from s.
func (s DeliveryStatus) Next() (DeliveryStatus, bool) {
	switch s {
	case DeliveryScheduled:
		return DeliveryProcessing, true
	case DeliveryProcessing:
		return DeliveryDelivered, true
	case DeliveryDelivered:
		return DeliveryApproved, true
	default:
		return "", false
	}
}

type PayState string

const (
	PayPending PayState = "PENDING"
	PayUnpaid  PayState = "UNPAID"
	PayPaid    PayState = "PAID"
)

// Order is a supplier's commitment to fulfil a request, or a single item of it
// when ItemID is set.
type Order struct {
	BaseModel
	RequestItemID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_item_id"`
	RequestItem    *RequestItem    `gorm:"foreignKey:RequestItemID" json:"request_item,omitempty"`
	ItemID         *uuid.UUID      `gorm:"type:uuid;index" json:"item_id,omitempty"`
	SupplierID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier       *User           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	DeliveryDate   *time.Time      `json:"delivery_date,omitempty"`
	DeliveryStatus DeliveryStatus  `gorm:"type:varchar(20);not null;index" json:"delivery_status"`
	OrderPrice     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"order_price"`
	OrderPayState  PayState        `gorm:"type:varchar(20);not null" json:"order_pay_state"`
	Rating         int             `gorm:"not null;default:0" json:"rating"`
	ReceivedAt     *time.Time      `json:"received_at,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// Covers reports whether the order delivers the given request line.
func (o *Order) Covers(itemID uuid.UUID) bool {
	return o.ItemID == nil || *o.ItemID == itemID
}
