package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockState string

const (
	StockNormal     StockState = "NORMAL"
	StockLow        StockState = "LOW"
	StockOutOfStock StockState = "OUT_OF_STOCK"
)

// ClassifyStock derives the state of a balance for the given low threshold.
func ClassifyStock(quantity, lowThreshold decimal.Decimal) StockState {
	switch {
	case !quantity.IsPositive():
		return StockOutOfStock
	case quantity.LessThan(lowThreshold):
		return StockLow
	default:
		return StockNormal
	}
}

// Stock is the running balance of one item at one school. There is exactly
// one row per (school, item).
type Stock struct {
	BaseModel
	SchoolID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_school_item" json:"school_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_school_item" json:"item_id"`
	Item       *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:numeric(18,3);not null;default:0" json:"quantity"`
	StockState StockState      `gorm:"type:varchar(20);not null" json:"stock_state"`
}

// StockIn is an immutable receipt event.
type StockIn struct {
	BaseModel
	SchoolID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"school_id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null" json:"item_id"`
	Item           *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	ExpirationDate *time.Time      `gorm:"type:date" json:"expiration_date,omitempty"`
}

func (StockIn) TableName() string {
	return "stock_ins"
}

// StockOut groups the lines withdrawn from a school's stock in one operation.
type StockOut struct {
	BaseModel
	SchoolID uuid.UUID            `gorm:"type:uuid;not null;index" json:"school_id"`
	Note     string               `gorm:"type:text" json:"note"`
	Details  []StockOutItemDetail `gorm:"foreignKey:StockOutID;constraint:OnDelete:CASCADE" json:"details"`
}

func (StockOut) TableName() string {
	return "stock_outs"
}

type StockOutItemDetail struct {
	BaseModel
	StockOutID uuid.UUID       `gorm:"type:uuid;not null;index" json:"stock_out_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null" json:"item_id"`
	Item       *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
}
