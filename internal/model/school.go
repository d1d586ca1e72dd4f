package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type District struct {
	BaseModel
	Name     string   `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required"`
	Province string   `gorm:"type:varchar(100)" json:"province"`
	IsActive bool     `gorm:"default:true" json:"is_active"`
	Schools  []School `json:"schools,omitempty"`
}

type School struct {
	BaseModel
	Name         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	DirectorName string    `gorm:"type:varchar(255)" json:"director_name"`
	Email        string    `gorm:"type:varchar(255)" json:"email"`
	Phone        string    `gorm:"type:varchar(20)" json:"phone"`
	Address      string    `gorm:"type:varchar(255)" json:"address"`
	Bank         string    `gorm:"type:varchar(50)" json:"bank"`
	BankAccount  string    `gorm:"type:varchar(50)" json:"bank_account"`
	StudentCount int       `gorm:"not null;default:0" json:"student_count" validate:"gte=0"`
	DistrictID   uuid.UUID `gorm:"type:uuid;not null;index" json:"district_id" validate:"uuid_required"`
	District     *District `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}

// Item is a food commodity from the national catalog.
type Item struct {
	BaseModel
	Name            string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	GramsPerStudent decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"grams_per_student"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"unit_price"`
	Unit            string          `gorm:"type:varchar(20)" json:"unit"`
	Category        string          `gorm:"type:varchar(50)" json:"category"`
	Description     string          `gorm:"type:text" json:"description"`
}
