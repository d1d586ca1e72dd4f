package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetStatus string

const (
	BudgetOnTrack  BudgetStatus = "ON_TRACK"
	BudgetOffTrack BudgetStatus = "OFF_TRACK"
)

// BudgetGov is the government budget for one fiscal year. Version counts the
// allocation snapshots written for it; derived rows of older versions are
// kept with Superseded set.
type BudgetGov struct {
	BaseModel
	FiscalYear  string           `gorm:"type:varchar(20);uniqueIndex;not null" json:"fiscal_year"`
	Budget      decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"budget"`
	Description string           `gorm:"type:text" json:"description"`
	Status      bool             `gorm:"not null" json:"status"`
	Version     int              `gorm:"not null;default:0" json:"version"`
	Districts   []BudgetDistrict `gorm:"foreignKey:BudgetGovID" json:"districts,omitempty"`
}

func (BudgetGov) TableName() string {
	return "budget_govs"
}

// StatusForChildren maps the government plan flag onto derived rows.
func (b *BudgetGov) StatusForChildren() BudgetStatus {
	if b.Status {
		return BudgetOnTrack
	}
	return BudgetOffTrack
}

type BudgetDistrict struct {
	BaseModel
	BudgetGovID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"budget_gov_id"`
	DistrictID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"district_id"`
	District     *District       `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	Version      int             `gorm:"not null" json:"version"`
	StudentCount int             `gorm:"not null" json:"student_count"`
	Budget       decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"budget"`
	BudgetStatus BudgetStatus    `gorm:"type:varchar(20);not null" json:"budget_status"`
	Superseded   bool            `gorm:"not null;default:false;index" json:"superseded"`
	Schools      []BudgetSchool  `gorm:"foreignKey:BudgetDistrictID" json:"schools,omitempty"`
}

func (BudgetDistrict) TableName() string {
	return "budget_districts"
}

type BudgetSchool struct {
	BaseModel
	BudgetDistrictID uuid.UUID       `gorm:"type:uuid;not null;index" json:"budget_district_id"`
	SchoolID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"school_id"`
	School           *School         `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
	Version          int             `gorm:"not null" json:"version"`
	StudentCount     int             `gorm:"not null" json:"student_count"`
	Budget           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"budget"`
	BudgetStatus     BudgetStatus    `gorm:"type:varchar(20);not null" json:"budget_status"`
	Superseded       bool            `gorm:"not null;default:false;index" json:"superseded"`
}

func (BudgetSchool) TableName() string {
	return "budget_schools"
}
