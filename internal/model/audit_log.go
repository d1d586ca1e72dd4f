package model

import "time"

type AuditAction string

const (
	AuditCreate  AuditAction = "CREATE"
	AuditUpdate  AuditAction = "UPDATE"
	AuditDelete  AuditAction = "DELETE"
	AuditApprove AuditAction = "APPROVE"
	AuditReject  AuditAction = "REJECT"
	AuditProcess AuditAction = "PROCESS"
	AuditDeliver AuditAction = "DELIVER"
	AuditReceive AuditAction = "RECEIVE"
	AuditPay     AuditAction = "PAY"
	AuditLogin   AuditAction = "LOGIN"
)

type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailed  AuditStatus = "FAILED"
)

// AuditLog is one row of the audit trail. It is append-only.
type AuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time   `gorm:"index;not null" json:"timestamp"`
	ActorID    string      `gorm:"type:varchar(64);index" json:"actor_id"`
	ActorName  string      `gorm:"type:varchar(255)" json:"actor_name"`
	Action     AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	Resource   string      `gorm:"type:varchar(50);index;not null" json:"resource"`
	ResourceID string      `gorm:"type:varchar(64);index" json:"resource_id"`
	Status     AuditStatus `gorm:"type:varchar(20);not null" json:"status"`
	Details    string      `gorm:"type:text" json:"details"`
}

// AllModels lists every entity that is migrated at startup.
func AllModels() []any {
	return []any{
		&Privilege{}, &Role{}, &User{}, &SupplierProfile{},
		&District{}, &School{}, &Item{},
		&RequestItem{}, &RequestItemDetail{},
		&Order{},
		&Stock{}, &StockIn{}, &StockOut{}, &StockOutItemDetail{},
		&BudgetGov{}, &BudgetDistrict{}, &BudgetSchool{},
		&AuditLog{},
	}
}
