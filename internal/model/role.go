package model

// Role represents the kind of actor in the feeding program
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // GOV_ADMIN, DISTRICT_STAFF, ...
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleGovAdmin      = "GOV_ADMIN"
	RoleDistrictStaff = "DISTRICT_STAFF"
	RoleSchoolStaff   = "SCHOOL_STAFF"
	RoleSupplier      = "SUPPLIER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleGovAdmin,
		Name:        "Government Administrator",
		Description: "Manages fiscal year budgets and the item catalog",
	},
	{
		Code:        RoleDistrictStaff,
		Name:        "District Staff",
		Description: "Reviews school requests and assigns supplier orders",
	},
	{
		Code:        RoleSchoolStaff,
		Name:        "School Staff",
		Description: "Submits requests, receives deliveries and manages school stock",
	},
	{
		Code:        RoleSupplier,
		Name:        "Supplier",
		Description: "Prepares and delivers assigned orders",
	},
}

// RolePrivileges maps each role to the privilege codes it receives at seed time.
var RolePrivileges = map[string][]string{
	RoleGovAdmin: {
		PrivBudgetView, PrivBudgetManage, PrivItemView, PrivAuditView, PrivUserManage,
	},
	RoleDistrictStaff: {
		PrivRequestView, PrivRequestRespond, PrivOrderView, PrivOrderAssign, PrivOrderPay,
		PrivBudgetView, PrivItemView, PrivStockView,
	},
	RoleSchoolStaff: {
		PrivRequestView, PrivRequestCreate, PrivOrderView, PrivOrderReceive,
		PrivStockView, PrivStockOut, PrivItemView, PrivBudgetView,
	},
	RoleSupplier: {
		PrivOrderView, PrivOrderDeliver, PrivItemView,
	},
}
