package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "request:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Request"
}

const (
	PrivRequestView    = "request:view"
	PrivRequestCreate  = "request:create"
	PrivRequestRespond = "request:respond"
	PrivOrderView      = "order:view"
	PrivOrderAssign    = "order:assign"
	PrivOrderDeliver   = "order:deliver"
	PrivOrderReceive   = "order:receive"
	PrivOrderPay       = "order:pay"
	PrivStockView      = "stock:view"
	PrivStockOut       = "stock:out"
	PrivBudgetView     = "budget:view"
	PrivBudgetManage   = "budget:manage"
	PrivItemView       = "item:view"
	PrivAuditView      = "audit:view"
	PrivUserManage     = "user:manage"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// Requests
	{Code: PrivRequestView, Name: "View Request"},
	{Code: PrivRequestCreate, Name: "Create Request"},
	{Code: PrivRequestRespond, Name: "Approve or Reject Request"},
	// Orders
	{Code: PrivOrderView, Name: "View Order"},
	{Code: PrivOrderAssign, Name: "Assign Order"},
	{Code: PrivOrderDeliver, Name: "Process and Deliver Order"},
	{Code: PrivOrderReceive, Name: "Confirm Order Receipt"},
	{Code: PrivOrderPay, Name: "Settle Order Payment"},
	// Stock
	{Code: PrivStockView, Name: "View Stock"},
	{Code: PrivStockOut, Name: "Withdraw Stock"},
	// Budget
	{Code: PrivBudgetView, Name: "View Budget"},
	{Code: PrivBudgetManage, Name: "Manage Budget"},
	// Reference data
	{Code: PrivItemView, Name: "View Item"},
	{Code: PrivAuditView, Name: "View Audit Log"},
	{Code: PrivUserManage, Name: "Manage Users"},
}
