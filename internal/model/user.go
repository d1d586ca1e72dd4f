package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated actor. Suppliers are users with the
// SUPPLIER role plus an attached SupplierProfile.
type User struct {
	BaseModel
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string      `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	PhoneNumber  string      `gorm:"type:varchar(20)" json:"phone_number"`
	RoleID       *uint       `gorm:"index" json:"role_id"`
	Role         *Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive     bool        `gorm:"default:true" json:"is_active"`
	Privileges   []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement

	// Scope of the actor: district staff carry a district, school staff a school.
	DistrictID *uuid.UUID `gorm:"type:uuid;index" json:"district_id,omitempty"`
	SchoolID   *uuid.UUID `gorm:"type:uuid;index" json:"school_id,omitempty"`

	SupplierProfile *SupplierProfile `gorm:"foreignKey:UserID" json:"supplier_profile,omitempty"`
	LastSeenAt      *time.Time       `json:"last_seen_at,omitempty"`
}

// SupplierProfile holds the supplier-only attributes of a User.
type SupplierProfile struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	TinNumber   string    `gorm:"type:varchar(30);not null" json:"tin_number"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	Bank        string    `gorm:"type:varchar(50)" json:"bank"`
	BankAccount string    `gorm:"type:varchar(50)" json:"bank_account"`
	Items       []Item    `gorm:"many2many:supplier_items;" json:"items,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// RoleCode returns the code of the user's role, or "" when none is loaded.
func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

// IsSupplier reports whether the user acts as a supplier.
func (u *User) IsSupplier() bool {
	return u.RoleCode() == RoleSupplier
}

// GetPrivilegeCodes returns a slice of all privilege codes for this user
func (u *User) GetPrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Role        string     `json:"role"`
	DistrictID  *uuid.UUID `json:"district_id,omitempty"`
	SchoolID    *uuid.UUID `json:"school_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	Privileges  []string   `json:"privileges"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.RoleCode(),
		DistrictID:  u.DistrictID,
		SchoolID:    u.SchoolID,
		IsActive:    u.IsActive,
		Privileges:  u.GetPrivilegeCodes(),
	}
}
