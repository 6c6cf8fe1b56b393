package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Master Tables
// ============================================================

// Member represents members table
type Member struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Matricule string         `gorm:"size:50;uniqueIndex;not null" json:"matricule"`
	FirstName string         `gorm:"size:100" json:"first_name"`
	LastName  string         `gorm:"size:100" json:"last_name"`
	Phone     string         `gorm:"size:30" json:"phone"`
	Email     string         `gorm:"size:100" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// SubscriptionPlan represents subscription_plans table (CI catalog)
type SubscriptionPlan struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	Code           string              `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Label          string              `gorm:"size:100;not null" json:"label"`
	AmountPerMonth decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"amount_per_month"`
	DurationMonths int                 `gorm:"not null" json:"duration_months"`
	Nominal        decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"nominal"`
	SupportMin     decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"support_min"`
	SupportMax     decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"support_max"`
	IsActive       bool                `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// ============================================================
// Demand Tables
// ============================================================

// MemberColumns is the member snapshot stored on demands and contracts
type MemberColumns struct {
	Name      string `gorm:"size:200"`
	Matricule string `gorm:"size:50;index"`
	Phone     string `gorm:"size:30"`
	Email     string `gorm:"size:100"`
}

// PlanColumns is the plan snapshot stored on demands and contracts
type PlanColumns struct {
	Code           string              `gorm:"size:20"`
	Label          string              `gorm:"size:100"`
	AmountPerMonth decimal.Decimal     `gorm:"type:decimal(15,2)"`
	DurationMonths int
	Nominal        decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	SupportMin     decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	SupportMax     decimal.NullDecimal `gorm:"type:decimal(15,2)"`
}

// ContactColumns is the emergency contact of a demand
type ContactColumns struct {
	Name         string `gorm:"size:150"`
	Phone        string `gorm:"size:30"`
	Relationship string `gorm:"size:50"`
	IDDocument   string `gorm:"size:100"`
}

// Demand represents demands table
type Demand struct {
	ID               string         `gorm:"primaryKey;size:64"`
	MemberID         uint           `gorm:"index;not null"`
	Member           MemberColumns  `gorm:"embedded;embeddedPrefix:member_"`
	Cause            string         `gorm:"type:text;not null"`
	Plan             PlanColumns    `gorm:"embedded;embeddedPrefix:plan_"`
	PaymentFrequency string         `gorm:"size:10;not null"`
	DesiredStartDate time.Time      `gorm:"type:date;not null"`
	Contact          ContactColumns `gorm:"embedded;embeddedPrefix:emergency_"`
	Status           string         `gorm:"size:20;index;not null"`
	Priority         int            `gorm:"index;not null"`
	DecisionReason   string         `gorm:"type:text"`
	ReopenReason     string         `gorm:"type:text"`
	ContractID       *string        `gorm:"size:64;index"`

	CreatedBy   uint
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	EditedBy    *uint
	EditedAt    *time.Time
	AcceptedBy  *uint
	AcceptedAt  *time.Time
	RejectedBy  *uint
	RejectedAt  *time.Time
	ReopenedBy  *uint
	ReopenedAt  *time.Time
	ConvertedBy *uint
	ConvertedAt *time.Time
	DeletedBy   *uint
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Demand) TableName() string {
	return "demands"
}

// DemandHistory represents demand_histories table (audit trail)
type DemandHistory struct {
	ID         uint           `gorm:"primaryKey"`
	DemandID   string         `gorm:"size:64;index;not null"`
	Action     string         `gorm:"size:20;not null"`
	FromStatus string         `gorm:"size:20"`
	ToStatus   string         `gorm:"size:20"`
	Reason     string         `gorm:"type:text"`
	Changes    datatypes.JSON `gorm:"type:json"`
	ContractID *string        `gorm:"size:64"`
	ActorID    uint           `gorm:"index"`
	CreatedAt  time.Time      `gorm:"index"`
}

func (DemandHistory) TableName() string {
	return "demand_histories"
}

// ============================================================
// Contract Tables
// ============================================================

// Contract represents contracts table. Rows are hard deleted on rollback.
type Contract struct {
	ID               string          `gorm:"primaryKey;size:64"`
	DemandID         *string         `gorm:"size:64;uniqueIndex"`
	MemberID         uint            `gorm:"index;not null"`
	Member           MemberColumns   `gorm:"embedded;embeddedPrefix:member_"`
	Plan             PlanColumns     `gorm:"embedded;embeddedPrefix:plan_"`
	Nominal          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	SupportMin       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	SupportMax       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentFrequency string          `gorm:"size:10;not null"`
	FirstPaymentDate time.Time       `gorm:"type:date;not null"`
	Status           string          `gorm:"size:20;default:'ACTIVE'"`
	CreatedBy        uint
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (Contract) TableName() string {
	return "contracts"
}

// ContractPayment represents contract_payments table
type ContractPayment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ContractID string          `gorm:"size:64;index;not null" json:"contract_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaidAt     time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (ContractPayment) TableName() string {
	return "contract_payments"
}

// SupportHistory represents support_histories table
type SupportHistory struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ContractID string          `gorm:"size:64;index;not null" json:"contract_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Note       string          `gorm:"type:text" json:"note"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (SupportHistory) TableName() string {
	return "support_histories"
}

// EarlyRefund represents early_refunds table
type EarlyRefund struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ContractID string          `gorm:"size:64;index;not null" json:"contract_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RefundedAt time.Time       `gorm:"not null" json:"refunded_at"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (EarlyRefund) TableName() string {
	return "early_refunds"
}

// ContractDocument represents contract_documents table
type ContractDocument struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContractID  string    `gorm:"size:64;index;not null" json:"contract_id"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	StoragePath string    `gorm:"size:500" json:"storage_path"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ContractDocument) TableName() string {
	return "contract_documents"
}

// All returns every model managed by AutoMigrate
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Member{},
		&SubscriptionPlan{},
		&Demand{},
		&DemandHistory{},
		&Contract{},
		&ContractPayment{},
		&SupportHistory{},
		&EarlyRefund{},
		&ContractDocument{},
	}
}
