package model

import "time"

type Role string

const (
	RoleClient   Role = "client"
	RoleCreative Role = "creative"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"-"` // minor units, mutated only through repository/wallet
	ReferralCode *string   `json:"referral_code,omitempty"`
	AvgRating    float64   `json:"avg_rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// BankDetails is the payout destination registered against a user. The
// recipient code comes from the gateway and is required before withdrawals.
type BankDetails struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	AccountName   string `json:"account_name"`
	RecipientCode string `json:"-"`
}

// RegisterReq represents user registration payload
// swagger:model RegisterReq
type RegisterReq struct {
	Role         string `json:"role" validate:"required,oneof=client creative"`
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required,min=6"`
	ReferralCode string `json:"referral_code" validate:"omitempty,alphanum,min=6,max=8"`
}

// LoginReq represents login payload
// swagger:model LoginReq
type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
