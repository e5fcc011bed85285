package model

import "time"

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralCancelled ReferralStatus = "cancelled"
)

// Referral links a referrer to a referred user. A user can be referred at
// most once, enforced by the unique referred_id column.
type Referral struct {
	ID           int64          `json:"id"`
	ReferrerID   int64          `json:"referrer_id"`
	ReferredID   int64          `json:"referred_id"`
	Code         string         `json:"code"`
	RewardAmount int64          `json:"reward_amount"`
	Status       ReferralStatus `json:"status"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ReferralStats struct {
	Total     int64 `json:"total_referrals"`
	Completed int64 `json:"completed_referrals"`
	Pending   int64 `json:"pending_referrals"`
	Earnings  int64 `json:"total_earnings"`
}
