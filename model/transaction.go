package model

import "time"

type TxnKind string

const (
	TxnDeposit        TxnKind = "deposit"
	TxnWithdrawal     TxnKind = "withdrawal"
	TxnBookingPayment TxnKind = "booking_payment"
	TxnPayout         TxnKind = "payout"
	TxnTip            TxnKind = "tip"
	TxnReferralReward TxnKind = "referral_reward"
	TxnRefund         TxnKind = "refund"
)

type TxnStatus string

const (
	TxnPending TxnStatus = "pending"
	TxnSuccess TxnStatus = "success"
	TxnFailed  TxnStatus = "failed"
)

type TxnDirection string

const (
	DirCredit TxnDirection = "credit"
	DirDebit  TxnDirection = "debit"
)

// Transaction is one immutable ledger entry. Amount is always positive in
// minor units; Direction carries the sign. Reference is the idempotency key
// for gateway-backed entries and is unique across the whole ledger.
// BalanceAfter is set in the same transaction that applied the balance
// change, and stays nil while the entry is pending.
type Transaction struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	Kind         TxnKind      `json:"kind"`
	Direction    TxnDirection `json:"direction"`
	Amount       int64        `json:"amount"`
	Status       TxnStatus    `json:"status"`
	Reference    string       `json:"reference"`
	Description  string       `json:"description,omitempty"`
	RefTable     *string      `json:"ref_table,omitempty"`
	RefID        *int64       `json:"ref_id,omitempty"`
	BalanceAfter *int64       `json:"balance_after,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Signed returns the entry's contribution to the owning balance.
func (t Transaction) Signed() int64 {
	if t.Direction == DirDebit {
		return -t.Amount
	}
	return t.Amount
}
