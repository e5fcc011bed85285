package wallet

// Amounts cross the boundary in major units and are converted to minor
// units before they reach any service.

type DepositReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type WithdrawReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type BankDetailsReq struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,len=10"`
	BankCode      string `json:"bank_code" validate:"required"`
	Name          string `json:"name" validate:"required"`
}
