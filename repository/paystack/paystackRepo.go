package paystackrepo

// Paystack moves the real money; the platform only mirrors balances. Every
// call here is an external effect and may fail ambiguously (timeout with no
// response); callers must not guess an outcome for local state.

type InitializeReq struct {
	Email     string
	Amount    int64 // minor units
	Reference string
}

type InitializeResp struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type ResolveAccountReq struct {
	AccountNumber string
	BankCode      string
}

type ResolveAccountResp struct {
	AccountName string
}

type CreateRecipientReq struct {
	Name          string
	AccountNumber string
	BankCode      string
}

type CreateRecipientResp struct {
	RecipientCode string
}

type TransferReq struct {
	Amount        int64 // minor units
	RecipientCode string
	Reason        string
	Reference     string
}

type TransferResp struct {
	TransferCode string
	Status       string
}

type Repo interface {
	InitializeTransaction(req InitializeReq) (*InitializeResp, error)
	ResolveAccount(req ResolveAccountReq) (*ResolveAccountResp, error)
	CreateTransferRecipient(req CreateRecipientReq) (*CreateRecipientResp, error)
	Transfer(req TransferReq) (*TransferResp, error)

	// VerifyWebhookSignature checks the x-paystack-signature header against
	// an HMAC-SHA512 of the exact raw body bytes.
	VerifyWebhookSignature(sigHeader string, rawBody []byte) error
}
