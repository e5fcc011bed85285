package paystackrepo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Festivemena/ment/util/httpx"
)

const baseURL = "https://api.paystack.co"

var ErrBadSignature = errors.New("invalid webhook signature")

type httpRepo struct {
	secret string
	client *http.Client
}

func NewHTTP(secret string) Repo {
	return &httpRepo{secret: secret, client: httpx.Client()}
}

func (r *httpRepo) InitializeTransaction(req InitializeReq) (*InitializeResp, error) {
	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	err := r.post("/transaction/initialize", map[string]any{
		"email":     req.Email,
		"amount":    req.Amount,
		"reference": req.Reference,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AuthorizationURL == "" {
		return nil, errors.New("paystack: empty authorization url")
	}
	return &InitializeResp{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

func (r *httpRepo) ResolveAccount(req ResolveAccountReq) (*ResolveAccountResp, error) {
	q := url.Values{}
	q.Set("account_number", req.AccountNumber)
	q.Set("bank_code", req.BankCode)

	var out struct {
		AccountName string `json:"account_name"`
	}
	if err := r.get("/bank/resolve?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out.AccountName == "" {
		return nil, errors.New("paystack: account not resolved")
	}
	return &ResolveAccountResp{AccountName: out.AccountName}, nil
}

func (r *httpRepo) CreateTransferRecipient(req CreateRecipientReq) (*CreateRecipientResp, error) {
	var out struct {
		RecipientCode string `json:"recipient_code"`
	}
	err := r.post("/transferrecipient", map[string]any{
		"type":           "nuban",
		"name":           req.Name,
		"account_number": req.AccountNumber,
		"bank_code":      req.BankCode,
		"currency":       "NGN",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.RecipientCode == "" {
		return nil, errors.New("paystack: empty recipient code")
	}
	return &CreateRecipientResp{RecipientCode: out.RecipientCode}, nil
}

func (r *httpRepo) Transfer(req TransferReq) (*TransferResp, error) {
	var out struct {
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}
	err := r.post("/transfer", map[string]any{
		"source":    "balance",
		"amount":    req.Amount,
		"recipient": req.RecipientCode,
		"reason":    req.Reason,
		"reference": req.Reference,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &TransferResp{TransferCode: out.TransferCode, Status: out.Status}, nil
}

// VerifyWebhookSignature recomputes the HMAC over the raw bytes exactly as
// delivered; re-serializing the parsed body would break verification.
func (r *httpRepo) VerifyWebhookSignature(sigHeader string, rawBody []byte) error {
	if sigHeader == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha512.New, []byte(r.secret))
	mac.Write(rawBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(sigHeader)) {
		return ErrBadSignature
	}
	return nil
}

// envelope is Paystack's {status, message, data} wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r *httpRepo) post(path string, body map[string]any, data any) error {
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.secret)
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, data)
}

func (r *httpRepo) get(path string, data any) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.secret)
	return r.do(req, data)
}

func (r *httpRepo) do(req *http.Request, data any) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack call failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("paystack: bad response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Status {
		return fmt.Errorf("paystack: %s (%s)", env.Message, resp.Status)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return fmt.Errorf("paystack: bad data payload: %w", err)
		}
	}
	return nil
}
