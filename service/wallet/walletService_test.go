package walletsvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Festivemena/ment/model"
	paystackrepo "github.com/Festivemena/ment/repository/paystack"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
)

// --- fakes ---

type fakeTx struct {
	pgx.Tx
}

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

// fakeWallet mirrors the storage contract: the debit is checked and applied
// under one lock, the way the conditional UPDATE behaves at the row.
type fakeWallet struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  []model.Transaction
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: map[int64]int64{}}
}

func (f *fakeWallet) Credit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] += amount
	return f.balances[userID], nil
}

func (f *fakeWallet) Debit(ctx context.Context, tx pgx.Tx, userID, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return 0, walletrepo.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	return f.balances[userID], nil
}

func (f *fakeWallet) Balance(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeWallet) InsertEntry(ctx context.Context, tx pgx.Tx, e *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.entries {
		if ex.Reference == e.Reference {
			return errors.New("duplicate reference")
		}
	}
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeWallet) FindByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Reference == reference {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, walletrepo.ErrEntryNotFound
}

func (f *fakeWallet) MarkSuccessIfPending(ctx context.Context, tx pgx.Tx, reference string) (int64, int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Reference == reference && f.entries[i].Status == model.TxnPending {
			f.entries[i].Status = model.TxnSuccess
			return f.entries[i].UserID, f.entries[i].Amount, true, nil
		}
	}
	return 0, 0, false, nil
}

func (f *fakeWallet) SetBalanceAfter(ctx context.Context, tx pgx.Tx, reference string, balanceAfter int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].Reference == reference {
			f.entries[i].BalanceAfter = &balanceAfter
		}
	}
	return nil
}

func (f *fakeWallet) List(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

type fakeUsers struct {
	users map[int64]*model.User
	bank  map[int64]*model.BankDetails
}

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUsers) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) ByID(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) ByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) SetReferralCode(ctx context.Context, userID int64, code string) error { return nil }
func (f *fakeUsers) SetBankDetails(ctx context.Context, userID int64, d model.BankDetails) error {
	if _, ok := f.users[userID]; !ok {
		return userrepo.ErrNotFound
	}
	f.bank[userID] = &d
	return nil
}
func (f *fakeUsers) BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error) {
	if _, ok := f.users[userID]; !ok {
		return nil, userrepo.ErrNotFound
	}
	return f.bank[userID], nil
}

type fakePaystack struct {
	transferCalls int
	transferErr   error
}

func (f *fakePaystack) InitializeTransaction(req paystackrepo.InitializeReq) (*paystackrepo.InitializeResp, error) {
	return &paystackrepo.InitializeResp{
		AuthorizationURL: "https://checkout.example/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}
func (f *fakePaystack) ResolveAccount(req paystackrepo.ResolveAccountReq) (*paystackrepo.ResolveAccountResp, error) {
	return &paystackrepo.ResolveAccountResp{AccountName: "ADA LOVELACE"}, nil
}
func (f *fakePaystack) CreateTransferRecipient(req paystackrepo.CreateRecipientReq) (*paystackrepo.CreateRecipientResp, error) {
	return &paystackrepo.CreateRecipientResp{RecipientCode: "RCP_test"}, nil
}
func (f *fakePaystack) Transfer(req paystackrepo.TransferReq) (*paystackrepo.TransferResp, error) {
	f.transferCalls++
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &paystackrepo.TransferResp{TransferCode: "TRF_test", Status: "pending"}, nil
}
func (f *fakePaystack) VerifyWebhookSignature(sigHeader string, rawBody []byte) error { return nil }

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, userID int64, kind, title, body string) {}

func newTestService(balance int64, withBank bool) (Service, *fakeWallet) {
	fw := newFakeWallet()
	fw.balances[1] = balance
	fu := &fakeUsers{
		users: map[int64]*model.User{1: {ID: 1, Role: model.RoleClient, Email: "c@example.com", Username: "client"}},
		bank:  map[int64]*model.BankDetails{},
	}
	if withBank {
		fu.bank[1] = &model.BankDetails{AccountNumber: "0123456789", BankCode: "058", AccountName: "ADA", RecipientCode: "RCP_x"}
	}
	s := New(fakeDB{}, fu, fw, &fakePaystack{}, noopNotifier{})
	return s, fw
}

// --- tests ---

func TestDeposit_Validation(t *testing.T) {
	s, _ := newTestService(0, false)

	_, err := s.Deposit(context.Background(), 1, 0)
	require.Equal(t, ErrInvalidAmount, Code(err))

	_, err = s.Deposit(context.Background(), 1, -500)
	require.Equal(t, ErrInvalidAmount, Code(err))
}

func TestDeposit_CreatesPendingEntry(t *testing.T) {
	s, fw := newTestService(0, false)

	out, err := s.Deposit(context.Background(), 1, 250000)
	require.NoError(t, err)
	require.NotEmpty(t, out.Reference)
	require.Contains(t, out.AuthorizationURL, out.Reference)

	// no balance movement before the webhook
	bal, _ := fw.Balance(context.Background(), 1)
	require.EqualValues(t, 0, bal)

	e, err := fw.FindByReference(context.Background(), out.Reference)
	require.NoError(t, err)
	require.Equal(t, model.TxnPending, e.Status)
	require.Equal(t, model.TxnDeposit, e.Kind)
	require.EqualValues(t, 250000, e.Amount)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	// balance 1000, withdraw 1500: fails and balance is untouched
	s, fw := newTestService(1000, true)

	_, err := s.Withdraw(context.Background(), 1, 1500)
	require.Equal(t, ErrInsufficientFunds, Code(err))

	bal, _ := fw.Balance(context.Background(), 1)
	require.EqualValues(t, 1000, bal)
	require.Empty(t, fw.entries)
}

func TestWithdraw_RequiresBankDetails(t *testing.T) {
	s, _ := newTestService(5000, false)

	_, err := s.Withdraw(context.Background(), 1, 1000)
	require.Equal(t, ErrNoBankDetails, Code(err))
}

func TestWithdraw_Success(t *testing.T) {
	s, fw := newTestService(5000, true)

	out, err := s.Withdraw(context.Background(), 1, 2000)
	require.NoError(t, err)
	require.EqualValues(t, 3000, out.Balance)

	require.Len(t, fw.entries, 1)
	e := fw.entries[0]
	require.Equal(t, model.TxnWithdrawal, e.Kind)
	require.Equal(t, model.DirDebit, e.Direction)
	require.Equal(t, model.TxnSuccess, e.Status)
	require.NotNil(t, e.BalanceAfter)
	require.EqualValues(t, 3000, *e.BalanceAfter)
}

func TestWithdraw_ConcurrentDebits(t *testing.T) {
	// two debits of X against 1.5x: exactly one may succeed
	const x = 10000
	s, fw := newTestService(x+x/2, true)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Withdraw(context.Background(), 1, x)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrInsufficientFunds:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, insufficient)

	bal, _ := fw.Balance(context.Background(), 1)
	require.EqualValues(t, x/2, bal)
	require.Len(t, fw.entries, 1)
}

func TestRegisterBankDetails_UsesResolvedName(t *testing.T) {
	s, _ := newTestService(0, false)

	d, err := s.RegisterBankDetails(context.Background(), 1, "0123456789", "058", "ada l")
	require.NoError(t, err)
	require.Equal(t, "ADA LOVELACE", d.AccountName)
	require.Equal(t, "RCP_test", d.RecipientCode)
}

func TestLedgerInvariant_SumMatchesBalance(t *testing.T) {
	s, fw := newTestService(100000, true)

	_, err := s.Withdraw(context.Background(), 1, 30000)
	require.NoError(t, err)
	_, err = s.Withdraw(context.Background(), 1, 20000)
	require.NoError(t, err)

	var sum int64 = 100000 // opening balance predates the ledger window
	for _, e := range fw.entries {
		if e.Status == model.TxnSuccess {
			sum += e.Signed()
		}
	}
	bal, _ := fw.Balance(context.Background(), 1)
	require.Equal(t, bal, sum)
}
