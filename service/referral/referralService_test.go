package referralsvc

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/Festivemena/ment/model"
	referralrepo "github.com/Festivemena/ment/repository/referral"
	userrepo "github.com/Festivemena/ment/repository/user"
	walletrepo "github.com/Festivemena/ment/repository/wallet"
)

const reward = int64(100000)

// --- fakes ---

type fakeTx struct {
	pgx.Tx
}

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeDB struct{}

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

type fakeWallet struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  []model.Transaction
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
	return f.balances[userID], nil
}

func (f *fakeWallet) InsertEntry(ctx context.Context, tx pgx.Tx, e *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeWallet) FindByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	return nil, walletrepo.ErrEntryNotFound
}

func (f *fakeWallet) MarkSuccessIfPending(ctx context.Context, tx pgx.Tx, reference string) (int64, int64, bool, error) {
	return 0, 0, false, nil
}

func (f *fakeWallet) SetBalanceAfter(ctx context.Context, tx pgx.Tx, reference string, balanceAfter int64) error {
	return nil
}

func (f *fakeWallet) List(ctx context.Context, userID int64, page, limit int) ([]model.Transaction, int64, error) {
	return nil, 0, nil
}

// fakeReferrals enforces the one-referral-per-user constraint the way the
// referred_id unique index does.
type fakeReferrals struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*model.Referral // keyed by referred id
}

func newFakeReferrals() *fakeReferrals {
	return &fakeReferrals{nextID: 1, rows: map[int64]*model.Referral{}}
}

func (f *fakeReferrals) Insert(ctx context.Context, r *model.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[r.ReferredID]; exists {
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "referrals_referred_id_key"}
	}
	r.ID = f.nextID
	f.nextID++
	cp := *r
	f.rows[r.ReferredID] = &cp
	return nil
}

func (f *fakeReferrals) CompletePending(ctx context.Context, tx pgx.Tx, referredID int64) (*model.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[referredID]
	if !ok || r.Status != model.ReferralPending {
		return nil, referralrepo.ErrNoPending
	}
	r.Status = model.ReferralCompleted
	cp := *r
	return &cp, nil
}

func (f *fakeReferrals) Stats(ctx context.Context, referrerID int64) (*model.ReferralStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &model.ReferralStats{}
	for _, r := range f.rows {
		if r.ReferrerID != referrerID {
			continue
		}
		st.Total++
		if r.Status == model.ReferralCompleted {
			st.Completed++
			st.Earnings += r.RewardAmount
		} else {
			st.Pending++
		}
	}
	return st, nil
}

func (f *fakeReferrals) History(ctx context.Context, referrerID int64, page, limit int) ([]model.Referral, int64, error) {
	return nil, 0, nil
}

func (f *fakeReferrals) Leaderboard(ctx context.Context, limit int) ([]referralrepo.LeaderboardRow, error) {
	return nil, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUsers) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) ByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) ByReferralCode(ctx context.Context, code string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userrepo.ErrNotFound
}
func (f *fakeUsers) SetReferralCode(ctx context.Context, userID int64, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return userrepo.ErrNotFound
	}
	if u.ReferralCode != nil {
		return userrepo.ErrCodeAlreadySet
	}
	for _, other := range f.users {
		if other.ReferralCode != nil && *other.ReferralCode == code {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		}
	}
	u.ReferralCode = &code
	return nil
}
func (f *fakeUsers) SetBankDetails(ctx context.Context, userID int64, d model.BankDetails) error {
	return nil
}
func (f *fakeUsers) BankDetails(ctx context.Context, userID int64) (*model.BankDetails, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, userID int64, kind, title, body string) {}

func newTestService() (Service, *fakeWallet, *fakeUsers, *fakeReferrals) {
	code := "FRIEND7"
	fu := &fakeUsers{users: map[int64]*model.User{
		1: {ID: 1, Role: model.RoleClient, Username: "referrer", ReferralCode: &code},
		2: {ID: 2, Role: model.RoleClient, Username: "newbie"},
	}}
	fw := &fakeWallet{balances: map[int64]int64{}}
	fr := newFakeReferrals()
	return New(fakeDB{}, fr, fu, fw, noopNotifier{}, reward), fw, fu, fr
}

// --- tests ---

func TestApply(t *testing.T) {
	s, _, _, _ := newTestService()

	r, err := s.Apply(context.Background(), "FRIEND7", 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, r.ReferrerID)
	require.EqualValues(t, 2, r.ReferredID)
	require.Equal(t, model.ReferralPending, r.Status)
	require.Equal(t, reward, r.RewardAmount)
}

func TestApply_InvalidCode(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Apply(context.Background(), "NOSUCH1", 2)
	require.Equal(t, ErrInvalidCode, Code(err))
}

func TestApply_SelfReferral(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Apply(context.Background(), "FRIEND7", 1)
	require.Equal(t, ErrSelfReferral, Code(err))
}

func TestApply_OnlyOnce(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Apply(context.Background(), "FRIEND7", 2)
	require.NoError(t, err)

	_, err = s.Apply(context.Background(), "FRIEND7", 2)
	require.Equal(t, ErrAlreadyReferred, Code(err))
}

func TestComplete_PaysReferrerOnce(t *testing.T) {
	s, fw, _, _ := newTestService()
	_, err := s.Apply(context.Background(), "FRIEND7", 2)
	require.NoError(t, err)

	r, err := s.Complete(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, model.ReferralCompleted, r.Status)
	require.Equal(t, reward, fw.balances[1])

	require.Len(t, fw.entries, 1)
	require.Equal(t, model.TxnReferralReward, fw.entries[0].Kind)
	require.Equal(t, model.DirCredit, fw.entries[0].Direction)
	require.Equal(t, reward, fw.entries[0].Amount)

	// the second trigger finds nothing pending
	_, err = s.Complete(context.Background(), 2)
	require.Equal(t, ErrNotFound, Code(err))
	require.Equal(t, reward, fw.balances[1])
	require.Len(t, fw.entries, 1)
}

func TestComplete_NoReferral(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Complete(context.Background(), 2)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestComplete_ConcurrentTriggers(t *testing.T) {
	s, fw, _, _ := newTestService()
	_, err := s.Apply(context.Background(), "FRIEND7", 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Complete(context.Background(), 2)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, missed int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrNotFound:
			missed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, missed)
	require.Equal(t, reward, fw.balances[1])
}

func TestInfo_AssignsCodeLazily(t *testing.T) {
	s, _, fu, _ := newTestService()

	info, err := s.Info(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, info.Code, 6)

	u, err := fu.ByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, u.ReferralCode)
	require.Equal(t, *u.ReferralCode, info.Code)

	// a second call returns the same code
	again, err := s.Info(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, info.Code, again.Code)
}

func TestInfo_Stats(t *testing.T) {
	s, _, _, _ := newTestService()
	_, err := s.Apply(context.Background(), "FRIEND7", 2)
	require.NoError(t, err)
	_, err = s.Complete(context.Background(), 2)
	require.NoError(t, err)

	info, err := s.Info(context.Background(), 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Stats.Total)
	require.EqualValues(t, 1, info.Stats.Completed)
	require.EqualValues(t, 0, info.Stats.Pending)
	require.Equal(t, reward, info.Stats.Earnings)
}

func TestValidate(t *testing.T) {
	s, _, _, _ := newTestService()

	u, amt, err := s.Validate(context.Background(), "FRIEND7")
	require.NoError(t, err)
	require.EqualValues(t, 1, u.ID)
	require.Equal(t, reward, amt)

	_, _, err = s.Validate(context.Background(), "NOSUCH1")
	require.Equal(t, ErrInvalidCode, Code(err))
}
