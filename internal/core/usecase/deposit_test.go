package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
	"github.com/studentpay/backoffice/internal/core/store/memory"
)

func newWorkflow() (*DepositWorkflow, *memory.Store) {
	st := memory.New(logger.NewNop(), 0)
	return NewDepositWorkflow(st, logger.NewNop()), st
}

func TestSearchByExactEmail(t *testing.T) {
	wf, _ := newWorkflow()

	require.NoError(t, wf.Search(context.Background(), "jean@univ.mg"))
	assert.Equal(t, StateFoundWithWallet, wf.State())
	assert.Equal(t, "u2", wf.User().ID)
	assert.Equal(t, "w_u2_01", wf.WalletID())
	assert.True(t, wf.CanSubmit())
}

func TestSearchExactEmailWinsOverNameSubstring(t *testing.T) {
	wf, st := newWorkflow()
	ctx := context.Background()

	// однофамилец, чьё имя содержит email-подобную строку искомого
	_, err := st.CreateUser(ctx, models.User{Name: "jean@univ.mg fan club", Email: "fan@univ.mg"})
	require.NoError(t, err)

	require.NoError(t, wf.Search(ctx, "jean@univ.mg"))
	assert.Equal(t, "u2", wf.User().ID, "exact email match has priority")
}

func TestSearchByEmailSubstring(t *testing.T) {
	wf, _ := newWorkflow()

	require.NoError(t, wf.Search(context.Background(), "prof@"))
	assert.Equal(t, "u3", wf.User().ID)
}

func TestSearchByNameCaseInsensitive(t *testing.T) {
	wf, _ := newWorkflow()

	require.NoError(t, wf.Search(context.Background(), "tournesol"))
	assert.Equal(t, "u3", wf.User().ID)
}

func TestSearchUnknownUser(t *testing.T) {
	wf, _ := newWorkflow()

	err := wf.Search(context.Background(), "personne@nulle.part")
	assert.ErrorIs(t, err, apierror.ErrUserNotFound)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
	assert.Equal(t, StateIdle, wf.State())
	assert.Nil(t, wf.User())
}

func TestSearchEmptyTerm(t *testing.T) {
	wf, _ := newWorkflow()
	assert.ErrorIs(t, wf.Search(context.Background(), "   "), ErrEmptySearchTerm)
}

func TestUserWithoutWalletDisablesSubmit(t *testing.T) {
	wf, _ := newWorkflow()

	// у админа u1 нет кошелька: поиск не падает, но отправка заблокирована
	require.NoError(t, wf.Search(context.Background(), "admin@studentpay.com"))
	assert.Equal(t, StateFoundNoWallet, wf.State())
	assert.Equal(t, "u1", wf.User().ID)
	assert.False(t, wf.CanSubmit())

	_, err := wf.Submit(context.Background(), decimal.NewFromInt(5000))
	assert.ErrorIs(t, err, ErrNoWalletLoaded)
}

func TestReloadWalletByRawID(t *testing.T) {
	wf, _ := newWorkflow()
	ctx := context.Background()

	require.NoError(t, wf.Search(ctx, "admin@studentpay.com"))
	require.False(t, wf.CanSubmit())

	// оператор вручную указывает кошелёк другого пользователя
	require.NoError(t, wf.ReloadWallet(ctx, "w_u3_01"))
	assert.Equal(t, StateFoundWithWallet, wf.State())
	require.True(t, wf.CanSubmit())
	assert.Equal(t, "w_u3_01", wf.Wallet().ID)

	// опечатка в id возвращает в состояние без кошелька
	require.NoError(t, wf.ReloadWallet(ctx, "w_oops"))
	assert.Equal(t, StateFoundNoWallet, wf.State())
	assert.False(t, wf.CanSubmit())
	assert.Equal(t, "w_oops", wf.WalletID())
}

func TestReloadWalletRequiresSelectedUser(t *testing.T) {
	wf, _ := newWorkflow()

	// без выбранного пользователя ручной ввод кошелька не открывает отправку
	err := wf.ReloadWallet(context.Background(), "w_u3_01")
	assert.ErrorIs(t, err, ErrNoUserSelected)
	assert.Equal(t, StateIdle, wf.State())
	assert.Nil(t, wf.Wallet())
	assert.False(t, wf.CanSubmit())
}

// observingStore фиксирует состояние сценария в момент обращения к хранилищу.
type observingStore struct {
	store.Store
	wf       *DepositWorkflow
	observed State
}

func (o *observingStore) ListUsers(ctx context.Context) ([]models.User, error) {
	o.observed = o.wf.State()
	return o.Store.ListUsers(ctx)
}

func TestSearchPassesThroughSearchingState(t *testing.T) {
	st := memory.New(logger.NewNop(), 0)
	obs := &observingStore{Store: st}
	wf := NewDepositWorkflow(obs, logger.NewNop())
	obs.wf = wf

	require.NoError(t, wf.Search(context.Background(), "jean@univ.mg"))
	assert.Equal(t, StateSearching, obs.observed)
	assert.Equal(t, StateFoundWithWallet, wf.State())
}

func TestSubmitBelowMinimum(t *testing.T) {
	wf, _ := newWorkflow()
	ctx := context.Background()

	require.NoError(t, wf.Search(ctx, "jean@univ.mg"))

	_, err := wf.Submit(ctx, decimal.NewFromInt(99))
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)
	// состояние не тронуто, оператор может поправить сумму
	assert.Equal(t, StateFoundWithWallet, wf.State())
}

func TestSubmitDepositResetsAndNotifies(t *testing.T) {
	wf, st := newWorkflow()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	wf.now = func() time.Time { return now }

	require.NoError(t, wf.Search(ctx, "jean@univ.mg"))

	tx, err := wf.Submit(ctx, decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionDeposit, tx.Type)
	assert.Equal(t, "w_u2_01", tx.DestinationWalletID)
	assert.Equal(t, "Dépôt Admin/Guichet", tx.Description)

	// всё состояние сценария сброшено
	assert.Equal(t, StateIdle, wf.State())
	assert.Nil(t, wf.User())
	assert.Nil(t, wf.Wallet())
	assert.Empty(t, wf.WalletID())

	// уведомление живёт ровно 3 секунды
	assert.Equal(t, "Dépôt de 5000 Ar effectué !", wf.SuccessNotice())
	now = now.Add(2 * time.Second)
	assert.NotEmpty(t, wf.SuccessNotice())
	now = now.Add(2 * time.Second)
	assert.Empty(t, wf.SuccessNotice())

	wallet, err := st.WalletByUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(20000)))
}

type failingStore struct {
	store.Store
}

func (failingStore) CreateTransaction(context.Context, models.Transaction) (*models.Transaction, error) {
	return nil, errors.New("backend exploded")
}

func TestSubmitFailureKeepsState(t *testing.T) {
	st := memory.New(logger.NewNop(), 0)
	wf := NewDepositWorkflow(failingStore{st}, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, wf.Search(ctx, "jean@univ.mg"))

	_, err := wf.Submit(ctx, decimal.NewFromInt(5000))
	require.Error(t, err)

	// оператор может повторить без нового поиска
	assert.Equal(t, StateFoundWithWallet, wf.State())
	assert.Equal(t, "u2", wf.User().ID)
	assert.True(t, wf.CanSubmit())
	assert.Empty(t, wf.SuccessNotice())
}

func TestCancelDiscardsEverything(t *testing.T) {
	wf, _ := newWorkflow()
	ctx := context.Background()

	require.NoError(t, wf.Search(ctx, "jean@univ.mg"))
	require.True(t, wf.CanSubmit())

	wf.Cancel()
	assert.Equal(t, StateIdle, wf.State())
	assert.Nil(t, wf.User())
	assert.Nil(t, wf.Wallet())
	assert.Empty(t, wf.WalletID())
	assert.False(t, wf.CanSubmit())
}

func TestLoginGuidanceByKind(t *testing.T) {
	assert.Equal(t, FailureNetwork, ClassifyLoginError(apierror.NetworkUnreachable("http://x", errors.New("refused"))))
	assert.Equal(t, FailureUnauthorized, ClassifyLoginError(apierror.ErrInvalidCredentials))
	assert.Equal(t, FailureUnauthorized, ClassifyLoginError(apierror.FromStatus(401, "no")))
	assert.Equal(t, FailureNotFound, ClassifyLoginError(apierror.FromStatus(404, "gone")))
	assert.Equal(t, FailureGeneric, ClassifyLoginError(errors.New("weird")))

	assert.NotEmpty(t, LoginGuidance(apierror.ErrInvalidCredentials))
}
