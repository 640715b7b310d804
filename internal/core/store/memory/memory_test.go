package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store/memory"
)

func newStore() *memory.Store {
	return memory.New(logger.NewNop(), 0)
}

func TestSeedData(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	wallets, err := s.ListWallets(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "w_u2_01", wallets[0].ID)
	assert.True(t, wallets[0].Balance.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, "Ar", wallets[0].Currency)
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	seen := map[string]bool{}
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		seen[u.ID] = true
	}

	for i := 0; i < 50; i++ {
		created, err := s.CreateUser(ctx, models.User{Name: fmt.Sprintf("User %d", i)})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.False(t, seen[created.ID], "id %s collides", created.ID)
		seen[created.ID] = true
	}

	for i := 0; i < 50; i++ {
		created, err := s.CreateWallet(ctx, models.Wallet{UserID: "u2", Currency: "Ar"})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.False(t, seen[created.ID], "id %s collides", created.ID)
		seen[created.ID] = true
	}
}

func TestUpdateAbsentIDIsEmptySuccess(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	updated, err := s.UpdateUser(ctx, "no-such-id", models.User{Name: "X"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	wallet, err := s.UpdateWallet(ctx, "no-such-id", models.Wallet{Currency: "EUR"})
	require.NoError(t, err)
	assert.Nil(t, wallet)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	updated, err := s.UpdateUser(ctx, "u2", models.User{Address: "Campus B"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Campus B", updated.Address)
	assert.Equal(t, "Jean Étudiant", updated.Name)
	assert.Equal(t, "jean@univ.mg", updated.Email)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	require.NoError(t, s.DeleteUser(ctx, "u3"))
	require.NoError(t, s.DeleteUser(ctx, "u3"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, s.DeleteWallet(ctx, "w_u3_01"))
	require.NoError(t, s.DeleteWallet(ctx, "w_u3_01"))
}

func TestLoginExactMatch(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	user, err := s.Login(ctx, "admin@studentpay.com", "1234")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = s.Login(ctx, "admin@studentpay.com", "wrong")
	assert.ErrorIs(t, err, apierror.ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@studentpay.com", "1234")
	assert.ErrorIs(t, err, apierror.ErrInvalidCredentials)

	// у jean нет пароля: пустой ввод не должен проходить
	_, err = s.Login(ctx, "jean@univ.mg", "")
	assert.ErrorIs(t, err, apierror.ErrInvalidCredentials)
}

func TestWalletByUserAsymmetry(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	wallet, err := s.WalletByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "w_u2_01", wallet.ID)
	require.NotNil(t, wallet.User, "wallet is enriched with its owner for display")
	assert.Equal(t, "Jean Étudiant", wallet.User.Name)

	// в отличие от update/delete здесь именно ошибка - на ней держится
	// состояние "нет кошелька" в презентации
	_, err = s.WalletByUser(ctx, "u1")
	assert.ErrorIs(t, err, apierror.ErrWalletNotFound)
}

func TestDepositCreditsBalanceAtomically(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, models.Transaction{
		Amount:              decimal.NewFromInt(5000),
		Type:                models.TransactionDeposit,
		DestinationWalletID: "w_u2_01",
		Description:         "Dépôt Admin/Guichet",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())

	wallet, err := s.WalletByUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(20000)),
		"15000 + 5000 = 20000, got %s", wallet.Balance)

	txs, err := s.TransactionsByWallet(ctx, "w_u2_01")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionDeposit, txs[0].Type)
	assert.Equal(t, "w_u2_01", txs[0].DestinationWalletID)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(5000)))
}

func TestDepositToUnknownWalletStillRecordsTransaction(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, models.Transaction{
		Amount:              decimal.NewFromInt(500),
		Type:                models.TransactionDeposit,
		DestinationWalletID: "w_ghost",
	})
	require.NoError(t, err)

	txs, err := s.TransactionsByWallet(ctx, "w_ghost")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, tx.ID, txs[0].ID)
}

func TestConcurrentDeposits(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	const goroutines = 100
	amount := decimal.NewFromInt(100)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := s.CreateTransaction(ctx, models.Transaction{
				Amount:              amount,
				Type:                models.TransactionDeposit,
				DestinationWalletID: "w_u2_01",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	wallet, err := s.WalletByUser(ctx, "u2")
	require.NoError(t, err)
	want := decimal.NewFromInt(15000 + goroutines*100)
	assert.True(t, wallet.Balance.Equal(want), "want %s, got %s", want, wallet.Balance)
}

func TestResetRestoresSeed(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, models.User{Name: "Temp"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteWallet(ctx, "w_u2_01"))

	s.Reset()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	wallet, err := s.WalletByUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(15000)))
}
