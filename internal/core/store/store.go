package store

import (
	"context"

	"github.com/studentpay/backoffice/internal/core/models"
)

// Store - логический контракт бэкенда. Ему удовлетворяют in-memory
// mock-хранилище, postgres-хранилище заглушки и сам HTTP-клиент, поэтому
// вышестоящий код не различает, кто его обслужил.
//
// Политика снисходительности зафиксирована по операциям и намеренно
// асимметрична:
//   - UpdateUser/UpdateWallet по отсутствующему id возвращают (nil, nil);
//   - DeleteUser/DeleteWallet идемпотентны, повторное удаление не ошибка;
//   - WalletByUser по пользователю без кошелька возвращает
//     apierror.ErrWalletNotFound - презентация опирается на эту ошибку,
//     чтобы показать состояние "нет кошелька".
type Store interface {
	Login(ctx context.Context, email, password string) (*models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListWallets(ctx context.Context) ([]models.Wallet, error)
	WalletByUser(ctx context.Context, userID string) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet models.Wallet) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, id string, wallet models.Wallet) (*models.Wallet, error)
	DeleteWallet(ctx context.Context, id string) error

	// CreateTransaction для типа deposit зачисляет сумму на кошелёк-получатель
	// и добавляет запись одной атомарной операцией.
	CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error)
	TransactionsByWallet(ctx context.Context, walletID string) ([]models.Transaction, error)
}
