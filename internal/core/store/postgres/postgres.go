package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
)

// Store - postgres-реализация контракта бэкенда для заглушки сервера.
// Политика снисходительности та же, что у in-memory хранилища.
type Store struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewStore(db *sqlx.DB, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	nom      TEXT NOT NULL DEFAULT '',
	email    TEXT NOT NULL DEFAULT '',
	passwd   TEXT NOT NULL DEFAULT '',
	role     TEXT NOT NULL DEFAULT '',
	type     TEXT NOT NULL DEFAULT '',
	adresse  TEXT NOT NULL DEFAULT '',
	num_cin  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS wallets (
	id       TEXT PRIMARY KEY,
	user_id  TEXT NOT NULL DEFAULT '',
	balance  NUMERIC NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
	id                    TEXT PRIMARY KEY,
	source_wallet_id      TEXT NOT NULL DEFAULT '',
	destination_wallet_id TEXT NOT NULL DEFAULT '',
	amount                NUMERIC NOT NULL DEFAULT 0,
	type                  TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	description           TEXT NOT NULL DEFAULT ''
);
`

// EnsureSchema создаёт таблицы, если их ещё нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	query := `SELECT id, nom, email, passwd, role, type, adresse, num_cin
		FROM users WHERE email = $1 AND passwd <> '' AND passwd = $2`
	err := s.db.GetContext(ctx, &user, query, email, password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT id, nom, email, passwd, role, type, adresse, num_cin FROM users ORDER BY id`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	user.ID = "u" + uuid.NewString()
	query := `INSERT INTO users (id, nom, email, passwd, role, type, adresse, num_cin)
		VALUES (:id, :nom, :email, :passwd, :role, :type, :adresse, :num_cin)`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", logger.StringField("id", user.ID))
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, user models.User) (*models.User, error) {
	var existing models.User
	query := `SELECT id, nom, email, passwd, role, type, adresse, num_cin FROM users WHERE id = $1`
	if err := s.db.GetContext(ctx, &existing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// отсутствующий id - пустой успех
			return nil, nil
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	mergeUser(&existing, user)

	update := `UPDATE users SET nom = :nom, email = :email, passwd = :passwd,
		role = :role, type = :type, adresse = :adresse, num_cin = :num_cin WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, update, existing); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &existing, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	wallets := []models.Wallet{}
	query := `SELECT id, user_id, balance, currency FROM wallets ORDER BY id`
	if err := s.db.SelectContext(ctx, &wallets, query); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

func (s *Store) WalletByUser(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `SELECT id, user_id, balance, currency FROM wallets WHERE user_id = $1 ORDER BY id LIMIT 1`
	err := s.db.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.ErrWalletNotFound
		}
		return nil, fmt.Errorf("wallet by user: %w", err)
	}

	// join для отображения, не сохраняется
	var owner models.User
	ownerQuery := `SELECT id, nom, email, '' AS passwd, role, type, adresse, num_cin FROM users WHERE id = $1`
	if err := s.db.GetContext(ctx, &owner, ownerQuery, userID); err == nil {
		wallet.User = &owner
	}

	return &wallet, nil
}

func (s *Store) CreateWallet(ctx context.Context, wallet models.Wallet) (*models.Wallet, error) {
	wallet.ID = "w_" + uuid.NewString()
	wallet.User = nil
	query := `INSERT INTO wallets (id, user_id, balance, currency)
		VALUES (:id, :user_id, :balance, :currency)`
	if _, err := s.db.NamedExecContext(ctx, query, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	s.log.Info("wallet created",
		logger.StringField("id", wallet.ID),
		logger.StringField("user_id", wallet.UserID))
	return &wallet, nil
}

func (s *Store) UpdateWallet(ctx context.Context, id string, wallet models.Wallet) (*models.Wallet, error) {
	var existing models.Wallet
	query := `SELECT id, user_id, balance, currency FROM wallets WHERE id = $1`
	if err := s.db.GetContext(ctx, &existing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update wallet: %w", err)
	}

	mergeWallet(&existing, wallet)

	update := `UPDATE wallets SET user_id = :user_id, balance = :balance, currency = :currency WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, update, existing); err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	return &existing, nil
}

func (s *Store) DeleteWallet(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// CreateTransaction выполняет зачисление и запись транзакции одной
// SQL-транзакцией. Инкремент balance = balance + $1 атомарен на уровне
// строки, поэтому конкурентные депозиты не теряются и без serializable.
func (s *Store) CreateTransaction(ctx context.Context, txRecord models.Transaction) (*models.Transaction, error) {
	var isCommitted bool
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.log.Error("error beginning transaction", logger.ErrorField("error", err))
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}

	defer func() {
		if err != nil && !isCommitted {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error("transaction rollback failed", logger.ErrorField("error", rbErr))
			} else {
				s.log.Warn("transaction rolled back due to error", logger.ErrorField("error", err))
			}
		}
	}()

	if txRecord.Type == models.TransactionDeposit && txRecord.DestinationWalletID != "" {
		// отсутствующий кошелёк не ошибка: транзакция всё равно записывается
		_, err = tx.ExecContext(ctx,
			`UPDATE wallets SET balance = balance + $1 WHERE id = $2`,
			txRecord.Amount, txRecord.DestinationWalletID)
		if err != nil {
			return nil, fmt.Errorf("apply deposit: %w", err)
		}
	}

	txRecord.ID = "tx_" + uuid.NewString()
	txRecord.CreatedAt = time.Now().UTC()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO transactions
		(id, source_wallet_id, destination_wallet_id, amount, type, created_at, description)
		VALUES (:id, :source_wallet_id, :destination_wallet_id, :amount, :type, :created_at, :description)`,
		txRecord)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		s.log.Error("error committing transaction", logger.ErrorField("error", err))
		return nil, fmt.Errorf("commit failed: %w", err)
	}

	isCommitted = true
	return &txRecord, nil
}

func (s *Store) TransactionsByWallet(ctx context.Context, walletID string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	query := `SELECT id, source_wallet_id, destination_wallet_id, amount, type, created_at, description
		FROM transactions
		WHERE source_wallet_id = $1 OR destination_wallet_id = $1
		ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &txs, query, walletID); err != nil {
		return nil, fmt.Errorf("transaction history: %w", err)
	}
	return txs, nil
}

func mergeUser(dst *models.User, src models.User) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Email != "" {
		dst.Email = src.Email
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.Type != "" {
		dst.Type = src.Type
	}
	if src.Address != "" {
		dst.Address = src.Address
	}
	if src.NationalID != "" {
		dst.NationalID = src.NationalID
	}
}

func mergeWallet(dst *models.Wallet, src models.Wallet) {
	if src.UserID != "" {
		dst.UserID = src.UserID
	}
	if !src.Balance.IsZero() {
		dst.Balance = src.Balance
	}
	if src.Currency != "" {
		dst.Currency = src.Currency
	}
}

var _ store.Store = (*Store)(nil)
