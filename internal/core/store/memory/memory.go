package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
)

// Store - изменяемый in-memory набор данных, подменяющий бэкенд в
// демо-режиме. Создаётся явно и передаётся по ссылке: никакого глобального
// singleton, жизненным циклом (seed, Reset) управляет вызывающий код.
//
// Все операции берут один мьютекс, поэтому read-modify-write депозита
// атомарен и при конкурентных вызовах.
type Store struct {
	mu      sync.Mutex
	latency time.Duration
	log     logger.Logger

	users        []models.User
	wallets      []models.Wallet
	transactions []models.Transaction
}

func New(log logger.Logger, latency time.Duration) *Store {
	s := &Store{log: log, latency: latency}
	s.seed()
	log.Info("mock store seeded", logger.Int64Field("latency_ms", latency.Milliseconds()))
	return s
}

// Reset возвращает набор данных к исходному seed. Для тестов.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed()
}

func (s *Store) seed() {
	s.users = []models.User{
		{ID: "u1", Name: "Admin System", Email: "admin@studentpay.com", Password: "1234", Role: "admin", Type: "admin", Address: "Localhost"},
		{ID: "u2", Name: "Jean Étudiant", Email: "jean@univ.mg", Role: "user", Type: "student", NationalID: "101202303", Address: "Campus U"},
		{ID: "u3", Name: "Professeur Tournesol", Email: "prof@univ.mg", Role: "user", Type: "teacher", NationalID: "505606707", Address: "Labo 4"},
	}
	s.wallets = []models.Wallet{
		{ID: "w_u2_01", UserID: "u2", Balance: decimal.NewFromInt(15000), Currency: "Ar"},
		{ID: "w_u3_01", UserID: "u3", Balance: decimal.NewFromInt(250000), Currency: "Ar"},
	}
	s.transactions = nil
}

// wait имитирует сетевую задержку, чтобы демо-режим вёл себя как настоящая сеть.
func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// newID выдаёт id, не пересекающийся ни с seed, ни с ранее выданными.
func newID(prefix string) string {
	return prefix + uuid.NewString()
}

func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		u := s.users[i]
		// пустой сохранённый пароль не принимает пустой введённый
		if u.Email == email && u.Password != "" && u.Password == password {
			out := u
			return &out, nil
		}
	}
	s.log.Warn("mock login rejected", logger.StringField("email", email))
	return nil, apierror.ErrInvalidCredentials
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = newID("u")
	s.users = append(s.users, user)
	s.log.Info("mock user created", logger.StringField("id", user.ID))
	out := user
	return &out, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, user models.User) (*models.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			mergeUser(&s.users[i], user)
			out := s.users[i]
			return &out, nil
		}
	}
	// отсутствующий id - пустой успех, не ошибка
	return nil, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Wallet, len(s.wallets))
	copy(out, s.wallets)
	return out, nil
}

func (s *Store) WalletByUser(ctx context.Context, userID string) (*models.Wallet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wallets {
		if s.wallets[i].UserID == userID {
			out := s.wallets[i]
			if owner := s.findUser(userID); owner != nil {
				u := *owner
				u.Password = ""
				out.User = &u
			}
			return &out, nil
		}
	}
	return nil, apierror.ErrWalletNotFound
}

func (s *Store) CreateWallet(ctx context.Context, wallet models.Wallet) (*models.Wallet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet.ID = newID("w_")
	wallet.User = nil
	s.wallets = append(s.wallets, wallet)
	s.log.Info("mock wallet created",
		logger.StringField("id", wallet.ID),
		logger.StringField("user_id", wallet.UserID))
	out := wallet
	return &out, nil
}

func (s *Store) UpdateWallet(ctx context.Context, id string, wallet models.Wallet) (*models.Wallet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wallets {
		if s.wallets[i].ID == id {
			mergeWallet(&s.wallets[i], wallet)
			out := s.wallets[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteWallet(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.wallets {
		if s.wallets[i].ID == id {
			s.wallets = append(s.wallets[:i], s.wallets[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// зачисление и запись транзакции - один шаг под мьютексом
	if tx.Type == models.TransactionDeposit {
		for i := range s.wallets {
			if s.wallets[i].ID == tx.DestinationWalletID {
				s.wallets[i].Balance = s.wallets[i].Balance.Add(tx.Amount)
				s.log.Info("mock deposit applied",
					logger.StringField("wallet_id", tx.DestinationWalletID),
					logger.StringField("amount", tx.Amount.String()),
					logger.StringField("balance", s.wallets[i].Balance.String()))
				break
			}
		}
	}

	tx.ID = newID("tx_")
	tx.CreatedAt = time.Now().UTC()
	s.transactions = append(s.transactions, tx)
	out := tx
	return &out, nil
}

func (s *Store) TransactionsByWallet(ctx context.Context, walletID string) ([]models.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if tx.SourceWalletID == walletID || tx.DestinationWalletID == walletID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) findUser(id string) *models.User {
	for i := range s.users {
		if s.users[i].ID == id {
			return &s.users[i]
		}
	}
	return nil
}

// mergeUser накладывает непустые поля частичного обновления поверх записи.
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
	if strings.TrimSpace(src.Currency) != "" {
		dst.Currency = src.Currency
	}
}

var _ store.Store = (*Store)(nil)
