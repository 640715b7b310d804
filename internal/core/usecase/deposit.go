package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studentpay/backoffice/internal/core/apierror"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/models"
	"github.com/studentpay/backoffice/internal/core/store"
)

// State - состояние сценария внесения наличных.
//
// StateSearching держится только на время обращения к хранилищу внутри
// Search: снаружи его видно лишь реентерабельно, из колбэков самого
// хранилища. Исходы "пользователь не найден" и "депозит завершён" не
// являются состояниями - первый возвращается ошибкой из Search, второй
// виден через SuccessNotice после сброса в StateIdle.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateFoundNoWallet
	StateFoundWithWallet
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateFoundNoWallet:
		return "found_no_wallet"
	case StateFoundWithWallet:
		return "found_with_wallet"
	default:
		return "idle"
	}
}

const depositDescription = "Dépôt Admin/Guichet"

// минимум задаётся кассовым интерфейсом: шаг купюр 100 в валюте кошелька
var minDepositAmount = decimal.NewFromInt(100)

// длительность показа уведомления об успехе
const successNoticeTTL = 3 * time.Second

// DepositWorkflow ведёт оператора по сценарию: поиск пользователя, подбор
// кошелька, ввод суммы, создание deposit-транзакции. Выделенного эндпоинта
// поиска у бэкенда нет, поэтому поиск - фильтрация полного списка.
//
// Экземпляр - сессия одного оператора; для конкурентного доступа не
// предназначен, при гонке действует last-write-wins, как в исходном UI.
type DepositWorkflow struct {
	store store.Store
	log   logger.Logger
	now   func() time.Time

	state          State
	user           *models.User
	wallet         *models.Wallet
	walletID       string
	successNotice  string
	successExpires time.Time
}

func NewDepositWorkflow(st store.Store, log logger.Logger) *DepositWorkflow {
	return &DepositWorkflow{store: st, log: log, now: time.Now}
}

func (w *DepositWorkflow) State() State { return w.state }

func (w *DepositWorkflow) User() *models.User { return w.user }

func (w *DepositWorkflow) Wallet() *models.Wallet { return w.wallet }

func (w *DepositWorkflow) WalletID() string { return w.walletID }

// CanSubmit сообщает, разрешена ли отправка депозита: без загруженного
// кошелька кнопка заблокирована.
func (w *DepositWorkflow) CanSubmit() bool {
	return w.wallet != nil
}

// SuccessNotice возвращает уведомление об успехе, пока не истёк его срок показа.
func (w *DepositWorkflow) SuccessNotice() string {
	if w.successNotice == "" || w.now().After(w.successExpires) {
		return ""
	}
	return w.successNotice
}

// Cancel возвращает сценарий в исходное состояние, отбрасывая весь ввод.
func (w *DepositWorkflow) Cancel() {
	w.state = StateIdle
	w.user = nil
	w.wallet = nil
	w.walletID = ""
	w.successNotice = ""
}

// Search находит пользователя по свободному тексту и подтягивает его кошелёк.
// Порядок совпадений: точный email, подстрока email, подстрока имени без
// учёта регистра; берётся первое совпадение. Отсутствие кошелька не роняет
// поиск - сценарий переходит в StateFoundNoWallet.
func (w *DepositWorkflow) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return ErrEmptySearchTerm
	}

	w.state = StateSearching
	w.user = nil
	w.wallet = nil
	w.walletID = ""

	users, err := w.store.ListUsers(ctx)
	if err != nil {
		w.state = StateIdle
		w.log.Error("user search failed", logger.ErrorField("error", err))
		return fmt.Errorf("search users: %w", err)
	}

	found := resolveUser(users, term)
	if found == nil {
		w.state = StateIdle
		return apierror.ErrUserNotFound
	}
	w.user = found

	wallet, err := w.store.WalletByUser(ctx, found.ID)
	if err != nil {
		w.state = StateFoundNoWallet
		w.log.Warn("user has no wallet",
			logger.StringField("user_id", found.ID),
			logger.ErrorField("error", err))
		return nil
	}

	w.wallet = wallet
	w.walletID = wallet.ID
	w.state = StateFoundWithWallet
	return nil
}

// resolveUser применяет порядок совпадений к полному списку.
func resolveUser(users []models.User, term string) *models.User {
	for i := range users {
		if users[i].Email == term {
			return &users[i]
		}
	}
	for i := range users {
		if strings.Contains(users[i].Email, term) {
			return &users[i]
		}
	}
	lower := strings.ToLower(term)
	for i := range users {
		if strings.Contains(strings.ToLower(users[i].Name), lower) {
			return &users[i]
		}
	}
	return nil
}

// ReloadWallet перечитывает кошелёк по id, введённому оператором вручную.
// Выделенного single-resource эндпоинта нет, поэтому ищем по полному списку.
func (w *DepositWorkflow) ReloadWallet(ctx context.Context, rawID string) error {
	// смена кошелька имеет смысл только внутри сценария с выбранным
	// пользователем, иначе депозит ушёл бы неизвестно кому
	if w.user == nil {
		return ErrNoUserSelected
	}

	rawID = strings.TrimSpace(rawID)
	w.walletID = rawID
	if rawID == "" {
		w.wallet = nil
		w.state = StateFoundNoWallet
		return nil
	}

	wallets, err := w.store.ListWallets(ctx)
	if err != nil {
		w.wallet = nil
		w.state = StateFoundNoWallet
		return fmt.Errorf("reload wallet: %w", err)
	}

	for i := range wallets {
		if wallets[i].ID == rawID {
			w.wallet = &wallets[i]
			w.state = StateFoundWithWallet
			return nil
		}
	}

	w.wallet = nil
	w.state = StateFoundNoWallet
	return nil
}

// Submit создаёт deposit-транзакцию на загруженный кошелёк. При успехе
// сценарий сбрасывается в Idle и взводится уведомление; при ошибке
// состояние сохраняется, оператор может повторить.
func (w *DepositWorkflow) Submit(ctx context.Context, amount decimal.Decimal) (*models.Transaction, error) {
	if w.wallet == nil {
		return nil, ErrNoWalletLoaded
	}
	if amount.LessThan(minDepositAmount) {
		return nil, ErrAmountBelowMinimum
	}

	currency := w.wallet.Currency
	tx, err := w.store.CreateTransaction(ctx, models.Transaction{
		Amount:              amount,
		Type:                models.TransactionDeposit,
		DestinationWalletID: w.wallet.ID,
		Description:         depositDescription,
	})
	if err != nil {
		w.log.Error("deposit failed",
			logger.StringField("wallet_id", w.wallet.ID),
			logger.StringField("amount", amount.String()),
			logger.ErrorField("error", err))
		return nil, fmt.Errorf("create deposit: %w", err)
	}

	w.log.Info("deposit completed",
		logger.StringField("wallet_id", tx.DestinationWalletID),
		logger.StringField("amount", amount.String()))

	// завершение: всё состояние сценария сбрасывается, остаётся только уведомление
	w.Cancel()
	w.successNotice = fmt.Sprintf("Dépôt de %s %s effectué !", amount.String(), currency)
	w.successExpires = w.now().Add(successNoticeTTL)
	return tx, nil
}

// LoginFailure - классификация отказа входа для подсказки оператору.
type LoginFailure int

const (
	FailureGeneric LoginFailure = iota
	FailureNetwork
	FailureUnauthorized
	FailureNotFound
)

// ClassifyLoginError переключается по виду ошибки, а не по подстрокам текста.
func ClassifyLoginError(err error) LoginFailure {
	switch apierror.KindOf(err) {
	case apierror.KindNetworkUnreachable:
		return FailureNetwork
	case apierror.KindUnauthorized:
		return FailureUnauthorized
	case apierror.KindNotFound:
		return FailureNotFound
	default:
		return FailureGeneric
	}
}

// LoginGuidance возвращает текст подсказки для экрана входа.
func LoginGuidance(err error) string {
	switch ClassifyLoginError(err) {
	case FailureNetwork:
		return "Serveur inaccessible. Vérifiez la connexion ou utilisez le mode démo."
	case FailureUnauthorized:
		return "Identifiants incorrects."
	case FailureNotFound:
		return "Service d'authentification introuvable."
	default:
		return "Échec de la connexion. Réessayez."
	}
}
