package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType определяет тип операции с кошельком
type TransactionType string

const (
	// TransactionDeposit - пополнение кошелька наличными, source отсутствует
	TransactionDeposit TransactionType = "deposit"
	// TransactionTransfer - перевод между кошельками
	TransactionTransfer TransactionType = "transfer"
	// TransactionPayment - оплата услуги с кошелька
	TransactionPayment TransactionType = "payment"
)

type Transaction struct {
	ID                  string          `json:"id" db:"id"`
	SourceWalletID      string          `json:"sourceWalletId,omitempty" db:"source_wallet_id"`
	DestinationWalletID string          `json:"destinationWalletId,omitempty" db:"destination_wallet_id"`
	Amount              decimal.Decimal `json:"amount" db:"amount"`
	Type                TransactionType `json:"type" db:"type"`
	CreatedAt           time.Time       `json:"createdAt" db:"created_at"`
	Description         string          `json:"description" db:"description"`
}
