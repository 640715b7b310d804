package models

import (
	"github.com/shopspring/decimal"
)

// Контракт бэкенда сериализует деньги JSON-числами (balance: 15000),
// а не строками, как decimal делает по умолчанию.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Wallet представляет модель кошелька
type Wallet struct {
	ID       string          `json:"id" db:"id"`
	UserID   string          `json:"userId" db:"user_id"`
	Balance  decimal.Decimal `json:"balance" db:"balance"`
	Currency string          `json:"currency" db:"currency"` // свободная строка: "Ar", "EUR"

	// User подставляется при чтении для отображения; никогда не сохраняется.
	User *User `json:"user,omitempty" db:"-"`
}
