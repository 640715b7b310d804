package usecase

import "errors"

// Определение ошибок сценария; "пользователь не найден" приходит
// из apierror.ErrUserNotFound, общего с хранилищами.
var (
	ErrEmptySearchTerm    = errors.New("search term is empty")
	ErrNoUserSelected     = errors.New("aucun utilisateur sélectionné")
	ErrNoWalletLoaded     = errors.New("aucun wallet chargé")
	ErrAmountBelowMinimum = errors.New("montant inférieur au minimum")
)
