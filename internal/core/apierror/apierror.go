package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует отказ так, чтобы вызывающий код переключался по
// виду ошибки, а не по подстрокам сообщения.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetworkUnreachable - транспортный сбой: DNS, соединение, таймаут
	KindNetworkUnreachable
	// KindUnauthorized - отказ в доступе: 401/403 либо неверные учётные данные
	KindUnauthorized
	// KindNotFound - ресурс отсутствует: 404 либо доменное "не найдено"
	KindNotFound
	// KindServer - достижимый бэкенд ответил другим не-2xx статусом
	KindServer
	// KindDomain - нарушение доменного правила, не привязанное к статусу
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindDomain:
		return "domain"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Status  int    // только для KindServer/KindUnauthorized/KindNotFound c HTTP-источником
	Message string // текст для оператора
	Err     error  // исходная причина
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по виду, чтобы errors.Is(err, ErrWalletNotFound) срабатывал
// и для ошибок того же вида, пришедших с другим текстом.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return t.Kind == e.Kind
}

// Доменные ошибки, общие для mock-хранилища и заглушки бэкенда.
var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "identifiants incorrects"}
	ErrWalletNotFound     = &Error{Kind: KindNotFound, Message: "wallet introuvable"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "utilisateur introuvable"}
	ErrInvalidAmount      = &Error{Kind: KindDomain, Message: "montant invalide"}
)

// NetworkUnreachable оборачивает транспортный сбой запроса к url.
func NetworkUnreachable(url string, cause error) *Error {
	return &Error{
		Kind:    KindNetworkUnreachable,
		Message: fmt.Sprintf("backend unreachable at %s", url),
		Err:     cause,
	}
}

// FromStatus превращает не-2xx ответ достижимого бэкенда в ошибку
// соответствующего вида, сохраняя статус и текст тела.
func FromStatus(status int, body string) *Error {
	kind := KindServer
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Status: status, Message: body}
}

// Domain создаёт доменную ошибку с произвольным сообщением.
func Domain(msg string) *Error {
	return &Error{Kind: KindDomain, Message: msg}
}

// KindOf возвращает вид ошибки или KindUnknown, если ошибка не из этого пакета.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf возвращает HTTP-статус для ответа заглушки бэкенда.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindDomain:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
