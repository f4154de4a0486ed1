package client

import (
	"errors"
	"strings"
)

// Kind — закрытая таксономия ошибок клиента. Любая ошибка, которую
// возвращают методы Client, либо *APIError с одним из этих Kind,
// либо обёртка над ним.
type Kind string

const (
	KindAuth          Kind = "AuthError"          // 401: нет/умерла сессия
	KindValidation    Kind = "ValidationError"    // 400: плохие параметры
	KindAuthorization Kind = "AuthorizationError" // 403: доступ есть, права нет
	KindNotFound      Kind = "NotFoundError"      // 404: нет либо скрыто
	KindNetwork       Kind = "NetworkError"       // транспорт/5xx/не-JSON
)

type APIError struct {
	Kind   Kind
	Status int    // HTTP-статус, 0 для сетевых ошибок
	Code   string // машинный код из тела {"error":{"code",...}}
	msg    string
	cause  error
}

func (e *APIError) Error() string {
	return string(e.Kind) + ": " + e.msg
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Trace разворачивает цепочку причин для логов
func (e *APIError) Trace() string {
	b := &strings.Builder{}
	b.WriteString(e.Error())
	err := errors.Unwrap(e)
	for err != nil {
		b.WriteString("\nCaused by: ")
		b.WriteString(err.Error())
		err = errors.Unwrap(err)
	}
	return b.String()
}

func (e *APIError) WithCause(c error) *APIError {
	e.cause = c
	return e
}

func errValidation(m string) *APIError { return &APIError{Kind: KindValidation, Status: 400, msg: m} }
func errNetwork(m string) *APIError    { return &APIError{Kind: KindNetwork, msg: m} }

// IsKind — проверка вида с учётом обёрток
func IsKind(err error, k Kind) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind == k
	}
	return false
}

func IsAuth(err error) bool       { return IsKind(err, KindAuth) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }

// kindForStatus маппит HTTP-статус сервера в вид ошибки
func kindForStatus(status int) Kind {
	switch status {
	case 401:
		return KindAuth
	case 400, 405, 409:
		return KindValidation
	case 403:
		return KindAuthorization
	case 404, 410:
		return KindNotFound
	default:
		return KindNetwork
	}
}
