package providerdirectory

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдера нет в справочнике
	ErrProviderNotFound = errors.New("provider not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("providerdirectory client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("providerdirectory client: invalid response")
)
