package get_availability

import "errors"

var (
	// ErrProviderNotFound провайдер не найден или неактивен
	ErrProviderNotFound = errors.New("get_availability: provider not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
