package schedule

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден или неактивен
	ErrProviderNotFound = errors.New("provider not found")

	// ErrScheduleNotFound возвращается, когда у провайдера нет локального расписания
	ErrScheduleNotFound = errors.New("schedule override not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule service: internal error")
)
