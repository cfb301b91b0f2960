package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrStatusChanged запись отсутствует или уже не в ожидаемом статусе
	ErrStatusChanged = errors.New("booking.repository: booking status changed concurrently")

	// ErrSlotTaken провайдер уже занят в этот слот (уникальный индекс)
	ErrSlotTaken = errors.New("booking.repository: provider slot already taken")

	// ErrClientSlotTaken у клиента уже есть активная запись на это время
	ErrClientSlotTaken = errors.New("booking.repository: client already booked at this time")

	// ErrDuplicatePaymentRef платежная ссылка уже использована
	ErrDuplicatePaymentRef = errors.New("booking.repository: duplicate payment reference")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
