package usage

import "errors"

var (
	// ErrSubscriptionNotFound у клиента нет записи о тарифе
	ErrSubscriptionNotFound = errors.New("usage.repository: subscription not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("usage.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("usage.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("usage.repository: failed to scan row")
)
