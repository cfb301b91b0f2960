package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

// SQLSTATE коды, которые сервис обрабатывает явно
const (
	CodeUniqueViolation      pq.ErrorCode = "23505"
	CodeSerializationFailure pq.ErrorCode = "40001"
	CodeDeadlockDetected     pq.ErrorCode = "40P01"
)

// UniqueViolation возвращает имя нарушенного ограничения
func UniqueViolation(err error) (constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == CodeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsRetryable true для ошибок сериализации и дедлоков: транзакцию можно повторить целиком
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == CodeSerializationFailure || pqErr.Code == CodeDeadlockDetected
}
