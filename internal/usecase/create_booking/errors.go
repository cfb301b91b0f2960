package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var (
	// ErrSlotUnavailable общий признак недоступного слота, конкретика в *SlotUnavailableError
	ErrSlotUnavailable = errors.New("create_booking: slot is unavailable")

	// ErrAlreadyBookedBySelf клиент уже записан к этому провайдеру на это время
	ErrAlreadyBookedBySelf = errors.New("create_booking: slot already booked by this client")

	// ErrConflictsWithOtherProvider у клиента на это время запись к другому провайдеру
	ErrConflictsWithOtherProvider = errors.New("create_booking: client has a booking with another provider at this time")

	// ErrTakenByOthers слот занят другим клиентом
	ErrTakenByOthers = errors.New("create_booking: slot is taken")

	// ErrQuotaExceeded исчерпан лимит записей тарифа в текущем периоде
	ErrQuotaExceeded = errors.New("create_booking: booking quota exceeded")

	// ErrAdvanceWindowExceeded дата дальше, чем разрешает тариф
	ErrAdvanceWindowExceeded = errors.New("create_booking: date is beyond the plan's advance window")

	// ErrInvalidSlot время не на сетке провайдера или уже прошло
	ErrInvalidSlot = errors.New("create_booking: invalid slot")

	// ErrPaymentRefConflict платежная ссылка принадлежит другому клиенту
	ErrPaymentRefConflict = errors.New("create_booking: payment reference belongs to another booking")

	// ErrProviderNotFound провайдер не найден или неактивен
	ErrProviderNotFound = errors.New("create_booking: provider not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)

// SlotUnavailableError слот нельзя занять; Outcome объясняет почему
type SlotUnavailableError struct {
	Outcome                 domain.ConflictOutcome
	Time                    types.TimeString
	ConflictingProviderID   *int64
	ConflictingProviderName *string
}

func (e *SlotUnavailableError) Error() string {
	if e.ConflictingProviderName != nil {
		return fmt.Sprintf("%v: %s at %s with %s", ErrSlotUnavailable, e.Outcome, e.Time, *e.ConflictingProviderName)
	}
	return fmt.Sprintf("%v: %s at %s", ErrSlotUnavailable, e.Outcome, e.Time)
}

// Is сопоставляет ошибку с ErrSlotUnavailable и с sentinel конкретного исхода
func (e *SlotUnavailableError) Is(target error) bool {
	if target == ErrSlotUnavailable {
		return true
	}
	return target == e.kind()
}

func (e *SlotUnavailableError) kind() error {
	switch e.Outcome {
	case domain.OutcomeAlreadyBookedBySelf:
		return ErrAlreadyBookedBySelf
	case domain.OutcomeConflictsWithOtherProvider:
		return ErrConflictsWithOtherProvider
	default:
		return ErrTakenByOthers
	}
}

// QuotaError тариф не позволяет создать запись
type QuotaError struct {
	Reason         error // ErrQuotaExceeded или ErrAdvanceWindowExceeded
	Tier           domain.Tier
	Used           int
	Limit          int
	MaxAdvanceDays int
}

func (e *QuotaError) Error() string {
	if e.Reason == ErrAdvanceWindowExceeded {
		return fmt.Sprintf("%v: tier %s allows %d days ahead", e.Reason, e.Tier, e.MaxAdvanceDays)
	}
	return fmt.Sprintf("%v: tier %s used %d of %d", e.Reason, e.Tier, e.Used, e.Limit)
}

func (e *QuotaError) Is(target error) bool {
	return target == e.Reason
}
