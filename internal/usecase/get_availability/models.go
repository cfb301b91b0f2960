package get_availability

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Request модель запроса сетки слотов
type Request struct {
	ClientID   int64     // клиент, для которого размечаются конфликты
	ProviderID int64     // ID провайдера
	Date       time.Time // Дата (без времени)
}

// Response рекомендательное представление дня; итог решает только создание записи
type Response struct {
	Date            time.Time
	ProviderID      int64
	Schedule        *domain.ProviderSchedule
	CandidateSlots  []types.TimeString  // сетка без прошедших слотов
	ProviderBusy    []types.TimeString  // занятые у провайдера
	ClientConflicts []domain.ClientSlot // записи клиента на эту дату у любых провайдеров
	Slots           []domain.SlotView   // разметка каждого слота сетки
}
