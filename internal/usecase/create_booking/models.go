package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	ClientID         int64                   // ID клиента
	ProviderID       int64                   // ID провайдера (диетолога)
	Date             time.Time               // Дата консультации (без времени)
	StartTime        types.TimeString        // Время начала слота (например, "10:00")
	ConsultationType domain.ConsultationType // online / in_person
	Amount           float64                 // Сумма оплаты
	PaymentRef       string                  // Ключ идемпотентности из оплаты
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking  *domain.Booking
	Replayed bool // повторный запрос с той же платежной ссылкой

	// Использование тарифа после создания; не заполняется при повторе
	Tier  domain.Tier
	Used  int
	Limit int
}
