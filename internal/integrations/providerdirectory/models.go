package providerdirectory

import (
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Provider модель провайдера из справочника
type Provider struct {
	ID           int64         `json:"id"`
	UserID       int64         `json:"userId"`
	Name         string        `json:"name"`
	SessionFee   float64       `json:"sessionFee"`
	IsActive     bool          `json:"isActive"`
	WorkingHours *WorkingHours `json:"workingHours,omitempty"`
}

// WorkingHours часы приема, "HH:MM"
type WorkingHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ToDomain конвертирует ответ справочника в доменную модель
// Некорректные часы приема игнорируются: расписание берется по умолчанию
func (p *Provider) ToDomain() *domain.Provider {
	out := &domain.Provider{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       p.Name,
		SessionFee: p.SessionFee,
		IsActive:   p.IsActive,
	}
	if p.WorkingHours == nil {
		return out
	}
	open, errOpen := types.NewTimeStringFromString(p.WorkingHours.Open)
	closing, errClose := types.NewTimeStringFromString(p.WorkingHours.Close)
	if errOpen == nil && errClose == nil {
		out.OpenTime = &open
		out.CloseTime = &closing
	}
	return out
}

func fromDomain(p *domain.Provider) *Provider {
	out := &Provider{
		ID:         p.ID,
		UserID:     p.UserID,
		Name:       p.Name,
		SessionFee: p.SessionFee,
		IsActive:   p.IsActive,
	}
	if p.OpenTime != nil && p.CloseTime != nil {
		out.WorkingHours = &WorkingHours{Open: p.OpenTime.String(), Close: p.CloseTime.String()}
	}
	return out
}
