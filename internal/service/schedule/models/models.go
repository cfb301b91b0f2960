package models

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// UpdateScheduleRequest запрос на изменение сетки слотов
// Все поля опциональны - обновляются только переданные значения
type UpdateScheduleRequest struct {
	UserID           int64             `json:"-"`
	OpenTime         *types.TimeString `json:"openTime,omitempty"`
	CloseTime        *types.TimeString `json:"closeTime,omitempty"`
	SlotStepMinutes  *int              `json:"slotStepMinutes,omitempty"`
	MinNoticeMinutes *int              `json:"minNoticeMinutes,omitempty"`
}

// ApplyTo применяет обновления к расписанию
func (r *UpdateScheduleRequest) ApplyTo(s *domain.ProviderSchedule) {
	if r.OpenTime != nil {
		s.OpenTime = *r.OpenTime
	}
	if r.CloseTime != nil {
		s.CloseTime = *r.CloseTime
	}
	if r.SlotStepMinutes != nil {
		s.SlotStepMinutes = *r.SlotStepMinutes
	}
	if r.MinNoticeMinutes != nil {
		s.MinNoticeMinutes = *r.MinNoticeMinutes
	}
}

// ScheduleResponse действующая сетка слотов провайдера
type ScheduleResponse struct {
	ProviderID       int64            `json:"providerId"`
	OpenTime         types.TimeString `json:"openTime"`
	CloseTime        types.TimeString `json:"closeTime"`
	SlotStepMinutes  int              `json:"slotStepMinutes"`
	MinNoticeMinutes int              `json:"minNoticeMinutes"`
	Source           string           `json:"source"`
	UpdatedAt        *time.Time       `json:"updatedAt,omitempty"`
}

// FromDomainSchedule конвертирует domain модель в DTO
func FromDomainSchedule(s *domain.ProviderSchedule) *ScheduleResponse {
	if s == nil {
		return nil
	}
	resp := &ScheduleResponse{
		ProviderID:       s.ProviderID,
		OpenTime:         s.OpenTime,
		CloseTime:        s.CloseTime,
		SlotStepMinutes:  s.SlotStepMinutes,
		MinNoticeMinutes: s.MinNoticeMinutes,
		Source:           string(s.Source),
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
