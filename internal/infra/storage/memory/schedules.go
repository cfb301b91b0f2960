package memory

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/schedule"
)

// ScheduleRepository переопределения расписаний в памяти
type ScheduleRepository struct {
	store *Store
}

func (r *ScheduleRepository) GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error) {
	var out *domain.ProviderSchedule
	err := r.store.locked(ctx, func(st *state) error {
		s, ok := st.schedules[providerID]
		if !ok {
			return scheduleRepo.ErrScheduleNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *ScheduleRepository) Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	err := r.store.locked(ctx, func(st *state) error {
		now := r.store.now()
		if existing, ok := st.schedules[s.ProviderID]; ok {
			s.CreatedAt = existing.CreatedAt
		} else {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		s.Source = domain.ScheduleSourceOverride
		st.schedules[s.ProviderID] = *s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, providerID int64) error {
	return r.store.locked(ctx, func(st *state) error {
		if _, ok := st.schedules[providerID]; !ok {
			return scheduleRepo.ErrScheduleNotFound
		}
		delete(st.schedules, providerID)
		return nil
	})
}
