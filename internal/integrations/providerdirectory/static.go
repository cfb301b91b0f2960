package providerdirectory

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Static справочник из конфигурации, для локального запуска без внешнего сервиса
type Static struct {
	providers map[int64]domain.Provider
}

// NewStatic создает справочник из списка провайдеров
func NewStatic(providers []domain.Provider) *Static {
	m := make(map[int64]domain.Provider, len(providers))
	for _, p := range providers {
		m[p.ID] = p
	}
	return &Static{providers: m}
}

func (s *Static) GetProvider(_ context.Context, providerID int64) (*domain.Provider, error) {
	p, ok := s.providers[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return &p, nil
}
