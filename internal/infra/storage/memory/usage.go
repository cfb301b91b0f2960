package memory

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	usageRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/usage"
)

// UsageRepository тарифы и счетчики в памяти
type UsageRepository struct {
	store *Store
}

func (r *UsageRepository) GetTier(ctx context.Context, clientID int64) (domain.Tier, error) {
	var tier domain.Tier
	err := r.store.locked(ctx, func(st *state) error {
		t, ok := st.tiers[clientID]
		if !ok {
			return usageRepo.ErrSubscriptionNotFound
		}
		tier = t
		return nil
	})
	return tier, err
}

func (r *UsageRepository) SetTier(ctx context.Context, clientID int64, tier domain.Tier) error {
	return r.store.locked(ctx, func(st *state) error {
		st.tiers[clientID] = tier
		return nil
	})
}

func (r *UsageRepository) GetCount(ctx context.Context, clientID int64, periodKey string) (int, error) {
	var count int
	err := r.store.locked(ctx, func(st *state) error {
		count = st.counters[usageKey{clientID, periodKey}]
		return nil
	})
	return count, err
}

func (r *UsageRepository) Increment(ctx context.Context, clientID int64, periodKey string) (int, error) {
	var count int
	err := r.store.locked(ctx, func(st *state) error {
		key := usageKey{clientID, periodKey}
		st.counters[key]++
		count = st.counters[key]
		return nil
	})
	return count, err
}

func (r *UsageRepository) Decrement(ctx context.Context, clientID int64, periodKey string) error {
	return r.store.locked(ctx, func(st *state) error {
		key := usageKey{clientID, periodKey}
		if st.counters[key] > 0 {
			st.counters[key]--
		}
		return nil
	})
}
