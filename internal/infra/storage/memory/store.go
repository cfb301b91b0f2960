// Package memory is an in-process storage driver with the same contracts and
// uniqueness guarantees as the postgres repositories. Transactions are
// serialized by a single mutex and rolled back from a snapshot on error.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

type txKey struct{}

type usageKey struct {
	clientID  int64
	periodKey string
}

type state struct {
	bookings  map[int64]domain.Booking
	nextID    int64
	schedules map[int64]domain.ProviderSchedule
	tiers     map[int64]domain.Tier
	counters  map[usageKey]int
}

func (s *state) clone() *state {
	c := &state{
		bookings:  make(map[int64]domain.Booking, len(s.bookings)),
		nextID:    s.nextID,
		schedules: make(map[int64]domain.ProviderSchedule, len(s.schedules)),
		tiers:     make(map[int64]domain.Tier, len(s.tiers)),
		counters:  make(map[usageKey]int, len(s.counters)),
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.schedules {
		c.schedules[k] = v
	}
	for k, v := range s.tiers {
		c.tiers[k] = v
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

// Store хранилище в памяти
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		state: &state{
			bookings:  make(map[int64]domain.Booking),
			schedules: make(map[int64]domain.ProviderSchedule),
			tiers:     make(map[int64]domain.Tier),
			counters:  make(map[usageKey]int),
		},
		now: time.Now,
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// locked runs fn under the store mutex unless ctx already holds it
func (s *Store) locked(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Bookings репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Usage репозиторий тарифов и счетчиков
func (s *Store) Usage() *UsageRepository {
	return &UsageRepository{store: s}
}

// Schedules репозиторий переопределений расписания
func (s *Store) Schedules() *ScheduleRepository {
	return &ScheduleRepository{store: s}
}

// TxManager менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

// TxManager выполняет функции атомарно относительно других транзакций хранилища
type TxManager struct {
	store *Store
}

// Do выполняет fn в транзакции
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoSerializable выполняет fn в транзакции. Транзакции и так выполняются по очереди.
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}
