package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/scheduling"
	scheduleService "github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var tracer = otel.Tracer("consultation/get_availability")

// UseCase use case для получения сетки слотов провайдера на дату
type UseCase struct {
	index        AvailabilityIndex
	schedules    ScheduleResolver
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(index AvailabilityIndex, schedules ScheduleResolver, location *time.Location, logger Logger) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		index:        index,
		schedules:    schedules,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения сетки.
// Чтения не блокируют и выполняются параллельно.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "GetAvailability.Execute")
	defer span.End()

	resp, err := uc.execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("slots.count", len(resp.Slots)))
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetAvailability: client=%d, provider=%d, date=%s",
		req.ClientID, req.ProviderID, req.Date.Format(domain.DateFormat))

	// 2. Провайдер и его сетка
	_, schedule, err := uc.schedules.Resolve(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, scheduleService.ErrProviderNotFound) {
			uc.logger.Warn("GetAvailability: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailability: failed to resolve provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to resolve provider: %w", ErrInternal, err)
	}

	now := uc.timeProvider.Now().In(uc.location)
	y, m, d := req.Date.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// 3. Сетка слотов
	candidates, err := scheduling.GenerateSlots(schedule, date, now)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to generate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to generate slots: %w", ErrInternal, err)
	}

	// 4. Занятость провайдера и клиента параллельно
	var (
		busy        []types.TimeString
		clientSlots []domain.ClientSlot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		busy, err = uc.index.BookedSlotsForProvider(gctx, req.ProviderID, date)
		return err
	})
	g.Go(func() error {
		var err error
		clientSlots, err = uc.index.BookedSlotsForClient(gctx, req.ClientID, date)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Error("GetAvailability: failed to read availability index: %v", err)
		return nil, fmt.Errorf("%w: failed to read availability: %w", ErrInternal, err)
	}

	// 5. Разметка
	slots := scheduling.ResolveDay(req.ClientID, req.ProviderID, candidates, busy, clientSlots)

	uc.logger.Info("GetAvailability: provider=%d date=%s: %d candidates, %d busy, %d client bookings",
		req.ProviderID, date.Format(domain.DateFormat), len(candidates), len(busy), len(clientSlots))

	return &Response{
		Date:            date,
		ProviderID:      req.ProviderID,
		Schedule:        schedule,
		CandidateSlots:  candidates,
		ProviderBusy:    nonNil(busy),
		ClientConflicts: nonNilSlots(clientSlots),
		Slots:           slots,
	}, nil
}

func nonNil(s []types.TimeString) []types.TimeString {
	if s == nil {
		return []types.TimeString{}
	}
	return s
}

func nonNilSlots(s []domain.ClientSlot) []domain.ClientSlot {
	if s == nil {
		return []domain.ClientSlot{}
	}
	return s
}
