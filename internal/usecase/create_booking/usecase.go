package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	usageRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/usage"
	"github.com/m04kA/SMC-ConsultationService/internal/scheduling"
	scheduleService "github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	"github.com/m04kA/SMC-ConsultationService/pkg/pgerr"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var tracer = otel.Tracer("consultation/create_booking")

// Settings параметры тарифов и периода учета
type Settings struct {
	Catalog  domain.PlanCatalog
	Period   domain.QuotaPeriod
	Location *time.Location // часовой пояс, в котором считаются "сегодня" и период
}

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	usageRepo    UsageRepository
	schedules    ScheduleResolver
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      Metrics
	quotaGate    *scheduling.QuotaGate
	settings     Settings
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	usageRepo UsageRepository,
	schedules ScheduleResolver,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics Metrics,
	settings Settings,
	logger Logger,
) *UseCase {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if !settings.Period.IsValid() {
		settings.Period = domain.QuotaPeriodMonth
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		usageRepo:    usageRepo,
		schedules:    schedules,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		quotaGate:    scheduling.NewQuotaGate(),
		settings:     settings,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания бронирования.
// Проверка слота, квоты и вставка выполняются в одной сериализуемой транзакции.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "CreateBooking.Execute")
	defer span.End()

	resp, err := uc.execute(ctx, req)
	uc.metrics.ObserveBooking(outcomeOf(resp, err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("booking.id", resp.Booking.ID),
		attribute.Bool("booking.replayed", resp.Replayed),
	)
	return resp, nil
}

func (uc *UseCase) execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: client=%d, provider=%d, date=%s, time=%s, ref=%s",
		req.ClientID, req.ProviderID, req.Date.Format(domain.DateFormat), req.StartTime, req.PaymentRef)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("client.id", req.ClientID),
		attribute.Int64("provider.id", req.ProviderID),
		attribute.String("slot.date", req.Date.Format(domain.DateFormat)),
		attribute.String("slot.time", req.StartTime.String()),
	)

	// 2. Провайдер и его сетка
	provider, schedule, err := uc.schedules.Resolve(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, scheduleService.ErrProviderNotFound) {
			uc.logger.Warn("CreateBooking: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("CreateBooking: failed to resolve provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to resolve provider: %w", ErrInternal, err)
	}

	// 3. Текущее время в каноническом часовом поясе
	now := uc.timeProvider.Now().In(uc.settings.Location)
	date := civilDate(req.Date)
	periodKey := uc.settings.Period.PeriodKey(now)

	var resp *Response

	// 4. Все проверки и запись - в одной транзакции, повторяемой при сбое сериализации
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		resp = nil

		// 4.1. Повтор с той же платежной ссылкой возвращает существующую запись
		existing, err := uc.bookingRepo.GetByPaymentRef(txCtx, req.PaymentRef)
		if err != nil && !errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return fmt.Errorf("%w: failed to get booking by payment ref: %w", ErrInternal, err)
		}
		if existing != nil {
			replay, err := replayOf(existing, req)
			if err != nil {
				return err
			}
			resp = replay
			return nil
		}

		// 4.2. Слот на сетке и еще не прошел
		if !scheduling.IsOnGrid(schedule, req.StartTime) {
			return fmt.Errorf("%w: %s is not a slot start for %s-%s/%dmin",
				ErrInvalidSlot, req.StartTime, schedule.OpenTime, schedule.CloseTime, schedule.SlotStepMinutes)
		}
		if scheduling.IsElapsed(schedule, date, req.StartTime, now) {
			return fmt.Errorf("%w: %s %s is no longer bookable", ErrInvalidSlot, date.Format(domain.DateFormat), req.StartTime)
		}

		// 4.3. Конфликты на снимке с блокировкой
		if err := uc.checkConflict(txCtx, req, date); err != nil {
			return err
		}

		// 4.4. Квота тарифа
		quota, err := uc.evaluateQuota(txCtx, req.ClientID, periodKey, date, now)
		if err != nil {
			return err
		}

		// 4.5. Запись и инкремент счетчика
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			ClientID:         req.ClientID,
			ProviderID:       req.ProviderID,
			BookingDate:      date,
			StartTime:        req.StartTime,
			DurationMinutes:  schedule.SlotStepMinutes,
			ConsultationType: req.ConsultationType,
			Status:           domain.StatusPending,
			Amount:           req.Amount,
			PaymentRef:       req.PaymentRef,
			PeriodKey:        periodKey,
			ProviderName:     provider.Name,
		})
		if err != nil {
			if isStorageConflict(err) {
				return err
			}
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		used, err := uc.usageRepo.Increment(txCtx, req.ClientID, periodKey)
		if err != nil {
			return fmt.Errorf("%w: failed to increment usage: %w", ErrInternal, err)
		}

		resp = &Response{
			Booking: created,
			Tier:    quota.Tier,
			Used:    used,
			Limit:   quota.Limit,
		}
		return nil
	})

	if err != nil {
		return uc.handleTxError(ctx, req, date, err)
	}

	if resp.Replayed {
		uc.logger.Info("CreateBooking: replayed booking id=%d for ref=%s", resp.Booking.ID, req.PaymentRef)
		return resp, nil
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d (usage %d/%d)",
		resp.Booking.ID, resp.Used, resp.Limit)

	// 5. Событие после фиксации, ошибка публикации не отменяет запись
	if err := uc.publisher.Publish(ctx, events.NewBookingEvent(events.TypeBookingCreated, resp.Booking, now)); err != nil {
		uc.logger.Error("CreateBooking: failed to publish event for booking id=%d: %v", resp.Booking.ID, err)
	}

	return resp, nil
}

// checkConflict классифицирует слот на снимке занятости провайдера и клиента
func (uc *UseCase) checkConflict(ctx context.Context, req *Request, date time.Time) error {
	busy, err := uc.bookingRepo.BookedSlotsForProvider(ctx, req.ProviderID, date)
	if err != nil {
		return fmt.Errorf("%w: failed to get provider busy slots: %w", ErrInternal, err)
	}
	clientSlots, err := uc.bookingRepo.BookedSlotsForClient(ctx, req.ClientID, date)
	if err != nil {
		return fmt.Errorf("%w: failed to get client slots: %w", ErrInternal, err)
	}

	conflict := scheduling.ResolveConflict(scheduling.ConflictQuery{
		ClientID:   req.ClientID,
		ProviderID: req.ProviderID,
		StartTime:  req.StartTime,
	}, busy, clientSlots)
	if conflict.IsAvailable() {
		return nil
	}
	return slotError(conflict, req.StartTime)
}

// evaluateQuota читает тариф и счетчик текущего периода и применяет QuotaGate
func (uc *UseCase) evaluateQuota(ctx context.Context, clientID int64, periodKey string, date, now time.Time) (scheduling.QuotaResult, error) {
	tier, err := uc.usageRepo.GetTier(ctx, clientID)
	if errors.Is(err, usageRepo.ErrSubscriptionNotFound) {
		tier = domain.TierFree
	} else if err != nil {
		return scheduling.QuotaResult{}, fmt.Errorf("%w: failed to get tier: %w", ErrInternal, err)
	}

	used, err := uc.usageRepo.GetCount(ctx, clientID, periodKey)
	if err != nil {
		return scheduling.QuotaResult{}, fmt.Errorf("%w: failed to get usage: %w", ErrInternal, err)
	}

	plan := uc.settings.Catalog.Plan(tier)
	result := uc.quotaGate.Evaluate(plan, used, date, now)
	uc.metrics.ObserveQuotaDecision(string(plan.Tier), string(result.Decision))

	switch result.Decision {
	case scheduling.QuotaPermitted:
		return result, nil
	case scheduling.QuotaAdvanceWindowExceeded:
		return result, quotaError(ErrAdvanceWindowExceeded, result)
	default:
		return result, quotaError(ErrQuotaExceeded, result)
	}
}

// handleTxError переводит конфликты уникальных индексов в доменные ошибки
func (uc *UseCase) handleTxError(ctx context.Context, req *Request, date time.Time, err error) (*Response, error) {
	switch {
	case pgerr.IsRetryable(err):
		// Повторы исчерпаны: конкуренты за этот день провайдера зафиксировались раньше
		uc.logger.Warn("CreateBooking: serialization retries exhausted for provider=%d %s %s: %v",
			req.ProviderID, date.Format(domain.DateFormat), req.StartTime, err)
		return nil, uc.reclassifySlotRace(ctx, req, date)

	case errors.Is(err, bookingRepo.ErrSlotTaken), errors.Is(err, bookingRepo.ErrClientSlotTaken):
		uc.logger.Warn("CreateBooking: lost slot race for provider=%d %s %s", req.ProviderID, date.Format(domain.DateFormat), req.StartTime)
		return nil, uc.reclassifySlotRace(ctx, req, date)

	case errors.Is(err, bookingRepo.ErrDuplicatePaymentRef):
		uc.logger.Warn("CreateBooking: lost payment ref race for ref=%s", req.PaymentRef)
		existing, getErr := uc.bookingRepo.GetByPaymentRef(ctx, req.PaymentRef)
		if getErr != nil {
			if errors.Is(getErr, bookingRepo.ErrBookingNotFound) {
				return nil, ErrPaymentRefConflict
			}
			return nil, fmt.Errorf("%w: failed to re-read payment ref: %w", ErrInternal, getErr)
		}
		return replayOf(existing, req)

	case errors.Is(err, ErrInternal):
		uc.logger.Error("CreateBooking: %v", err)
		return nil, err

	case isExpected(err):
		uc.logger.Warn("CreateBooking: rejected: %v", err)
		return nil, err

	default:
		uc.logger.Error("CreateBooking: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: transaction failed: %w", ErrInternal, err)
	}
}

// reclassifySlotRace объясняет проигранную гонку по свежему снимку
func (uc *UseCase) reclassifySlotRace(ctx context.Context, req *Request, date time.Time) error {
	if err := uc.checkConflict(ctx, req, date); err != nil {
		var slotErr *SlotUnavailableError
		if errors.As(err, &slotErr) {
			return slotErr
		}
		uc.logger.Error("CreateBooking: failed to reclassify slot race: %v", err)
	}
	return &SlotUnavailableError{Outcome: domain.OutcomeTakenByOthers, Time: req.StartTime}
}

// replayOf возвращает существующую запись для той же платежной ссылки
func replayOf(existing *domain.Booking, req *Request) (*Response, error) {
	if existing.ClientID != req.ClientID || !existing.IsReplayable() {
		return nil, fmt.Errorf("%w: ref %s", ErrPaymentRefConflict, req.PaymentRef)
	}
	return &Response{Booking: existing, Replayed: true}, nil
}

func slotError(c scheduling.Conflict, t types.TimeString) *SlotUnavailableError {
	e := &SlotUnavailableError{Outcome: c.Outcome, Time: t}
	if c.With != nil && c.Outcome == domain.OutcomeConflictsWithOtherProvider {
		id, name := c.With.ProviderID, c.With.ProviderName
		e.ConflictingProviderID = &id
		e.ConflictingProviderName = &name
	}
	return e
}

func quotaError(reason error, r scheduling.QuotaResult) *QuotaError {
	return &QuotaError{
		Reason:         reason,
		Tier:           r.Tier,
		Used:           r.Used,
		Limit:          r.Limit,
		MaxAdvanceDays: r.MaxAdvanceDays,
	}
}

func isStorageConflict(err error) bool {
	return errors.Is(err, bookingRepo.ErrSlotTaken) ||
		errors.Is(err, bookingRepo.ErrClientSlotTaken) ||
		errors.Is(err, bookingRepo.ErrDuplicatePaymentRef)
}

func isExpected(err error) bool {
	return errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrAdvanceWindowExceeded) ||
		errors.Is(err, ErrInvalidSlot) ||
		errors.Is(err, ErrPaymentRefConflict)
}

// civilDate отбрасывает время и часовой пояс: дата хранится как полночь UTC
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// outcomeOf метка для метрики исходов
func outcomeOf(resp *Response, err error) string {
	if err == nil {
		if resp.Replayed {
			return "replayed"
		}
		return "created"
	}

	var slotErr *SlotUnavailableError
	switch {
	case errors.As(err, &slotErr):
		return string(slotErr.Outcome)
	case errors.Is(err, ErrQuotaExceeded):
		return string(scheduling.QuotaExceeded)
	case errors.Is(err, ErrAdvanceWindowExceeded):
		return string(scheduling.QuotaAdvanceWindowExceeded)
	case errors.Is(err, ErrPaymentRefConflict):
		return "payment_ref_conflict"
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrProviderNotFound):
		return "invalid"
	default:
		return "error"
	}
}
