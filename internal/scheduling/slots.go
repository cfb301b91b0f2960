package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var (
	// ErrInvalidSchedule returned for a schedule that cannot produce a grid
	ErrInvalidSchedule = errors.New("scheduling: invalid schedule")
)

// GenerateSlots returns the ordered slot grid of a provider for date.
// now must already be in the provider's canonical location.
// Slots start at OpenTime and advance by SlotStepMinutes while start+step <= CloseTime.
// For today every slot whose start minute is <= now minute + MinNoticeMinutes is dropped.
// A date before today yields an empty grid.
func GenerateSlots(schedule *domain.ProviderSchedule, date time.Time, now time.Time) ([]types.TimeString, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	if isDateInPast(date, now) {
		return []types.TimeString{}, nil
	}

	open := schedule.OpenTime.Minutes()
	closing := schedule.CloseTime.Minutes()
	step := schedule.SlotStepMinutes

	// Для сегодняшней даты отсекаем все, что не позже текущей минуты (+ notice)
	cutoff := -1
	if isSameDay(date, now) {
		cutoff = now.Hour()*60 + now.Minute() + schedule.MinNoticeMinutes
	}

	slots := make([]types.TimeString, 0, (closing-open)/step)
	for start := open; start+step <= closing; start += step {
		if start <= cutoff {
			continue
		}
		slot, err := types.NewTimeStringFromMinutes(start)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

// IsOnGrid reports whether t is a slot start of the schedule, ignoring "now"
func IsOnGrid(schedule *domain.ProviderSchedule, t types.TimeString) bool {
	if ValidateSchedule(schedule) != nil {
		return false
	}
	m := t.Minutes()
	if m < 0 {
		return false
	}
	open := schedule.OpenTime.Minutes()
	if m < open || m+schedule.SlotStepMinutes > schedule.CloseTime.Minutes() {
		return false
	}
	return (m-open)%schedule.SlotStepMinutes == 0
}

// IsElapsed reports whether a slot on date is no longer offered at now
func IsElapsed(schedule *domain.ProviderSchedule, date time.Time, t types.TimeString, now time.Time) bool {
	if isDateInPast(date, now) {
		return true
	}
	if !isSameDay(date, now) {
		return false
	}
	return t.Minutes() <= now.Hour()*60+now.Minute()+schedule.MinNoticeMinutes
}

// DayPartOf buckets a slot for presentation
func DayPartOf(t types.TimeString) domain.DayPart {
	switch h := t.Hour(); {
	case h < 12:
		return domain.DayPartMorning
	case h < 17:
		return domain.DayPartAfternoon
	default:
		return domain.DayPartEvening
	}
}

// ValidateSchedule checks the grid parameters
func ValidateSchedule(schedule *domain.ProviderSchedule) error {
	if schedule == nil {
		return fmt.Errorf("%w: schedule is nil", ErrInvalidSchedule)
	}
	if err := schedule.OpenTime.Validate(); err != nil {
		return fmt.Errorf("%w: open time: %v", ErrInvalidSchedule, err)
	}
	if err := schedule.CloseTime.Validate(); err != nil {
		return fmt.Errorf("%w: close time: %v", ErrInvalidSchedule, err)
	}
	if !schedule.OpenTime.IsBefore(schedule.CloseTime) {
		return fmt.Errorf("%w: open time %s must be before close time %s", ErrInvalidSchedule, schedule.OpenTime, schedule.CloseTime)
	}
	if schedule.SlotStepMinutes < domain.MinSlotStepMinutes || schedule.SlotStepMinutes > domain.MaxSlotStepMinutes {
		return fmt.Errorf("%w: slot step %d out of range [%d, %d]", ErrInvalidSchedule,
			schedule.SlotStepMinutes, domain.MinSlotStepMinutes, domain.MaxSlotStepMinutes)
	}
	if schedule.MinNoticeMinutes < domain.MinNoticeMinutes || schedule.MinNoticeMinutes > domain.MaxNoticeMinutes {
		return fmt.Errorf("%w: min notice %d out of range [%d, %d]", ErrInvalidSchedule,
			schedule.MinNoticeMinutes, domain.MinNoticeMinutes, domain.MaxNoticeMinutes)
	}
	return nil
}

// DateOnly truncates t to midnight in its own location
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast compares calendar dates only, each in its own location
func isDateInPast(date, now time.Time) bool {
	return DaysBetween(now, date) < 0
}

// DaysBetween returns the number of calendar days from "from" to "to"
func DaysBetween(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
