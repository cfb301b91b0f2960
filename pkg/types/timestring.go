package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var (
	// ErrInvalidTimeString возвращается, когда строка не в формате HH:MM
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOverflow возвращается, когда результат выходит за пределы суток
	ErrTimeOverflow = errors.New("time string out of day range")
)

// TimeString время суток в формате "HH:MM" без привязки к дате
type TimeString string

// NewTimeString создает TimeString из часов и минут t (секунды отбрасываются)
func NewTimeString(t time.Time) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()))
}

// NewTimeStringFromString парсит и нормализует строку "H:MM", "HH:MM" или "HH:MM:SS"
func NewTimeStringFromString(s string) (TimeString, error) {
	minutes, err := parseMinutes(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return fromMinutes(minutes), nil
}

// NewTimeStringFromMinutes создает TimeString из количества минут от начала суток
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes >= minutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrTimeOverflow, minutes)
	}
	return fromMinutes(minutes), nil
}

// MustTimeString паникует при некорректном формате, используется для констант и тестов
func MustTimeString(s string) TimeString {
	ts, err := NewTimeStringFromString(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// Minutes возвращает количество минут от начала суток
func (t TimeString) Minutes() int {
	m, err := parseMinutes(string(t))
	if err != nil {
		return -1
	}
	return m
}

// Hour возвращает час
func (t TimeString) Hour() int {
	m := t.Minutes()
	if m < 0 {
		return -1
	}
	return m / 60
}

// AddMinutes возвращает время, сдвинутое на n минут
// Переход через полночь считается ошибкой
func (t TimeString) AddMinutes(n int) (TimeString, error) {
	m, err := parseMinutes(string(t))
	if err != nil {
		return "", err
	}
	return NewTimeStringFromMinutes(m + n)
}

func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

func (t TimeString) Equal(other TimeString) bool {
	return t.Minutes() == other.Minutes()
}

func (t TimeString) IsZero() bool {
	return t == ""
}

// Validate проверяет формат HH:MM
func (t TimeString) Validate() error {
	_, err := parseMinutes(string(t))
	return err
}

func (t TimeString) String() string {
	return string(t)
}

// On возвращает момент времени t на дату date в локации loc
func (t TimeString) On(date time.Time, loc *time.Location) time.Time {
	m := t.Minutes()
	y, mo, d := date.Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, loc)
}

// Scan реализует sql.Scanner: поддерживает TIME (time.Time), []byte и string
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	case []byte:
		parsed, err := NewTimeStringFromString(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := NewTimeStringFromString(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeString, src)
	}
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return string(t), nil
}

func parseMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	if len(parts[1]) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	if len(parts) == 3 {
		seconds, err := strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
		}
	}
	return hours*60 + minutes, nil
}

func fromMinutes(m int) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", m/60, m%60))
}
