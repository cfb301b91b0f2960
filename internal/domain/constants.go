package domain

import "github.com/m04kA/SMC-ConsultationService/pkg/types"

// Default schedule values
const (
	DefaultOpenTime         types.TimeString = "09:00"
	DefaultCloseTime        types.TimeString = "20:00"
	DefaultSlotStepMinutes                   = 30
	DefaultMinNoticeMinutes                  = 0
)

// Default quota values, overridden by [plans.*] in config
const (
	DefaultFreeBookingsPerPeriod = 2
	DefaultMaxAdvanceDays        = 21
)

// Business validation constants
const (
	MinSlotStepMinutes          = 10
	MaxSlotStepMinutes          = 240
	MinNoticeMinutes            = 0
	MaxNoticeMinutes            = 10080 // 1 week
	MaxPaymentRefLength         = 128
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses hold a slot and a quota unit
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// ReplayableStatuses are returned unchanged for a repeated payment reference
var ReplayableStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}
