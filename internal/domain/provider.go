package domain

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Provider dietitian profile as supplied by the provider directory
type Provider struct {
	ID         int64
	UserID     int64 // account that manages this provider's agenda
	Name       string
	SessionFee float64
	IsActive   bool
	// Working hours from the directory; nil when the directory has none
	OpenTime  *types.TimeString
	CloseTime *types.TimeString
}

// ProviderSchedule slot grid of a provider.
// Resolution order: local override → directory working hours → defaults.
type ProviderSchedule struct {
	ProviderID       int64
	OpenTime         types.TimeString
	CloseTime        types.TimeString
	SlotStepMinutes  int
	MinNoticeMinutes int
	Source           ScheduleSource
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ScheduleSource where the effective schedule came from
type ScheduleSource string

const (
	ScheduleSourceOverride  ScheduleSource = "override"
	ScheduleSourceDirectory ScheduleSource = "directory"
	ScheduleSourceDefault   ScheduleSource = "default"
)

// DefaultSchedule returns the default 09:00–20:00 / 30 min grid
func DefaultSchedule(providerID int64) *ProviderSchedule {
	return &ProviderSchedule{
		ProviderID:       providerID,
		OpenTime:         DefaultOpenTime,
		CloseTime:        DefaultCloseTime,
		SlotStepMinutes:  DefaultSlotStepMinutes,
		MinNoticeMinutes: DefaultMinNoticeMinutes,
		Source:           ScheduleSourceDefault,
	}
}

// ResolveSchedule picks the effective schedule for a provider.
// defaults may be nil, then DefaultSchedule is used.
func ResolveSchedule(provider *Provider, override *ProviderSchedule, defaults *ProviderSchedule) *ProviderSchedule {
	if override != nil {
		s := *override
		s.Source = ScheduleSourceOverride
		return &s
	}

	var s ProviderSchedule
	if defaults != nil {
		s = *defaults
	} else {
		s = *DefaultSchedule(provider.ID)
	}
	s.ProviderID = provider.ID
	s.Source = ScheduleSourceDefault

	if provider.OpenTime != nil && provider.CloseTime != nil &&
		provider.OpenTime.Validate() == nil && provider.CloseTime.Validate() == nil &&
		provider.OpenTime.IsBefore(*provider.CloseTime) {
		s.OpenTime = *provider.OpenTime
		s.CloseTime = *provider.CloseTime
		s.Source = ScheduleSourceDirectory
	}
	return &s
}
