package domain

import "github.com/m04kA/SMC-ConsultationService/pkg/types"

// DayPart presentation bucket of a slot
type DayPart string

const (
	DayPartMorning   DayPart = "morning"
	DayPartAfternoon DayPart = "afternoon"
	DayPartEvening   DayPart = "evening"
)

// ConflictOutcome classification of a requested slot for a client
type ConflictOutcome string

const (
	OutcomeAvailable                  ConflictOutcome = "available"
	OutcomeAlreadyBookedBySelf        ConflictOutcome = "already_booked_by_self"
	OutcomeConflictsWithOtherProvider ConflictOutcome = "conflicts_with_other_provider"
	OutcomeTakenByOthers              ConflictOutcome = "taken_by_others"
)

// SlotView advisory state of one candidate slot
type SlotView struct {
	StartTime types.TimeString
	DayPart   DayPart
	Outcome   ConflictOutcome
	// Set for OutcomeConflictsWithOtherProvider
	ConflictingProviderID   *int64
	ConflictingProviderName *string
}
