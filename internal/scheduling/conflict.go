package scheduling

import (
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// ConflictQuery slot a client wants to take
type ConflictQuery struct {
	ClientID   int64
	ProviderID int64
	StartTime  types.TimeString
}

// Conflict result of ResolveConflict.
// With is set for AlreadyBookedBySelf and ConflictsWithOtherProvider.
type Conflict struct {
	Outcome domain.ConflictOutcome
	With    *domain.ClientSlot
}

// IsAvailable returns true when nothing blocks the slot
func (c Conflict) IsAvailable() bool {
	return c.Outcome == domain.OutcomeAvailable
}

// ResolveConflict classifies the requested slot against a snapshot of the
// provider's busy times and the client's own active slots on the same date.
// Precedence: AlreadyBookedBySelf > ConflictsWithOtherProvider > TakenByOthers > Available.
// A client holding the slot with this provider is also in providerBusy, so
// the self check has to run first.
func ResolveConflict(q ConflictQuery, providerBusy []types.TimeString, clientSlots []domain.ClientSlot) Conflict {
	var other *domain.ClientSlot

	for i := range clientSlots {
		slot := clientSlots[i]
		if !slot.StartTime.Equal(q.StartTime) {
			continue
		}
		if slot.ProviderID == q.ProviderID {
			return Conflict{Outcome: domain.OutcomeAlreadyBookedBySelf, With: &slot}
		}
		if other == nil {
			other = &slot
		}
	}

	if other != nil {
		return Conflict{Outcome: domain.OutcomeConflictsWithOtherProvider, With: other}
	}

	for _, busy := range providerBusy {
		if busy.Equal(q.StartTime) {
			return Conflict{Outcome: domain.OutcomeTakenByOthers}
		}
	}

	return Conflict{Outcome: domain.OutcomeAvailable}
}

// ResolveDay classifies every candidate slot of a day for one client.
// Used by the advisory availability view.
func ResolveDay(
	clientID, providerID int64,
	candidates []types.TimeString,
	providerBusy []types.TimeString,
	clientSlots []domain.ClientSlot,
) []domain.SlotView {
	views := make([]domain.SlotView, 0, len(candidates))
	for _, t := range candidates {
		c := ResolveConflict(ConflictQuery{ClientID: clientID, ProviderID: providerID, StartTime: t}, providerBusy, clientSlots)
		view := domain.SlotView{
			StartTime: t,
			DayPart:   DayPartOf(t),
			Outcome:   c.Outcome,
		}
		if c.Outcome == domain.OutcomeConflictsWithOtherProvider && c.With != nil {
			id, name := c.With.ProviderID, c.With.ProviderName
			view.ConflictingProviderID = &id
			view.ConflictingProviderName = &name
		}
		views = append(views, view)
	}
	return views
}
