package get_availability

import (
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_availability"
)

// SlotResponse состояние одного слота
type SlotResponse struct {
	Time                    string  `json:"time"`
	DayPart                 string  `json:"dayPart"`
	Status                  string  `json:"status"`
	ConflictingProviderID   *int64  `json:"conflictingProviderId,omitempty"`
	ConflictingProviderName *string `json:"conflictingProviderName,omitempty"`
}

// ClientConflictResponse запись клиента на эту дату
type ClientConflictResponse struct {
	Time         string `json:"time"`
	ProviderID   int64  `json:"providerId"`
	ProviderName string `json:"providerName"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	Date            string                   `json:"date"`
	ProviderID      int64                    `json:"providerId"`
	SlotStepMinutes int                      `json:"slotStepMinutes"`
	CandidateSlots  []string                 `json:"candidateSlots"`
	ProviderBusy    []string                 `json:"providerBusy"`
	ClientConflicts []ClientConflictResponse `json:"clientConflicts"`
	Slots           []SlotResponse           `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		ProviderID:      resp.ProviderID,
		CandidateSlots:  make([]string, 0, len(resp.CandidateSlots)),
		ProviderBusy:    make([]string, 0, len(resp.ProviderBusy)),
		ClientConflicts: make([]ClientConflictResponse, 0, len(resp.ClientConflicts)),
		Slots:           make([]SlotResponse, 0, len(resp.Slots)),
	}
	if resp.Schedule != nil {
		out.SlotStepMinutes = resp.Schedule.SlotStepMinutes
	}
	for _, t := range resp.CandidateSlots {
		out.CandidateSlots = append(out.CandidateSlots, t.String())
	}
	for _, t := range resp.ProviderBusy {
		out.ProviderBusy = append(out.ProviderBusy, t.String())
	}
	for _, c := range resp.ClientConflicts {
		out.ClientConflicts = append(out.ClientConflicts, ClientConflictResponse{
			Time:         c.StartTime.String(),
			ProviderID:   c.ProviderID,
			ProviderName: c.ProviderName,
		})
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			Time:                    s.StartTime.String(),
			DayPart:                 string(s.DayPart),
			Status:                  string(s.Outcome),
			ConflictingProviderID:   s.ConflictingProviderID,
			ConflictingProviderName: s.ConflictingProviderName,
		})
	}
	return out
}
