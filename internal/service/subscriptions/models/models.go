package models

// SetTierRequest назначение тарифа клиенту (вызывается биллингом)
type SetTierRequest struct {
	Tier string `json:"tier"`
}

// UsageResponse тариф и использование в текущем периоде
type UsageResponse struct {
	ClientID       int64  `json:"clientId"`
	Tier           string `json:"tier"`
	PeriodKey      string `json:"periodKey"`
	Used           int    `json:"used"`
	Limit          *int   `json:"limit"`     // nil - без ограничений
	Remaining      *int   `json:"remaining"` // nil - без ограничений
	MaxAdvanceDays int    `json:"maxAdvanceDays"`
}
