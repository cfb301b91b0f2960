package get_provider_bookings

import (
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
)

// parseQuery разбирает date | startDate+endDate, status, includeInactive
func parseQuery(q url.Values, req *models.GetProviderBookingsRequest) error {
	if raw := q.Get("date"); raw != "" {
		date, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return err
		}
		req.StartDate, req.EndDate = &date, &date
	} else {
		if raw := q.Get("startDate"); raw != "" {
			start, err := time.Parse(domain.DateFormat, raw)
			if err != nil {
				return err
			}
			req.StartDate = &start
		}
		if raw := q.Get("endDate"); raw != "" {
			end, err := time.Parse(domain.DateFormat, raw)
			if err != nil {
				return err
			}
			req.EndDate = &end
		}
	}

	if status := q.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := q.Get("includeInactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		req.IncludeInactive = v
	}
	return nil
}
