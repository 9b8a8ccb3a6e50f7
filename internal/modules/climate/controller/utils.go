package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/service"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/modules/climate/types"
	"github.com/ravikanth-kolla/HawaiiFiveO/internal/utils"
)

// htmlContentType is used for every bare string body, validation answers
// included.
const htmlContentType = "text/html; charset=utf-8"

// Validation outcomes are answered with 200 and a bare text body; existing
// clients match on these exact strings.
var plainTextErrors = []struct {
	err     error
	message string
}{
	{service.ErrInvalidDate, "Not a valid date format"},
	{service.ErrInvalidStartDate, "Not a valid start date format"},
	{service.ErrInvalidEndDate, "Not a valid end date format"},
	{service.ErrStartBeforeRecords, "Start date is earlier than oldest start date"},
	{service.ErrEndAfterRecords, "End date is after than latest end date"},
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, pe := range plainTextErrors {
		if errors.Is(err, pe.err) {
			utils.WriteText(w, http.StatusOK, htmlContentType, pe.message)
			return
		}
	}
	slog.Error("climate request failed", "path", r.URL.Path, "error", err)
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}

// dailyObjects renders one single-key object per row so repeated dates stay
// separate entries.
func dailyObjects(values []types.DailyValue) []map[string]*float64 {
	out := make([]map[string]*float64, 0, len(values))
	for _, v := range values {
		out = append(out, map[string]*float64{v.Date: v.Value})
	}
	return out
}

func stationObjects(stations []types.Station) []map[string]string {
	out := make([]map[string]string, 0, len(stations))
	for _, s := range stations {
		out = append(out, map[string]string{s.Code: s.Name})
	}
	return out
}
