package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

// AvailabilityLister reports the occupied intervals of a space.
type AvailabilityLister interface {
	Availability(ctx context.Context, spaceID string, window domain.Interval) ([]domain.Interval, error)
}

// HandleAvailability serves GET /spaces/{id}/availability?from&to.
func HandleAvailability(svc AvailabilityLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		spaceID, ok := parseAvailabilityPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, "from must be an RFC 3339 timestamp")
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, "to must be an RFC 3339 timestamp")
			return
		}

		occupied, err := svc.Availability(r.Context(), spaceID, domain.Interval{Start: from, End: to})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrSpaceNotFound):
				writeError(w, http.StatusNotFound, codeSpaceNotFound, err.Error())
			case errors.Is(err, domain.ErrInvalidInterval):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, err.Error())
			case errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidID, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := availabilityResponse{
			SpaceID:  spaceID,
			From:     from.UTC(),
			To:       to.UTC(),
			Occupied: make([]occupiedInterval, 0, len(occupied)),
		}
		for _, iv := range occupied {
			resp.Occupied = append(resp.Occupied, occupiedInterval{Start: iv.Start, End: iv.End})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseAvailabilityPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "spaces" || parts[2] != "availability" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type availabilityResponse struct {
	SpaceID  string             `json:"space_id"`
	From     time.Time          `json:"from"`
	To       time.Time          `json:"to"`
	Occupied []occupiedInterval `json:"occupied"`
}

type occupiedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
