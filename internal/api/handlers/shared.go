package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jkoestner/folioflex/internal/api/response"
	"github.com/jkoestner/folioflex/internal/apperrors"
)

// respondServiceError maps engine errors to HTTP status codes. Caller-input
// problems come back as 400, unknown portfolios as 404, everything else as a
// 500.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		response.RespondError(w, http.StatusNotFound, message, err.Error())
	case errors.Is(err, apperrors.ErrDateOutOfRange),
		errors.Is(err, apperrors.ErrInvalidLookback),
		errors.Is(err, apperrors.ErrUnknownMetric):
		response.RespondError(w, http.StatusBadRequest, message, err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, message, err.Error())
	}
}

// parseDateParam parses an optional ?date=YYYY-MM-DD query parameter. A
// missing parameter returns the zero time, which reports mean "latest".
func parseDateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}
