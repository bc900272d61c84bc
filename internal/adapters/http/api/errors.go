package api

import (
	"errors"
	"net/http"

	service "github.com/okian/shepherd/internal/app"
	"github.com/okian/shepherd/internal/domain/forecast"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBodyTooLarge = errors.New("request body too large")
	ErrRateLimited  = errors.New("rate limited")
)

// errorResponse is the body of every non-2xx reply. Result carries the partial
// value the analysis still produced, if any.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// statusFor maps an error kind to its HTTP status and response code.
func statusFor(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, forecast.ErrPredictBeforeTrain):
		return http.StatusConflict, forecast.KindName(err)
	case errors.Is(err, forecast.ErrInsufficientData), errors.Is(err, forecast.ErrFitFailure):
		return http.StatusUnprocessableEntity, forecast.KindName(err)
	case errors.Is(err, forecast.ErrMalformedRecord):
		return http.StatusBadRequest, forecast.KindName(err)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
