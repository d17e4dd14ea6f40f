// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The detail
// always names the field, state or version behind the failure; unknown errors
// collapse to an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validationErr    *shared.ValidationError
		configurationErr *shared.ConfigurationError
		calculationErr   *shared.CalculationError
		invalidStateErr  *shared.InvalidStateError
	)
	switch {
	case errors.As(err, &validationErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErr.Error())
	case errors.As(err, &invalidStateErr):
		Problem(w, http.StatusConflict, "Invalid State", invalidStateErr.Error())
	case errors.As(err, &calculationErr):
		Problem(w, http.StatusUnprocessableEntity, "Calculation Failed", calculationErr.Error())
	case errors.As(err, &configurationErr):
		Problem(w, http.StatusInternalServerError, "Engine Misconfigured", configurationErr.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
