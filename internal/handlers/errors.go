package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"patisserie/internal/common"
	"patisserie/internal/utils"
)

// writeError translates the service error taxonomy into HTTP statuses.
// Anything unrecognized is reported as a generic 500 so storage errors never
// leak.
func writeError(w http.ResponseWriter, err error) {
	var locked *common.TooManyAttemptsError
	if errors.As(err, &locked) {
		w.Header().Set("Retry-After", strconv.Itoa(int(locked.RetryAfter.Seconds())))
		utils.SendJSONError(w, err.Error(), http.StatusLocked)
		return
	}

	switch {
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrNotVerified),
		errors.Is(err, common.ErrInvalidCode),
		errors.Is(err, common.ErrAlreadyVerified):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrUnauthorized):
		utils.SendJSONError(w, "Incorrect password", http.StatusUnauthorized)
	case errors.Is(err, common.ErrForbidden):
		utils.SendJSONError(w, "Not authorized to access this resource", http.StatusForbidden)
	case errors.Is(err, common.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, common.ErrConflict):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, common.ErrOTPExpired):
		utils.SendJSONError(w, "OTP has expired", http.StatusGone)
	case errors.Is(err, common.ErrOTPConflict):
		utils.SendJSONError(w, "Please wait before requesting a new OTP", http.StatusTooManyRequests)
	case errors.Is(err, common.ErrExternalService):
		utils.SendJSONError(w, "Failed to send email", http.StatusBadGateway)
	default:
		utils.SendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
