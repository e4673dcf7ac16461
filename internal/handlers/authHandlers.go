package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"patisserie/internal/models"
	"patisserie/internal/services"
	"patisserie/internal/utils"
)

type AuthHandler struct {
	otpService services.OTPService
}

func NewAuthHandler(otpService services.OTPService) *AuthHandler {
	return &AuthHandler{otpService: otpService}
}

func (a *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for RequestOTP")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	purpose, err := models.ParseOTPPurpose(req.Purpose)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	issue, err := a.otpService.RequestOTP(r.Context(), req.Email, purpose)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.OTPResponse{
		Message:   "OTP sent successfully",
		ExpiresIn: int(time.Until(issue.ExpiresAt).Seconds()),
	})
}

func (a *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.OTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for VerifyEmail")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, err := a.otpService.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for ResetPassword")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.otpService.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
