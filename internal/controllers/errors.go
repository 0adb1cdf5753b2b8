package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cardpoint/onboarding-service/internal/dtos"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

var validate = validator.New()

// decodeRequest reads a JSON body into dst and runs its struct tags.
// It writes the 400 itself and returns false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", nil, err)
		return false
	}
	return true
}

func respondView(w http.ResponseWriter, view *models.WizardView, err error) {
	if err != nil {
		respondServiceError(w, view, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ViewResponse{View: view})
}

// respondServiceError maps service errors onto the response envelope.
// Step-level failures carry the rejected fields and the view to render.
func respondServiceError(w http.ResponseWriter, view *models.WizardView, err error) {
	var (
		ve *utils.ValidationError
		pe *utils.PreconditionError
	)
	switch {
	case errors.As(err, &ve):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeValidation,
			"Please correct the highlighted fields",
			dtos.ErrorDetails{Step: ve.Step, Fields: ve.Fields, View: view}, err)
	case errors.As(err, &pe):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodePreconditionFailed,
			"This step is not complete yet",
			dtos.ErrorDetails{Step: pe.Step, Fields: pe.Fields, View: view}, err)
	case errors.Is(err, utils.ErrWrongStep):
		conflict(w, view, utils.ErrCodeWrongStep, "This action is not available on the current step", err)
	case errors.Is(err, utils.ErrTerminalStep):
		conflict(w, view, utils.ErrCodeTerminalStep, "The application has already been submitted", err)
	case errors.Is(err, utils.ErrNoPreviousStep):
		conflict(w, view, utils.ErrCodeNoPreviousStep, "There is no previous step", err)
	case errors.Is(err, utils.ErrAddonsLocked):
		conflict(w, view, utils.ErrCodeAddonsLocked, "Add-on cards have already been saved", err)
	case errors.Is(err, utils.ErrAddonFormClosed):
		conflict(w, view, utils.ErrCodeAddonFormClosed, "The add-on form is not open", err)
	case errors.Is(err, utils.ErrEmailAlreadyVerified):
		conflict(w, view, utils.ErrCodeEmailAlreadyVerified, "Email is already verified", err)
	case errors.Is(err, utils.ErrOTPNotRequested):
		conflict(w, view, utils.ErrCodeOTPNotRequested, "Please request an OTP first", err)
	case errors.Is(err, utils.ErrRowVersionConflict):
		conflict(w, view, utils.ErrCodeRowVersionConflict, "State conflict, please retry", err)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(w, http.StatusFailedDependency, utils.ErrCodeExternalServiceFailure,
			"A verification service is unavailable, please try again", viewDetails(view), err)
	default:
		utils.HandleAppError(w, err)
	}
}

func conflict(w http.ResponseWriter, view *models.WizardView, code, msg string, err error) {
	utils.RespondErrorWithCode(w, http.StatusConflict, code, msg, viewDetails(view), err)
}

func viewDetails(view *models.WizardView) any {
	if view == nil {
		return nil
	}
	return dtos.ErrorDetails{View: view}
}
