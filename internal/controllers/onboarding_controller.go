package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/dtos"
	"github.com/cardpoint/onboarding-service/internal/middleware"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/services"
	"github.com/cardpoint/onboarding-service/internal/utils"
	"github.com/cardpoint/onboarding-service/internal/wizard"
)

type OnboardingController struct {
	cfg    *config.Config
	svc    services.OnboardingService
	tokens services.SessionTokenService
}

func NewOnboardingController(
	cfg *config.Config,
	svc services.OnboardingService,
	tokens services.SessionTokenService,
) *OnboardingController {
	return &OnboardingController{cfg: cfg, svc: svc, tokens: tokens}
}

// sessionID writes the 401 itself when the middleware did not run.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sid, ok := middleware.SessionIDFrom(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing session in context", nil)
	}
	return sid, ok
}

// POST /api/v1/onboarding/session
func (c *OnboardingController) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := c.svc.Start(r.Context())
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to start onboarding session")
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to start onboarding", nil, err)
		return
	}

	token, err := c.tokens.Issue(view.SessionID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Unable to issue session token", nil, err)
		return
	}

	if !utils.PlatformOf(r).Native() {
		utils.SetSessionCookie(w, token, c.tokens.TTL(), c.cfg.LDFlag_CORSHighSecurity)
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.StartSessionResponse{
		Token:     token,
		ExpiresIn: int64(c.tokens.TTL().Seconds()),
		View:      view,
	})
}

// GET /api/v1/onboarding/view?step=<step>
func (c *OnboardingController) ViewHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var requested *models.Step
	if raw := r.URL.Query().Get("step"); raw != "" {
		step, err := models.ParseStep(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unknown step", nil, err)
			return
		}
		requested = &step
	}
	view, err := c.svc.View(r.Context(), sid, requested)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/back
func (c *OnboardingController) BackHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.Back(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/captcha/refresh
func (c *OnboardingController) RefreshCaptchaHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.RefreshCaptcha(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/login
func (c *OnboardingController) LoginHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SubmitLogin(r.Context(), sid, req.Mobile, req.Captcha)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/personal-info
func (c *OnboardingController) PersonalInfoHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.PersonalInfoRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SubmitPersonalInfo(r.Context(), sid, req.FullName, req.DateOfBirth, req.PAN)
	respondView(w, view, err)
}

// PUT /api/v1/onboarding/credit-details/limit
func (c *OnboardingController) CreditLimitHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.CreditLimitRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.CreditLimit.String())
	if err != nil {
		respondServiceError(w, nil, utils.NewValidationError(models.StepCreditDetails.String(),
			utils.FieldError{Field: wizard.FieldCreditLimit, Message: wizard.MsgInvalidLimit}))
		return
	}
	view, err := c.svc.SetCreditLimit(r.Context(), sid, amount)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/email/otp
func (c *OnboardingController) RequestEmailOTPHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.EmailOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.RequestEmailOTP(r.Context(), sid, req.Email)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/email/verify
func (c *OnboardingController) VerifyEmailOTPHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.VerifyEmailOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.VerifyEmailOTP(r.Context(), sid, req.OTP)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/addons/open
func (c *OnboardingController) OpenAddonFormHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.OpenAddonForm(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/addons/slots
func (c *OnboardingController) AddAddonSlotHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.AddAddonSlot(r.Context(), sid)
	respondView(w, view, err)
}

// DELETE /api/v1/onboarding/credit-details/addons/slots
func (c *OnboardingController) RemoveAddonSlotHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.RemoveAddonSlot(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/addons/cancel
func (c *OnboardingController) CancelAddonFormHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.CancelAddonForm(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details/addons
func (c *OnboardingController) CommitAddonsHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.CommitAddonsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	entries := make([]models.AddonRequest, 0, len(req.Addons))
	for _, e := range req.Addons {
		entries = append(entries, e.ToModel())
	}
	view, err := c.svc.CommitAddons(r.Context(), sid, entries)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/credit-details
func (c *OnboardingController) CreditDetailsHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.CreditDetailsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SubmitCreditDetails(r.Context(), sid, req.FatherName)
	respondView(w, view, err)
}

// PUT /api/v1/onboarding/card-selection
func (c *OnboardingController) SelectCardHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.SelectCardRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SelectCard(r.Context(), sid, models.CardProduct(req.Card))
	respondView(w, view, err)
}

// POST /api/v1/onboarding/card-selection
func (c *OnboardingController) SubmitCardSelectionHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	view, err := c.svc.SubmitCardSelection(r.Context(), sid)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/review
func (c *OnboardingController) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.ReviewRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SubmitReview(r.Context(), sid, *req.TermsAccepted)
	respondView(w, view, err)
}

// POST /api/v1/onboarding/delivery
func (c *OnboardingController) DeliveryHandler(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req dtos.DeliveryRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	view, err := c.svc.SubmitDelivery(r.Context(), sid, models.DeliveryMode(req.CardType))
	respondView(w, view, err)
}

// GET /api/v1/onboarding/cards
func (c *OnboardingController) CardsHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, dtos.CardsResponse{Cards: c.svc.Catalog()})
}

// GET /api/v1/onboarding/delivery-options
func (c *OnboardingController) DeliveryOptionsHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, dtos.DeliveryOptionsResponse{Options: c.svc.DeliveryOptions()})
}
