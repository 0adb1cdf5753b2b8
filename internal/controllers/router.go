package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cardpoint/onboarding-service/internal/middleware"
	"github.com/cardpoint/onboarding-service/internal/routes"
)

// Handlers groups the controllers mounted by NewRouter.
type Handlers struct {
	Health     *HealthController
	Onboarding *OnboardingController
	Theme      *ThemeController
	Events     *EventsController
	Tokens     middleware.TokenParser
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, h.Health.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.OnboardingSession, h.Onboarding.StartSessionHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.OnboardingCards, h.Onboarding.CardsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.OnboardingDeliveryOptions, h.Onboarding.DeliveryOptionsHandler).Methods(http.MethodGet)

	// Per-client preferences
	client := router.NewRoute().Subrouter()
	client.Use(middleware.ClientKeyMiddleware)
	client.HandleFunc(routes.Theme, h.Theme.GetThemeHandler).Methods(http.MethodGet)
	client.HandleFunc(routes.Theme, h.Theme.SetThemeHandler).Methods(http.MethodPut)
	client.HandleFunc(routes.ThemeToggle, h.Theme.ToggleThemeHandler).Methods(http.MethodPost)

	// Session-bound wizard routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.SessionMiddleware(h.Tokens))
	secured.HandleFunc(routes.OnboardingView, h.Onboarding.ViewHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.OnboardingEvents, h.Events.EventsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.OnboardingBack, h.Onboarding.BackHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingCaptchaRefresh, h.Onboarding.RefreshCaptchaHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingLogin, h.Onboarding.LoginHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingPersonalInfo, h.Onboarding.PersonalInfoHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingCreditLimit, h.Onboarding.CreditLimitHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.OnboardingEmailOTP, h.Onboarding.RequestEmailOTPHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingEmailVerify, h.Onboarding.VerifyEmailOTPHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingAddonsOpen, h.Onboarding.OpenAddonFormHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingAddonsSlots, h.Onboarding.AddAddonSlotHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingAddonsSlots, h.Onboarding.RemoveAddonSlotHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.OnboardingAddonsCancel, h.Onboarding.CancelAddonFormHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingAddons, h.Onboarding.CommitAddonsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingCreditDetails, h.Onboarding.CreditDetailsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingCardSelection, h.Onboarding.SelectCardHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.OnboardingCardSelection, h.Onboarding.SubmitCardSelectionHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingReview, h.Onboarding.ReviewHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.OnboardingDelivery, h.Onboarding.DeliveryHandler).Methods(http.MethodPost)

	return router
}
