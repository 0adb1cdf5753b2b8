package routes

const (
	Health = "/health"

	// Public
	OnboardingSession         = "/api/v1/onboarding/session"
	OnboardingCards           = "/api/v1/onboarding/cards"
	OnboardingDeliveryOptions = "/api/v1/onboarding/delivery-options"
	Theme                     = "/api/v1/theme"
	ThemeToggle               = "/api/v1/theme/toggle"

	// Session-bound
	OnboardingView           = "/api/v1/onboarding/view"
	OnboardingEvents         = "/api/v1/onboarding/events"
	OnboardingBack           = "/api/v1/onboarding/back"
	OnboardingCaptchaRefresh = "/api/v1/onboarding/captcha/refresh"
	OnboardingLogin          = "/api/v1/onboarding/login"
	OnboardingPersonalInfo   = "/api/v1/onboarding/personal-info"
	OnboardingCreditDetails  = "/api/v1/onboarding/credit-details"
	OnboardingCreditLimit    = "/api/v1/onboarding/credit-details/limit"
	OnboardingEmailOTP       = "/api/v1/onboarding/credit-details/email/otp"
	OnboardingEmailVerify    = "/api/v1/onboarding/credit-details/email/verify"
	OnboardingAddons         = "/api/v1/onboarding/credit-details/addons"
	OnboardingAddonsOpen     = "/api/v1/onboarding/credit-details/addons/open"
	OnboardingAddonsSlots    = "/api/v1/onboarding/credit-details/addons/slots"
	OnboardingAddonsCancel   = "/api/v1/onboarding/credit-details/addons/cancel"
	OnboardingCardSelection  = "/api/v1/onboarding/card-selection"
	OnboardingReview         = "/api/v1/onboarding/review"
	OnboardingDelivery       = "/api/v1/onboarding/delivery"
)
