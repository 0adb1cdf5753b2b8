package dtos

import (
	"encoding/json"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Request DTOs only bound sizes. Field rules live in the wizard so that
// rejections come back as per-field messages with the view to re-render.

type StartSessionResponse struct {
	Token     string             `json:"token"`
	ExpiresIn int64              `json:"expires_in"`
	View      *models.WizardView `json:"view"`
}

type ViewResponse struct {
	View *models.WizardView `json:"view"`
}

// ErrorDetails rides in ErrorResponse.Details for step-level failures.
type ErrorDetails struct {
	Step   string             `json:"step,omitempty"`
	Fields []utils.FieldError `json:"fields,omitempty"`
	View   *models.WizardView `json:"view,omitempty"`
}

type LoginRequest struct {
	Mobile  string `json:"mobile" validate:"max=20"`
	Captcha string `json:"captcha"`
}

type PersonalInfoRequest struct {
	FullName    string `json:"fullName" validate:"max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"max=10"`
	PAN         string `json:"pan" validate:"max=10"`
}

// CreditLimitRequest keeps the amount as a JSON number so fractional or
// oversized values reach the range check instead of failing to decode.
type CreditLimitRequest struct {
	CreditLimit json.Number `json:"creditLimit" validate:"required"`
}

type EmailOTPRequest struct {
	Email string `json:"email" validate:"max=254"`
}

type VerifyEmailOTPRequest struct {
	OTP string `json:"otp" validate:"max=12"`
}

type AddonEntry struct {
	Name         string `json:"name" validate:"max=100"`
	Mobile       string `json:"mobile" validate:"max=20"`
	DateOfBirth  string `json:"dob" validate:"max=10"`
	Relationship string `json:"relationship" validate:"max=20"`
}

func (e AddonEntry) ToModel() models.AddonRequest {
	return models.AddonRequest{
		Name:         e.Name,
		Mobile:       e.Mobile,
		DateOfBirth:  e.DateOfBirth,
		Relationship: models.Relationship(e.Relationship),
	}
}

type CommitAddonsRequest struct {
	Addons []AddonEntry `json:"addons" validate:"required,min=1,max=4,dive"`
}

type CreditDetailsRequest struct {
	FatherName string `json:"fatherName" validate:"max=100"`
}

type SelectCardRequest struct {
	Card string `json:"card" validate:"required,max=20"`
}

type ReviewRequest struct {
	TermsAccepted *bool `json:"termsAccepted" validate:"required"`
}

type DeliveryRequest struct {
	CardType string `json:"cardType" validate:"max=20"`
}

type CardsResponse struct {
	Cards []models.CardInfo `json:"cards"`
}

type DeliveryOptionsResponse struct {
	Options []models.DeliveryOption `json:"options"`
}
