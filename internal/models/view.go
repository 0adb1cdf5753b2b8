package models

import "time"

// WizardView is what a client renders for the current step. It is the
// payload of every onboarding response and of render events.
type WizardView struct {
	SessionID string            `json:"sessionId"`
	Step      Step              `json:"step"`
	CanGoBack bool              `json:"canGoBack"`
	Progress  *Progress         `json:"progress,omitempty"`
	Record    ApplicationRecord `json:"userData"`
	Captcha   string            `json:"captcha,omitempty"`
	EmailOTP  EmailOTPStatus    `json:"emailOtp"`
	AddonForm AddonForm         `json:"addonForm"`
	Summary   *Summary          `json:"summary,omitempty"`
	Reference string            `json:"reference,omitempty"`
	ClearsAt  *time.Time        `json:"clearsAt,omitempty"`
}

// Progress is the four-step bar shown above the form steps.
type Progress struct {
	Steps   []ProgressStep `json:"steps"`
	Current int            `json:"current"`
	Percent int            `json:"percent"`
}

type ProgressStepState string

const (
	ProgressPending   ProgressStepState = "pending"
	ProgressActive    ProgressStepState = "active"
	ProgressCompleted ProgressStepState = "completed"
)

type ProgressStep struct {
	Number int               `json:"number"`
	Label  string            `json:"label"`
	State  ProgressStepState `json:"state"`
}

// Summary is the read-only recap on Review and Status.
type Summary struct {
	CardName       string `json:"cardName"`
	FullName       string `json:"fullName"`
	DateOfBirth    string `json:"dateOfBirth"`
	PAN            string `json:"pan"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
	CreditLimit    string `json:"creditLimit"`
	Addons         string `json:"addons"`
	Delivery       string `json:"delivery,omitempty"`
	DeliveryWindow string `json:"deliveryWindow,omitempty"`
	ProcessingTime string `json:"processingTime,omitempty"`
}
