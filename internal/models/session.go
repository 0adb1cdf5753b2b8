package models

import "time"

// EmailOTPStatus tracks the email verification sub-flow inside
// CreditDetails: unverified -> otp_sent -> verified.
type EmailOTPStatus string

const (
	EmailUnverified EmailOTPStatus = "unverified"
	EmailOTPSent    EmailOTPStatus = "otp_sent"
	EmailVerified   EmailOTPStatus = "verified"
)

// MinAddonSlots and MaxAddonSlots bound the add-on sub-form.
const (
	MinAddonSlots = 1
	MaxAddonSlots = 4
)

type EmailOTPState struct {
	Status      EmailOTPStatus `json:"status" msgpack:"status"`
	ChallengeID string         `json:"challengeId,omitempty" msgpack:"challenge_id"`
	SentAt      *time.Time     `json:"sentAt,omitempty" msgpack:"sent_at"`
}

// AddonForm is the add-on sub-form: whether it is displayed, how many
// entry slots it shows, and whether a successful save has locked the
// "add-on cards required" choice.
type AddonForm struct {
	Open   bool `json:"open" msgpack:"open"`
	Slots  int  `json:"slots" msgpack:"slots"`
	Locked bool `json:"locked" msgpack:"locked"`
}

// WizardState is everything about a session that is not an answer.
type WizardState struct {
	Step        Step          `json:"step" msgpack:"step"`
	EmailOTP    EmailOTPState `json:"emailOtp" msgpack:"email_otp"`
	AddonForm   AddonForm     `json:"addonForm" msgpack:"addon_form"`
	Reference   string        `json:"reference,omitempty" msgpack:"reference"`
	CompletedAt *time.Time    `json:"completedAt,omitempty" msgpack:"completed_at"`
	ClearAt     *time.Time    `json:"clearAt,omitempty" msgpack:"clear_at"`
}

// Session is one in-progress onboarding: the application record, the
// live captcha code and the wizard position.
type Session struct {
	ID         string            `json:"id"`
	Record     ApplicationRecord `json:"userData"`
	Captcha    string            `json:"captcha"`
	Wizard     WizardState       `json:"wizard"`
	RowVersion int64             `json:"rowVersion"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// NewSession returns the defaults a session starts from.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		Record: NewApplicationRecord(),
		Wizard: NewWizardState(),
	}
}

func NewWizardState() WizardState {
	return WizardState{
		Step:      StepLogin,
		EmailOTP:  EmailOTPState{Status: EmailUnverified},
		AddonForm: AddonForm{Slots: MinAddonSlots},
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Record = s.Record.Clone()
	out.Wizard.EmailOTP.SentAt = cloneTime(s.Wizard.EmailOTP.SentAt)
	out.Wizard.CompletedAt = cloneTime(s.Wizard.CompletedAt)
	out.Wizard.ClearAt = cloneTime(s.Wizard.ClearAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) GetRowVersion() int64 {
	return s.RowVersion
}

func (s *Session) SetRowVersion(v int64) {
	s.RowVersion = v
}
