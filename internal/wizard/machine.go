// Package wizard holds the onboarding state machine: the fixed step
// order, the gate each step must pass before it can be left, and the
// navigation rules for Back and resume.
package wizard

import (
	"time"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Field names used in gate failures. They match the userData keys.
const (
	FieldMobile        = "mobile"
	FieldCaptcha       = "captcha"
	FieldFullName      = "fullName"
	FieldDateOfBirth   = "dateOfBirth"
	FieldPAN           = "pan"
	FieldFatherName    = "fatherName"
	FieldEmail         = "email"
	FieldEmailVerified = "emailVerified"
	FieldSelectedCard  = "selectedCard"
	FieldTermsAccepted = "termsAccepted"
	FieldCardType      = "cardType"
	FieldCreditLimit   = "creditLimit"
	FieldOTP           = "otp"
	FieldAddons        = "addons"
)

// User-facing messages for gate failures.
const (
	MsgInvalidMobile     = "Please enter a valid 10-digit mobile number"
	MsgInvalidCaptcha    = "Invalid captcha. Please try again."
	MsgInvalidFullName   = "Please enter a valid full name"
	MsgInvalidDOB        = "Please enter a valid date of birth (18+ years)"
	MsgInvalidPAN        = "Please enter a valid PAN number"
	MsgInvalidFatherName = "Please enter a valid father's name"
	MsgEmailNotVerified  = "Please verify your email address"
	MsgSelectCard        = "Please select a card"
	MsgAcceptTerms       = "Please accept the Terms & Conditions"
	MsgChooseDelivery    = "Please choose a delivery option"
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgUndeliverable     = "This email address cannot receive mail"
	MsgInvalidOTP        = "Invalid OTP. Please try again."
	MsgInvalidAddons     = "Please fill all addon details correctly"
	MsgInvalidLimit      = "Credit limit must be between ₹25,000 and ₹5,00,000 in steps of ₹5,000"
	MsgUnknownMobile     = "This mobile number could not be verified"
)

// Facts carries gate inputs that are not part of the record.
type Facts struct {
	CaptchaPassed bool
}

type gate func(rec *models.ApplicationRecord, f Facts, now time.Time) []utils.FieldError

var gates = map[models.Step]gate{
	models.StepLogin: func(rec *models.ApplicationRecord, f Facts, _ time.Time) []utils.FieldError {
		var out []utils.FieldError
		if !utils.ValidMobile(rec.Mobile) {
			out = append(out, utils.FieldError{Field: FieldMobile, Message: MsgInvalidMobile})
		}
		if !f.CaptchaPassed {
			out = append(out, utils.FieldError{Field: FieldCaptcha, Message: MsgInvalidCaptcha})
		}
		return out
	},
	models.StepPersonalInfo: func(rec *models.ApplicationRecord, _ Facts, now time.Time) []utils.FieldError {
		var out []utils.FieldError
		if !utils.ValidName(rec.FullName) {
			out = append(out, utils.FieldError{Field: FieldFullName, Message: MsgInvalidFullName})
		}
		if !utils.ValidAge(rec.DateOfBirth, now) {
			out = append(out, utils.FieldError{Field: FieldDateOfBirth, Message: MsgInvalidDOB})
		}
		if !utils.ValidPAN(rec.PAN) {
			out = append(out, utils.FieldError{Field: FieldPAN, Message: MsgInvalidPAN})
		}
		return out
	},
	models.StepCreditDetails: func(rec *models.ApplicationRecord, _ Facts, _ time.Time) []utils.FieldError {
		var out []utils.FieldError
		if !utils.ValidName(rec.FatherName) {
			out = append(out, utils.FieldError{Field: FieldFatherName, Message: MsgInvalidFatherName})
		}
		if !rec.EmailVerified {
			out = append(out, utils.FieldError{Field: FieldEmailVerified, Message: MsgEmailNotVerified})
		}
		return out
	},
	models.StepCardSelection: func(rec *models.ApplicationRecord, _ Facts, _ time.Time) []utils.FieldError {
		if rec.SelectedCard == nil || !rec.SelectedCard.Valid() {
			return []utils.FieldError{{Field: FieldSelectedCard, Message: MsgSelectCard}}
		}
		return nil
	},
	models.StepReview: func(rec *models.ApplicationRecord, _ Facts, _ time.Time) []utils.FieldError {
		if !rec.TermsAccepted {
			return []utils.FieldError{{Field: FieldTermsAccepted, Message: MsgAcceptTerms}}
		}
		return nil
	},
	models.StepDeliveryChoice: func(rec *models.ApplicationRecord, _ Facts, _ time.Time) []utils.FieldError {
		if rec.CardType == nil || !rec.CardType.Valid() {
			return []utils.FieldError{{Field: FieldCardType, Message: MsgChooseDelivery}}
		}
		return nil
	},
}

// Machine evaluates gates against a clock so age checks are testable.
type Machine struct {
	now func() time.Time
}

func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// Next is the step after s; false for Status.
func Next(s models.Step) (models.Step, bool) {
	if !s.Valid() || s == models.StepStatus {
		return s, false
	}
	return s + 1, true
}

// Prev is the step before s; false for Login.
func Prev(s models.Step) (models.Step, bool) {
	if !s.Valid() || s == models.StepLogin {
		return s, false
	}
	return s - 1, true
}

// Check lists every gate failure of step against rec. Status has no gate
// and never passes.
func (m *Machine) Check(step models.Step, rec *models.ApplicationRecord, f Facts) []utils.FieldError {
	g, ok := gates[step]
	if !ok {
		return nil
	}
	return g(rec, f, m.now())
}

// Advance returns the step after current when its gate holds, otherwise
// a *utils.PreconditionError and current.
func (m *Machine) Advance(current models.Step, rec *models.ApplicationRecord, f Facts) (models.Step, error) {
	if current == models.StepStatus {
		return current, utils.ErrTerminalStep
	}
	if failures := m.Check(current, rec, f); len(failures) > 0 {
		return current, &utils.PreconditionError{Step: current.String(), Fields: failures}
	}
	next, _ := Next(current)
	return next, nil
}

// Back revisits the previous step. Saved fields are left alone.
func Back(current models.Step) (models.Step, error) {
	if current == models.StepStatus {
		return current, utils.ErrTerminalStep
	}
	prev, ok := Prev(current)
	if !ok {
		return current, utils.ErrNoPreviousStep
	}
	return prev, nil
}

// Resume picks the step to show for a reload. The persisted step wins
// unless the requested view is an earlier, already visited step. Status
// is never left by resuming.
func Resume(persisted models.Step, requested *models.Step) models.Step {
	if requested == nil || !requested.Valid() {
		return persisted
	}
	if persisted == models.StepStatus || *requested > persisted {
		return persisted
	}
	return *requested
}
