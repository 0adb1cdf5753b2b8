package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/utils"
	"github.com/cardpoint/onboarding-service/internal/wizard"
)

var creditDetailsStep = models.StepCreditDetails.String()

func (s *onboardingService) SetCreditLimit(ctx context.Context, sessionID string, amount decimal.Decimal) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		limit, ok := creditLimitFrom(amount)
		if !ok {
			return utils.NewValidationError(creditDetailsStep,
				utils.FieldError{Field: wizard.FieldCreditLimit, Message: wizard.MsgInvalidLimit})
		}
		sess.Record.CreditLimit = limit
		return nil
	})
}

// creditLimitFrom accepts whole rupee amounts on the slider's grid.
func creditLimitFrom(amount decimal.Decimal) (int64, bool) {
	if !amount.IsInteger() {
		return 0, false
	}
	if amount.LessThan(decimal.NewFromInt(models.MinCreditLimit)) ||
		amount.GreaterThan(decimal.NewFromInt(models.MaxCreditLimit)) {
		return 0, false
	}
	limit := amount.IntPart()
	if limit%models.CreditLimitStep != 0 {
		return 0, false
	}
	return limit, true
}

// ---------------------------------------------------------------------
// Email verification
// ---------------------------------------------------------------------

func (s *onboardingService) RequestEmailOTP(ctx context.Context, sessionID, email string) (*models.WizardView, error) {
	email = strings.TrimSpace(email)

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(sess, models.StepCreditDetails); err != nil {
		return s.fail(ctx, sessionID, err)
	}
	if sess.Wizard.EmailOTP.Status == models.EmailVerified {
		return s.fail(ctx, sessionID, utils.ErrEmailAlreadyVerified)
	}

	if !utils.ValidEmail(email) {
		return s.fail(ctx, sessionID, utils.NewValidationError(creditDetailsStep,
			utils.FieldError{Field: wizard.FieldEmail, Message: wizard.MsgInvalidEmail}))
	}
	if !s.isTestEmail(email) {
		ok, err := utils.ValidateEmailDeliverability(ctx, s.cfg.SendGridAPIKey, email, s.cfg.LDFlag_ValidateEmailWithSendGrid)
		if err != nil {
			return s.fail(ctx, sessionID, err)
		}
		if !ok {
			return s.fail(ctx, sessionID, utils.NewValidationError(creditDetailsStep,
				utils.FieldError{Field: wizard.FieldEmail, Message: wizard.MsgUndeliverable}))
		}
	}

	challengeID, err := s.otp.Send(ctx, OTPRequest{SessionID: sessionID, Email: email})
	if err != nil {
		utils.Logger.WithError(err).WithField("session", sessionID).Error("Failed to send email OTP")
		return s.fail(ctx, sessionID, err)
	}

	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		if sess.Wizard.EmailOTP.Status == models.EmailVerified {
			return utils.ErrEmailAlreadyVerified
		}
		sentAt := s.now()
		sess.Record.Email = email
		sess.Record.EmailVerified = false
		sess.Wizard.EmailOTP = models.EmailOTPState{
			Status:      models.EmailOTPSent,
			ChallengeID: challengeID,
			SentAt:      &sentAt,
		}
		return nil
	})
}

func (s *onboardingService) VerifyEmailOTP(ctx context.Context, sessionID, code string) (*models.WizardView, error) {
	code = strings.TrimSpace(code)

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(sess, models.StepCreditDetails); err != nil {
		return s.fail(ctx, sessionID, err)
	}
	switch sess.Wizard.EmailOTP.Status {
	case models.EmailVerified:
		return s.fail(ctx, sessionID, utils.ErrEmailAlreadyVerified)
	case models.EmailUnverified:
		return s.fail(ctx, sessionID, utils.ErrOTPNotRequested)
	}

	challengeID := sess.Wizard.EmailOTP.ChallengeID
	ok, err := s.otp.Verify(ctx, challengeID, code)
	if err != nil {
		return s.fail(ctx, sessionID, err)
	}
	if !ok {
		return s.fail(ctx, sessionID, utils.NewValidationError(creditDetailsStep,
			utils.FieldError{Field: wizard.FieldOTP, Message: wizard.MsgInvalidOTP}))
	}

	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		// A newer send replaced the challenge that was just checked.
		if sess.Wizard.EmailOTP.ChallengeID != challengeID {
			return utils.NewValidationError(creditDetailsStep,
				utils.FieldError{Field: wizard.FieldOTP, Message: wizard.MsgInvalidOTP})
		}
		sess.Wizard.EmailOTP.Status = models.EmailVerified
		sess.Record.EmailVerified = true
		return nil
	})
}

func (s *onboardingService) isTestEmail(email string) bool {
	return s.cfg.LDFlag_AcceptFakePhonesEmails && utils.TestEmailRegex.MatchString(email)
}

// ---------------------------------------------------------------------
// Add-on cards
// ---------------------------------------------------------------------

func (s *onboardingService) OpenAddonForm(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		form := &sess.Wizard.AddonForm
		if form.Locked {
			return utils.ErrAddonsLocked
		}
		form.Open = true
		form.Slots = models.MinAddonSlots
		return nil
	})
}

func (s *onboardingService) AddAddonSlot(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.resizeAddonForm(ctx, sessionID, 1)
}

func (s *onboardingService) RemoveAddonSlot(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.resizeAddonForm(ctx, sessionID, -1)
}

// resizeAddonForm clamps the slot count to its bounds. Pressing past a
// bound is a no-op, not an error.
func (s *onboardingService) resizeAddonForm(ctx context.Context, sessionID string, delta int) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		form := &sess.Wizard.AddonForm
		if !form.Open {
			return utils.ErrAddonFormClosed
		}
		form.Slots = min(max(form.Slots+delta, models.MinAddonSlots), models.MaxAddonSlots)
		return nil
	})
}

func (s *onboardingService) CancelAddonForm(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		form := &sess.Wizard.AddonForm
		form.Open = false
		if !form.Locked {
			form.Slots = models.MinAddonSlots
		}
		return nil
	})
}

// CommitAddons saves every entry or none. Once saved the add-on choice
// is locked for the rest of the application.
func (s *onboardingService) CommitAddons(ctx context.Context, sessionID string, entries []models.AddonRequest) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		form := &sess.Wizard.AddonForm
		if form.Locked {
			return utils.ErrAddonsLocked
		}
		if !form.Open {
			return utils.ErrAddonFormClosed
		}
		if len(entries) != form.Slots {
			return utils.NewValidationError(creditDetailsStep,
				utils.FieldError{Field: wizard.FieldAddons, Message: wizard.MsgInvalidAddons})
		}

		cleaned := make([]models.AddonRequest, len(entries))
		var failures []utils.FieldError
		for i, e := range entries {
			e.Name = strings.TrimSpace(e.Name)
			e.Mobile = strings.TrimSpace(e.Mobile)
			e.DateOfBirth = strings.TrimSpace(e.DateOfBirth)
			cleaned[i] = e
			if !s.validAddon(e) {
				idx := i
				failures = append(failures, utils.FieldError{
					Field:   wizard.FieldAddons,
					Message: wizard.MsgInvalidAddons,
					Index:   &idx,
				})
			}
		}
		if len(failures) > 0 {
			return utils.NewValidationError(creditDetailsStep, failures...)
		}

		sess.Record.Addons = cleaned
		sess.Record.AddonRequired = true
		*form = models.AddonForm{Open: false, Slots: len(cleaned), Locked: true}
		return nil
	})
}

func (s *onboardingService) validAddon(e models.AddonRequest) bool {
	return utils.ValidName(e.Name) &&
		utils.ValidMobile(e.Mobile) &&
		utils.ValidAge(e.DateOfBirth, s.now()) &&
		e.Relationship.Valid()
}

func (s *onboardingService) SubmitCreditDetails(ctx context.Context, sessionID, fatherName string) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCreditDetails, func(sess *models.Session) error {
		sess.Record.FatherName = strings.TrimSpace(fatherName)
		return s.advance(sess, wizard.Facts{}, wizard.FieldFatherName)
	})
}
