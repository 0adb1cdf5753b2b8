package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/twilio/twilio-go"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
	"github.com/cardpoint/onboarding-service/internal/wizard"
)

// OnboardingService drives one applicant through the wizard. Every
// operation returns the view to render; on failure the view reflects the
// unchanged session and the error says why.
type OnboardingService interface {
	Start(ctx context.Context) (*models.WizardView, error)
	View(ctx context.Context, sessionID string, requested *models.Step) (*models.WizardView, error)
	Back(ctx context.Context, sessionID string) (*models.WizardView, error)

	// Login
	RefreshCaptcha(ctx context.Context, sessionID string) (*models.WizardView, error)
	SubmitLogin(ctx context.Context, sessionID, mobile, captchaAnswer string) (*models.WizardView, error)

	// Personal info
	SubmitPersonalInfo(ctx context.Context, sessionID, fullName, dateOfBirth, pan string) (*models.WizardView, error)

	// Credit details
	SetCreditLimit(ctx context.Context, sessionID string, amount decimal.Decimal) (*models.WizardView, error)
	RequestEmailOTP(ctx context.Context, sessionID, email string) (*models.WizardView, error)
	VerifyEmailOTP(ctx context.Context, sessionID, code string) (*models.WizardView, error)
	OpenAddonForm(ctx context.Context, sessionID string) (*models.WizardView, error)
	AddAddonSlot(ctx context.Context, sessionID string) (*models.WizardView, error)
	RemoveAddonSlot(ctx context.Context, sessionID string) (*models.WizardView, error)
	CancelAddonForm(ctx context.Context, sessionID string) (*models.WizardView, error)
	CommitAddons(ctx context.Context, sessionID string, entries []models.AddonRequest) (*models.WizardView, error)
	SubmitCreditDetails(ctx context.Context, sessionID, fatherName string) (*models.WizardView, error)

	// Card selection, review, delivery
	SelectCard(ctx context.Context, sessionID string, card models.CardProduct) (*models.WizardView, error)
	SubmitCardSelection(ctx context.Context, sessionID string) (*models.WizardView, error)
	SubmitReview(ctx context.Context, sessionID string, accepted bool) (*models.WizardView, error)
	SubmitDelivery(ctx context.Context, sessionID string, mode models.DeliveryMode) (*models.WizardView, error)

	Catalog() []models.CardInfo
	DeliveryOptions() []models.DeliveryOption
}

type onboardingService struct {
	cfg          *config.Config
	sessions     repositories.SessionRepository
	otp          OTPProvider
	notifier     ReferenceNotifier
	renderer     Renderer
	scheduler    Scheduler
	twilioClient *twilio.RestClient
	machine      *wizard.Machine
	now          func() time.Time

	// lookupMobile confirms a syntactically valid number exists.
	lookupMobile func(ctx context.Context, mobile string) (bool, error)
}

// NewOnboardingService wires the wizard. notifier, renderer and
// twilioClient may be nil.
func NewOnboardingService(
	cfg *config.Config,
	sessions repositories.SessionRepository,
	otpProvider OTPProvider,
	notifier ReferenceNotifier,
	renderer Renderer,
	scheduler Scheduler,
	twilioClient *twilio.RestClient,
	now func() time.Time,
) OnboardingService {
	if now == nil {
		now = time.Now
	}
	if scheduler == nil {
		scheduler = NewScheduler()
	}
	svc := &onboardingService{
		cfg:          cfg,
		sessions:     sessions,
		otp:          otpProvider,
		notifier:     notifier,
		renderer:     renderer,
		scheduler:    scheduler,
		twilioClient: twilioClient,
		machine:      wizard.NewMachine(now),
		now:          now,
	}
	svc.lookupMobile = func(ctx context.Context, mobile string) (bool, error) {
		return utils.ValidatePhoneNumber(ctx, mobile, cfg.LDFlag_ValidatePhoneWithTwilio, twilioClient)
	}
	return svc
}

// ---------------------------------------------------------------------
// Plumbing
// ---------------------------------------------------------------------

// apply runs op against the session when it sits on owner and persists
// the result. A failing op leaves the stored session untouched.
func (s *onboardingService) apply(
	ctx context.Context,
	sessionID string,
	owner models.Step,
	op func(sess *models.Session) error,
) (*models.WizardView, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if err := requireStep(sess, owner); err != nil {
			return err
		}
		return op(sess)
	})
	if err != nil {
		return s.fail(ctx, sessionID, err)
	}
	return s.render(sess), nil
}

// fail renders the stored session alongside err.
func (s *onboardingService) fail(ctx context.Context, sessionID string, err error) (*models.WizardView, error) {
	sess, loadErr := s.sessions.Load(ctx, sessionID)
	if loadErr != nil {
		utils.Logger.WithError(loadErr).Error("Failed to load session for error view")
		return nil, err
	}
	view := BuildView(sess)
	if s.renderer != nil {
		s.renderer.Render(sessionID, RenderEvent{View: view, Errors: fieldsOf(err)})
	}
	return view, err
}

func (s *onboardingService) render(sess *models.Session) *models.WizardView {
	view := BuildView(sess)
	if s.renderer != nil {
		s.renderer.Render(sess.ID, RenderEvent{View: view})
	}
	return view
}

func requireStep(sess *models.Session, owner models.Step) error {
	if sess.Wizard.Step != owner {
		return fmt.Errorf("%w: session is on %s, not %s", utils.ErrWrongStep, sess.Wizard.Step, owner)
	}
	return nil
}

// advance moves sess past its current step. Gate failures on fields the
// caller just submitted are input errors; otherwise the step's
// precondition is unmet.
func (s *onboardingService) advance(sess *models.Session, facts wizard.Facts, submitted ...string) error {
	next, err := s.machine.Advance(sess.Wizard.Step, &sess.Record, facts)
	if err == nil {
		sess.Wizard.Step = next
		return nil
	}
	var pe *utils.PreconditionError
	if !errors.As(err, &pe) {
		return err
	}
	for _, f := range pe.Fields {
		for _, name := range submitted {
			if f.Field == name {
				return utils.NewValidationError(pe.Step, pe.Fields...)
			}
		}
	}
	return pe
}

func fieldsOf(err error) []utils.FieldError {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	var pe *utils.PreconditionError
	if errors.As(err, &pe) {
		return pe.Fields
	}
	return nil
}

func ensureCaptcha(sess *models.Session) error {
	if sess.Wizard.Step != models.StepLogin || sess.Captcha != "" {
		return nil
	}
	return regenerateCaptcha(sess)
}

func regenerateCaptcha(sess *models.Session) error {
	code, err := utils.GenerateCaptcha()
	if err != nil {
		return err
	}
	sess.Captcha = code
	return nil
}

// ---------------------------------------------------------------------
// Session lifecycle and navigation
// ---------------------------------------------------------------------

func (s *onboardingService) Start(ctx context.Context) (*models.WizardView, error) {
	sess := models.NewSession(uuid.NewString())
	if err := regenerateCaptcha(sess); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	utils.Logger.WithField("session", sess.ID).Info("Onboarding session started")
	return s.render(sess), nil
}

func (s *onboardingService) View(ctx context.Context, sessionID string, requested *models.Step) (*models.WizardView, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		from := sess.Wizard.Step
		sess.Wizard.Step = wizard.Resume(from, requested)
		if from != models.StepLogin && sess.Wizard.Step == models.StepLogin {
			// revisiting Login never reuses the solved challenge
			return regenerateCaptcha(sess)
		}
		return ensureCaptcha(sess)
	})
	if err != nil {
		return nil, err
	}
	return s.render(sess), nil
}

func (s *onboardingService) Back(ctx context.Context, sessionID string) (*models.WizardView, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		prev, err := wizard.Back(sess.Wizard.Step)
		if err != nil {
			return err
		}
		sess.Wizard.Step = prev
		if prev == models.StepLogin {
			return regenerateCaptcha(sess)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, sessionID, err)
	}
	return s.render(sess), nil
}

// ---------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------

func (s *onboardingService) RefreshCaptcha(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepLogin, regenerateCaptcha)
}

func (s *onboardingService) SubmitLogin(ctx context.Context, sessionID, mobile, captchaAnswer string) (*models.WizardView, error) {
	mobile = strings.TrimSpace(mobile)
	step := models.StepLogin.String()

	if !utils.ValidMobile(mobile) {
		return s.failOnStep(ctx, sessionID, models.StepLogin, utils.NewValidationError(step,
			utils.FieldError{Field: wizard.FieldMobile, Message: wizard.MsgInvalidMobile}))
	}

	// The captcha gates the paid number lookup.
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(sess, models.StepLogin); err != nil {
		return s.fail(ctx, sessionID, err)
	}
	if !utils.CheckCaptcha(sess.Captcha, captchaAnswer) {
		return s.burnCaptcha(ctx, sessionID, utils.NewValidationError(step,
			utils.FieldError{Field: wizard.FieldCaptcha, Message: wizard.MsgInvalidCaptcha}))
	}

	if !s.isTestMobile(mobile) {
		ok, err := s.lookupMobile(ctx, mobile)
		if err != nil {
			return s.fail(ctx, sessionID, err)
		}
		if !ok {
			// a solved challenge buys one lookup
			return s.burnCaptcha(ctx, sessionID, utils.NewValidationError(step,
				utils.FieldError{Field: wizard.FieldMobile, Message: wizard.MsgUnknownMobile}))
		}
	}

	view, err := s.apply(ctx, sessionID, models.StepLogin, func(sess *models.Session) error {
		// re-checked in case the captcha was refreshed since the read above
		passed := utils.CheckCaptcha(sess.Captcha, captchaAnswer)
		sess.Record.Mobile = mobile
		return s.advance(sess, wizard.Facts{CaptchaPassed: passed}, wizard.FieldMobile, wizard.FieldCaptcha)
	})
	if err == nil {
		utils.Logger.WithField("session", sessionID).WithField("mobile", utils.Mask(mobile)).Info("Login step passed")
		return view, nil
	}
	if !errors.Is(err, utils.ErrValidation) {
		return view, err
	}
	return s.burnCaptcha(ctx, sessionID, err)
}

// burnCaptcha replaces the captcha after a failed login attempt and
// renders the fresh code alongside cause.
func (s *onboardingService) burnCaptcha(ctx context.Context, sessionID string, cause error) (*models.WizardView, error) {
	regen, err := s.apply(ctx, sessionID, models.StepLogin, regenerateCaptcha)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to regenerate captcha after a failed login")
		return regen, cause
	}
	if s.renderer != nil {
		s.renderer.Render(sessionID, RenderEvent{View: regen, Errors: fieldsOf(cause)})
	}
	return regen, cause
}

func (s *onboardingService) isTestMobile(mobile string) bool {
	return s.cfg.LDFlag_AcceptFakePhonesEmails && strings.HasPrefix(mobile, utils.TestMobilePrefix)
}

// failOnStep reports a wrong step in preference to an input error
// detected before the session was read.
func (s *onboardingService) failOnStep(ctx context.Context, sessionID string, owner models.Step, err error) (*models.WizardView, error) {
	sess, loadErr := s.sessions.Load(ctx, sessionID)
	if loadErr == nil {
		if stepErr := requireStep(sess, owner); stepErr != nil {
			err = stepErr
		}
	}
	return s.fail(ctx, sessionID, err)
}

// ---------------------------------------------------------------------
// Personal info
// ---------------------------------------------------------------------

func (s *onboardingService) SubmitPersonalInfo(
	ctx context.Context,
	sessionID, fullName, dateOfBirth, pan string,
) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepPersonalInfo, func(sess *models.Session) error {
		sess.Record.FullName = strings.TrimSpace(fullName)
		sess.Record.DateOfBirth = strings.TrimSpace(dateOfBirth)
		sess.Record.PAN = strings.ToUpper(strings.TrimSpace(pan))
		return s.advance(sess, wizard.Facts{},
			wizard.FieldFullName, wizard.FieldDateOfBirth, wizard.FieldPAN)
	})
}

// ---------------------------------------------------------------------
// Card selection, review, delivery
// ---------------------------------------------------------------------

func (s *onboardingService) SelectCard(ctx context.Context, sessionID string, card models.CardProduct) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCardSelection, func(sess *models.Session) error {
		if !card.Valid() {
			return utils.NewValidationError(models.StepCardSelection.String(),
				utils.FieldError{Field: wizard.FieldSelectedCard, Message: wizard.MsgSelectCard})
		}
		sess.Record.SelectedCard = &card
		return nil
	})
}

func (s *onboardingService) SubmitCardSelection(ctx context.Context, sessionID string) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepCardSelection, func(sess *models.Session) error {
		return s.advance(sess, wizard.Facts{})
	})
}

func (s *onboardingService) SubmitReview(ctx context.Context, sessionID string, accepted bool) (*models.WizardView, error) {
	return s.apply(ctx, sessionID, models.StepReview, func(sess *models.Session) error {
		sess.Record.TermsAccepted = accepted
		return s.advance(sess, wizard.Facts{}, wizard.FieldTermsAccepted)
	})
}

func (s *onboardingService) SubmitDelivery(ctx context.Context, sessionID string, mode models.DeliveryMode) (*models.WizardView, error) {
	view, err := s.apply(ctx, sessionID, models.StepDeliveryChoice, func(sess *models.Session) error {
		sess.Record.CardType = &mode
		if err := s.advance(sess, wizard.Facts{}, wizard.FieldCardType); err != nil {
			return err
		}
		now := s.now()
		clearAt := now.Add(s.cfg.StatusGracePeriod)
		sess.Wizard.Reference = utils.ReferenceFromTime(now)
		sess.Wizard.CompletedAt = &now
		sess.Wizard.ClearAt = &clearAt
		return nil
	})
	if err != nil {
		return view, err
	}

	utils.Logger.WithField("session", sessionID).WithField("reference", view.Reference).
		Info("Credit card application submitted")

	s.scheduler.AfterFunc(s.cfg.StatusGracePeriod, func() {
		s.clearSession(sessionID)
	})

	if s.cfg.LDFlag_SendReferenceSMS && s.notifier != nil {
		if nErr := s.notifier.NotifyReference(ctx, view.Record.Mobile, view.Reference); nErr != nil {
			utils.Logger.WithError(nErr).WithField("session", sessionID).Warn("Failed to send application reference SMS")
		}
	}
	return view, nil
}

// clearSession wipes a submitted application once the grace period is
// over and shows the fresh Login step to anyone still watching.
func (s *onboardingService) clearSession(sessionID string) {
	ctx := context.Background()
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		utils.Logger.WithError(err).WithField("session", sessionID).Error("Failed to clear submitted session")
		return
	}
	if _, err := s.View(ctx, sessionID, nil); err != nil {
		utils.Logger.WithError(err).WithField("session", sessionID).Warn("Failed to render cleared session")
	}
}

// ---------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------

func (s *onboardingService) Catalog() []models.CardInfo {
	return models.Catalog()
}

func (s *onboardingService) DeliveryOptions() []models.DeliveryOption {
	return models.DeliveryOptions()
}
