package services

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
	"github.com/cardpoint/onboarding-service/internal/wizard"
)

const (
	testMobile = "9876543210"
	testEmail  = "jane@example.com"
)

var referencePattern = regexp.MustCompile(`^CP\d{8}$`)

type fixture struct {
	cfg      *config.Config
	svc      OnboardingService
	store    *repositories.MemoryStore
	clock    *fakeClock
	sched    *fakeScheduler
	renderer *recordingRenderer
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := &config.Config{
		OrganizationName:  utils.OrganizationName,
		SessionTTL:        30 * time.Minute,
		StatusGracePeriod: 5 * time.Second,
		OTPProvider:       config.OTPProviderDemo,
		OTPNotifyDelay:    time.Second,
		OTPCodeExpiry:     10 * time.Minute,
	}
	for _, o := range opts {
		o(cfg)
	}
	f := &fixture{
		cfg:      cfg,
		clock:    newFakeClock(),
		sched:    &fakeScheduler{},
		renderer: &recordingRenderer{},
		notifier: &recordingNotifier{},
	}
	f.store = repositories.NewMemoryStore(cfg.SessionTTL, f.clock.Now)
	otpProvider := NewDemoOTPProvider(f.sched, f.renderer, cfg.OTPNotifyDelay)
	f.svc = NewOnboardingService(cfg, f.store, otpProvider, f.notifier, f.renderer, f.sched, nil, f.clock.Now)
	return f
}

func (f *fixture) load(t *testing.T, sid string) *models.Session {
	t.Helper()
	sess, err := f.store.Load(context.Background(), sid)
	require.NoError(t, err)
	return sess
}

// advanceTo starts a session and fills every step before target with
// valid answers.
func (f *fixture) advanceTo(t *testing.T, target models.Step) string {
	t.Helper()
	ctx := context.Background()
	view, err := f.svc.Start(ctx)
	require.NoError(t, err)
	sid := view.SessionID

	steps := []func() (*models.WizardView, error){
		func() (*models.WizardView, error) {
			return f.svc.SubmitLogin(ctx, sid, testMobile, view.Captcha)
		},
		func() (*models.WizardView, error) {
			return f.svc.SubmitPersonalInfo(ctx, sid, "Jane Doe", "1996-04-20", "abcde1234f")
		},
		func() (*models.WizardView, error) {
			if _, err := f.svc.RequestEmailOTP(ctx, sid, testEmail); err != nil {
				return nil, err
			}
			if _, err := f.svc.VerifyEmailOTP(ctx, sid, utils.DemoOTPCode); err != nil {
				return nil, err
			}
			return f.svc.SubmitCreditDetails(ctx, sid, "John Doe")
		},
		func() (*models.WizardView, error) {
			if _, err := f.svc.SelectCard(ctx, sid, models.CardGold); err != nil {
				return nil, err
			}
			return f.svc.SubmitCardSelection(ctx, sid)
		},
		func() (*models.WizardView, error) {
			return f.svc.SubmitReview(ctx, sid, true)
		},
		func() (*models.WizardView, error) {
			return f.svc.SubmitDelivery(ctx, sid, models.DeliveryVirtual)
		},
	}
	for i := 0; models.Step(i) < target; i++ {
		v, err := steps[i]()
		require.NoError(t, err)
		require.Equal(t, models.Step(i+1), v.Step)
	}
	return sid
}

func fieldNames(err error) []string {
	var names []string
	for _, f := range fieldsOf(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestStartShowsLoginWithCaptcha(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StepLogin, view.Step)
	assert.Len(t, view.Captcha, utils.CaptchaLength)
	assert.False(t, view.CanGoBack)
	assert.Nil(t, view.Progress)
	assert.Equal(t, models.DefaultCreditLimit, view.Record.CreditLimit)
	assert.Equal(t, view, f.renderer.Last().View)
}

func TestFullApplicationFlow(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.LDFlag_SendReferenceSMS = true })
	ctx := context.Background()

	sid := f.advanceTo(t, models.StepPersonalInfo)

	view, err := f.svc.SubmitPersonalInfo(ctx, sid, "Jane Doe", "1996-04-20", "abcde1234f")
	require.NoError(t, err)
	require.Equal(t, models.StepCreditDetails, view.Step)
	assert.Equal(t, 33, view.Progress.Percent)

	view, err = f.svc.SetCreditLimit(ctx, sid, decimal.NewFromInt(100000))
	require.NoError(t, err)
	assert.Equal(t, int64(100000), view.Record.CreditLimit)

	_, err = f.svc.RequestEmailOTP(ctx, sid, testEmail)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, f.sched.Delays())
	f.sched.RunAll()
	assert.Equal(t, []string{DemoOTPNotice}, f.renderer.Notices())

	view, err = f.svc.VerifyEmailOTP(ctx, sid, utils.DemoOTPCode)
	require.NoError(t, err)
	assert.True(t, view.Record.EmailVerified)
	assert.Equal(t, models.EmailVerified, view.EmailOTP)

	view, err = f.svc.SubmitCreditDetails(ctx, sid, "John Doe")
	require.NoError(t, err)
	assert.Equal(t, models.StepCardSelection, view.Step)
	assert.Equal(t, 66, view.Progress.Percent)

	_, err = f.svc.SelectCard(ctx, sid, models.CardSignature)
	require.NoError(t, err)
	view, err = f.svc.SubmitCardSelection(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, models.StepReview, view.Step)
	require.NotNil(t, view.Summary)
	assert.Equal(t, utils.FormatINR(100000), view.Summary.CreditLimit)
	assert.Equal(t, "None", view.Summary.Addons)
	assert.Equal(t, "ABCDE1234F", view.Summary.PAN)

	view, err = f.svc.SubmitReview(ctx, sid, true)
	require.NoError(t, err)
	require.Equal(t, models.StepDeliveryChoice, view.Step)

	view, err = f.svc.SubmitDelivery(ctx, sid, models.DeliveryPhysical)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatus, view.Step)
	assert.Regexp(t, referencePattern, view.Reference)
	require.NotNil(t, view.ClearsAt)
	assert.Equal(t, f.clock.Now().Add(5*time.Second), *view.ClearsAt)
	assert.False(t, view.CanGoBack)
	assert.NotEmpty(t, view.Summary.Delivery)
	assert.Equal(t, models.ProcessingTime, view.Summary.ProcessingTime)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, sentReference{mobile: testMobile, reference: view.Reference}, f.notifier.sent[0])

	// Status is not left by navigation.
	_, err = f.svc.Back(ctx, sid)
	assert.ErrorIs(t, err, utils.ErrTerminalStep)
	again, err := f.svc.View(ctx, sid, stepPtr(models.StepLogin))
	require.NoError(t, err)
	assert.Equal(t, models.StepStatus, again.Step)

	// Grace period over: everything resets to a fresh Login.
	assert.Equal(t, []time.Duration{5 * time.Second}, f.sched.Delays())
	f.sched.RunAll()

	sess := f.load(t, sid)
	assert.Equal(t, models.StepLogin, sess.Wizard.Step)
	assert.Empty(t, sess.Record.Mobile)
	assert.Empty(t, sess.Wizard.Reference)
	assert.Len(t, sess.Captcha, utils.CaptchaLength)

	last := f.renderer.Last().View
	require.NotNil(t, last)
	assert.Equal(t, models.StepLogin, last.Step)
	assert.Equal(t, sess.Captcha, last.Captcha)
}

func TestSubmitLoginRejectsMalformedMobileWithoutNewCaptcha(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)

	view, err := f.svc.SubmitLogin(ctx, start.SessionID, "12345", start.Captcha)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldMobile}, fieldNames(err))
	assert.Equal(t, models.StepLogin, view.Step)
	assert.Equal(t, start.Captcha, view.Captcha)
}

func TestSubmitLoginWrongCaptchaRegenerates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)

	view, err := f.svc.SubmitLogin(ctx, start.SessionID, testMobile, "nope")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldCaptcha}, fieldNames(err))
	assert.Equal(t, models.StepLogin, view.Step)
	assert.NotEqual(t, start.Captcha, view.Captcha)

	last := f.renderer.Last()
	assert.Equal(t, view.Captcha, last.View.Captcha)
	assert.NotEmpty(t, last.Errors)

	sess := f.load(t, start.SessionID)
	assert.Empty(t, sess.Record.Mobile, "rejected login must not be persisted")
	assert.Equal(t, view.Captcha, sess.Captcha)

	// The old code no longer works, the new one does.
	_, err = f.svc.SubmitLogin(ctx, start.SessionID, testMobile, start.Captcha)
	require.ErrorIs(t, err, utils.ErrValidation)
	sess = f.load(t, start.SessionID)
	view, err = f.svc.SubmitLogin(ctx, start.SessionID, testMobile, sess.Captcha)
	require.NoError(t, err)
	assert.Equal(t, models.StepPersonalInfo, view.Step)
	assert.Equal(t, testMobile, view.Record.Mobile)
}

func TestSubmitLoginChecksCaptchaBeforeNumberLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)
	sid := start.SessionID

	lookups := 0
	known := false
	f.svc.(*onboardingService).lookupMobile = func(_ context.Context, mobile string) (bool, error) {
		lookups++
		assert.Equal(t, testMobile, mobile)
		return known, nil
	}

	// wrong answer: no lookup, fresh captcha
	view, err := f.svc.SubmitLogin(ctx, sid, testMobile, "wrong!")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldCaptcha}, fieldNames(err))
	assert.Zero(t, lookups)
	assert.NotEqual(t, start.Captcha, view.Captcha)

	// right answer, unknown number: one lookup, the challenge is spent
	solved := view.Captcha
	view, err = f.svc.SubmitLogin(ctx, sid, testMobile, solved)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldMobile}, fieldNames(err))
	assert.Equal(t, wizard.MsgUnknownMobile, fieldsOf(err)[0].Message)
	assert.Equal(t, 1, lookups)
	assert.Equal(t, models.StepLogin, view.Step)
	assert.NotEqual(t, solved, view.Captcha)
	assert.Empty(t, f.load(t, sid).Record.Mobile)

	known = true
	view, err = f.svc.SubmitLogin(ctx, sid, testMobile, view.Captcha)
	require.NoError(t, err)
	assert.Equal(t, 2, lookups)
	assert.Equal(t, models.StepPersonalInfo, view.Step)
}

func TestSubmitLoginLookupFailureKeepsCaptcha(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)

	f.svc.(*onboardingService).lookupMobile = func(context.Context, string) (bool, error) {
		return false, utils.ErrExternalServiceFailure
	}
	view, err := f.svc.SubmitLogin(ctx, start.SessionID, testMobile, start.Captcha)
	require.ErrorIs(t, err, utils.ErrExternalServiceFailure)
	assert.Equal(t, start.Captcha, view.Captcha)
}

func TestSubmitLoginOversizedAnswerRegenerates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)

	view, err := f.svc.SubmitLogin(ctx, start.SessionID, testMobile, strings.Repeat(start.Captcha, 10))
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldCaptcha}, fieldNames(err))
	assert.NotEqual(t, start.Captcha, view.Captcha)
}

func TestRefreshCaptcha(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)

	view, err := f.svc.RefreshCaptcha(ctx, start.SessionID)
	require.NoError(t, err)
	assert.NotEqual(t, start.Captcha, view.Captcha)

	sid := f.advanceTo(t, models.StepPersonalInfo)
	_, err = f.svc.RefreshCaptcha(ctx, sid)
	assert.ErrorIs(t, err, utils.ErrWrongStep)
}

func TestSubmitPersonalInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepPersonalInfo)

	view, err := f.svc.SubmitPersonalInfo(ctx, sid, "J", "2010-01-01", "BAD")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.ElementsMatch(t,
		[]string{wizard.FieldFullName, wizard.FieldDateOfBirth, wizard.FieldPAN}, fieldNames(err))
	assert.Equal(t, models.StepPersonalInfo, view.Step)
	assert.Empty(t, f.load(t, sid).Record.FullName)

	view, err = f.svc.SubmitPersonalInfo(ctx, sid, "  Jane Doe ", "1996-04-20", "abcde1234f")
	require.NoError(t, err)
	assert.Equal(t, models.StepCreditDetails, view.Step)
	assert.Equal(t, "Jane Doe", view.Record.FullName)
	assert.Equal(t, "ABCDE1234F", view.Record.PAN)
}

func TestOperationsOnTheWrongStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, err := f.svc.Start(ctx)
	require.NoError(t, err)
	sid := start.SessionID

	view, err := f.svc.SubmitPersonalInfo(ctx, sid, "Jane Doe", "1996-04-20", "ABCDE1234F")
	assert.ErrorIs(t, err, utils.ErrWrongStep)
	assert.Equal(t, models.StepLogin, view.Step)

	_, err = f.svc.OpenAddonForm(ctx, sid)
	assert.ErrorIs(t, err, utils.ErrWrongStep)
	_, err = f.svc.RequestEmailOTP(ctx, sid, testEmail)
	assert.ErrorIs(t, err, utils.ErrWrongStep)
	_, err = f.svc.SubmitDelivery(ctx, sid, models.DeliveryVirtual)
	assert.ErrorIs(t, err, utils.ErrWrongStep)

	assert.Equal(t, models.StepLogin, f.load(t, sid).Wizard.Step)
}

func TestSetCreditLimit(t *testing.T) {
	cases := []struct {
		amount string
		ok     bool
	}{
		{"25000", true},
		{"500000", true},
		{"75000", true},
		{"24999", false},
		{"20000", false},
		{"505000", false},
		{"27500", false},
		{"50000.5", false},
	}
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCreditDetails)

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			before := f.load(t, sid).Record.CreditLimit
			view, err := f.svc.SetCreditLimit(ctx, sid, decimal.RequireFromString(tc.amount))
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, decimal.RequireFromString(tc.amount).IntPart(), view.Record.CreditLimit)
				return
			}
			require.ErrorIs(t, err, utils.ErrValidation)
			assert.Equal(t, []string{wizard.FieldCreditLimit}, fieldNames(err))
			assert.Equal(t, before, f.load(t, sid).Record.CreditLimit)
		})
	}
}

func TestEmailVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCreditDetails)

	_, err := f.svc.VerifyEmailOTP(ctx, sid, utils.DemoOTPCode)
	require.ErrorIs(t, err, utils.ErrOTPNotRequested)

	_, err = f.svc.RequestEmailOTP(ctx, sid, "not-an-email")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldEmail}, fieldNames(err))

	// Leaving before verification: a bad father name is an input error,
	// a good one still hits the verification gate.
	_, err = f.svc.SubmitCreditDetails(ctx, sid, "")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.ElementsMatch(t, []string{wizard.FieldFatherName, wizard.FieldEmailVerified}, fieldNames(err))
	_, err = f.svc.SubmitCreditDetails(ctx, sid, "John Doe")
	require.ErrorIs(t, err, utils.ErrPreconditionFailed)
	assert.Equal(t, []string{wizard.FieldEmailVerified}, fieldNames(err))

	view, err := f.svc.RequestEmailOTP(ctx, sid, " "+testEmail+" ")
	require.NoError(t, err)
	assert.Equal(t, models.EmailOTPSent, view.EmailOTP)
	assert.Equal(t, testEmail, view.Record.Email)

	view, err = f.svc.VerifyEmailOTP(ctx, sid, "000000")
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldOTP}, fieldNames(err))
	assert.Equal(t, models.EmailOTPSent, view.EmailOTP)
	assert.False(t, f.load(t, sid).Record.EmailVerified)

	// A resend is allowed while the code is outstanding.
	_, err = f.svc.RequestEmailOTP(ctx, sid, testEmail)
	require.NoError(t, err)

	view, err = f.svc.VerifyEmailOTP(ctx, sid, utils.DemoOTPCode)
	require.NoError(t, err)
	assert.Equal(t, models.EmailVerified, view.EmailOTP)

	_, err = f.svc.RequestEmailOTP(ctx, sid, "other@example.com")
	require.ErrorIs(t, err, utils.ErrEmailAlreadyVerified)
	_, err = f.svc.VerifyEmailOTP(ctx, sid, utils.DemoOTPCode)
	require.ErrorIs(t, err, utils.ErrEmailAlreadyVerified)
	assert.Equal(t, testEmail, f.load(t, sid).Record.Email)
}

func TestAddonFormSlotBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCreditDetails)

	_, err := f.svc.AddAddonSlot(ctx, sid)
	require.ErrorIs(t, err, utils.ErrAddonFormClosed)

	view, err := f.svc.OpenAddonForm(ctx, sid)
	require.NoError(t, err)
	assert.True(t, view.AddonForm.Open)
	assert.Equal(t, 1, view.AddonForm.Slots)

	for i := 0; i < 5; i++ {
		view, err = f.svc.AddAddonSlot(ctx, sid)
		require.NoError(t, err)
	}
	assert.Equal(t, models.MaxAddonSlots, view.AddonForm.Slots)

	for i := 0; i < 5; i++ {
		view, err = f.svc.RemoveAddonSlot(ctx, sid)
		require.NoError(t, err)
	}
	assert.Equal(t, models.MinAddonSlots, view.AddonForm.Slots)

	view, err = f.svc.CancelAddonForm(ctx, sid)
	require.NoError(t, err)
	assert.False(t, view.AddonForm.Open)
	view, err = f.svc.CancelAddonForm(ctx, sid)
	require.NoError(t, err)
	assert.False(t, view.AddonForm.Open)
	assert.False(t, view.Record.AddonRequired)
}

func TestCommitAddonsIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCreditDetails)

	good := models.AddonRequest{
		Name: "Sam Doe", Mobile: "9123456789", DateOfBirth: "1980-01-01", Relationship: models.RelationshipSpouse,
	}
	bad := models.AddonRequest{
		Name: "Kid", Mobile: "123", DateOfBirth: "2020-01-01", Relationship: "cousin",
	}

	_, err := f.svc.CommitAddons(ctx, sid, []models.AddonRequest{good})
	require.ErrorIs(t, err, utils.ErrAddonFormClosed)

	_, err = f.svc.OpenAddonForm(ctx, sid)
	require.NoError(t, err)
	_, err = f.svc.AddAddonSlot(ctx, sid)
	require.NoError(t, err)

	_, err = f.svc.CommitAddons(ctx, sid, []models.AddonRequest{good})
	require.ErrorIs(t, err, utils.ErrValidation, "entry count must match the slots")

	view, err := f.svc.CommitAddons(ctx, sid, []models.AddonRequest{good, bad})
	require.ErrorIs(t, err, utils.ErrValidation)
	fields := fieldsOf(err)
	require.Len(t, fields, 1)
	require.NotNil(t, fields[0].Index)
	assert.Equal(t, 1, *fields[0].Index)
	assert.True(t, view.AddonForm.Open)

	sess := f.load(t, sid)
	assert.Empty(t, sess.Record.Addons)
	assert.False(t, sess.Record.AddonRequired)

	other := good
	other.Name = "Max Doe"
	other.Relationship = models.RelationshipParent
	view, err = f.svc.CommitAddons(ctx, sid, []models.AddonRequest{good, other})
	require.NoError(t, err)
	assert.True(t, view.Record.AddonRequired)
	assert.Len(t, view.Record.Addons, 2)
	assert.Equal(t, models.AddonForm{Open: false, Slots: 2, Locked: true}, view.AddonForm)

	_, err = f.svc.OpenAddonForm(ctx, sid)
	require.ErrorIs(t, err, utils.ErrAddonsLocked)
	_, err = f.svc.CommitAddons(ctx, sid, []models.AddonRequest{good, other})
	require.ErrorIs(t, err, utils.ErrAddonsLocked)
}

func TestCardSelectionAndReviewGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCardSelection)

	_, err := f.svc.SubmitCardSelection(ctx, sid)
	require.ErrorIs(t, err, utils.ErrPreconditionFailed)
	_, err = f.svc.SelectCard(ctx, sid, models.CardProduct("diamond"))
	require.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.SelectCard(ctx, sid, models.CardTitanium)
	require.NoError(t, err)
	view, err := f.svc.SubmitCardSelection(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, models.StepReview, view.Step)

	view, err = f.svc.SubmitReview(ctx, sid, false)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldTermsAccepted}, fieldNames(err))
	assert.Equal(t, models.StepReview, view.Step)
}

func TestSubmitDeliveryRejectsUnknownMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepDeliveryChoice)

	view, err := f.svc.SubmitDelivery(ctx, sid, models.DeliveryMode("drone"))
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, models.StepDeliveryChoice, view.Step)
	assert.Nil(t, f.load(t, sid).Record.CardType)
	assert.NotContains(t, f.sched.Delays(), 5*time.Second)
	assert.Empty(t, f.notifier.sent, "notifications are off by default")
}

func TestBackKeepsAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx)
	require.NoError(t, err)
	_, err = f.svc.Back(ctx, start.SessionID)
	require.ErrorIs(t, err, utils.ErrNoPreviousStep)

	sid := f.advanceTo(t, models.StepCreditDetails)
	view, err := f.svc.Back(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, models.StepPersonalInfo, view.Step)
	assert.Equal(t, "Jane Doe", view.Record.FullName)

	captchaBefore := f.load(t, sid).Captcha
	view, err = f.svc.Back(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogin, view.Step)
	assert.Equal(t, testMobile, view.Record.Mobile)
	assert.NotEqual(t, captchaBefore, view.Captcha)
}

func TestViewResumesPersistedStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepCreditDetails)

	view, err := f.svc.View(ctx, sid, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StepCreditDetails, view.Step)

	view, err = f.svc.View(ctx, sid, stepPtr(models.StepReview))
	require.NoError(t, err)
	assert.Equal(t, models.StepCreditDetails, view.Step, "cannot skip ahead")

	view, err = f.svc.View(ctx, sid, stepPtr(models.StepPersonalInfo))
	require.NoError(t, err)
	assert.Equal(t, models.StepPersonalInfo, view.Step)
	assert.Equal(t, "ABCDE1234F", view.Record.PAN)
}

func TestViewRevisitingLoginIssuesNewCaptcha(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.advanceTo(t, models.StepPersonalInfo)
	solved := f.load(t, sid).Captcha

	view, err := f.svc.View(ctx, sid, stepPtr(models.StepLogin))
	require.NoError(t, err)
	assert.Equal(t, models.StepLogin, view.Step)
	assert.NotEqual(t, solved, view.Captcha)
	assert.Equal(t, testMobile, view.Record.Mobile)

	// reloading Login itself keeps the code on screen
	again, err := f.svc.View(ctx, sid, stepPtr(models.StepLogin))
	require.NoError(t, err)
	assert.Equal(t, view.Captcha, again.Captcha)

	_, err = f.svc.SubmitLogin(ctx, sid, testMobile, solved)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Equal(t, []string{wizard.FieldCaptcha}, fieldNames(err))
}

func TestViewOfUnknownSessionStartsFresh(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.View(context.Background(), "6f1c2d4e-0000-4000-8000-000000000000", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogin, view.Step)
	assert.Len(t, view.Captcha, utils.CaptchaLength)
}

func TestCatalogAndDeliveryOptions(t *testing.T) {
	f := newFixture(t)
	assert.Len(t, f.svc.Catalog(), 4)
	assert.Len(t, f.svc.DeliveryOptions(), 2)
}

func stepPtr(s models.Step) *models.Step {
	return &s
}
