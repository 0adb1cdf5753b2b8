package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/models"
	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// OTPRequest names who asked for a code and where it goes.
type OTPRequest struct {
	SessionID string
	Email     string
}

// OTPProvider issues and checks email verification codes.
type OTPProvider interface {
	// Send issues a code for req.Email and returns the challenge id the
	// code is later verified against.
	Send(ctx context.Context, req OTPRequest) (string, error)
	Verify(ctx context.Context, challengeID, code string) (bool, error)
}

// ---------------------------------------------------------------------
// Demo provider
// ---------------------------------------------------------------------

// DemoOTPNotice is what the demo provider announces after a send.
const DemoOTPNotice = "OTP: " + utils.DemoOTPCode + " (Demo)"

type demoOTPProvider struct {
	scheduler Scheduler
	renderer  Renderer
	delay     time.Duration
}

// NewDemoOTPProvider accepts only the fixed demo code. The code is
// announced to the session's subscribers after delay.
func NewDemoOTPProvider(scheduler Scheduler, renderer Renderer, delay time.Duration) OTPProvider {
	return &demoOTPProvider{scheduler: scheduler, renderer: renderer, delay: delay}
}

func (p *demoOTPProvider) Send(_ context.Context, req OTPRequest) (string, error) {
	id := uuid.NewString()
	p.scheduler.AfterFunc(p.delay, func() {
		utils.Logger.WithField("email", utils.Mask(req.Email)).Info(DemoOTPNotice)
		if p.renderer != nil {
			p.renderer.Render(req.SessionID, RenderEvent{Notice: DemoOTPNotice})
		}
	})
	return id, nil
}

func (p *demoOTPProvider) Verify(_ context.Context, challengeID, code string) (bool, error) {
	return challengeID != "" && code == utils.DemoOTPCode, nil
}

// ---------------------------------------------------------------------
// Email provider (TOTP codes over SendGrid)
// ---------------------------------------------------------------------

// EmailSender is the part of *sendgrid.Client the provider uses.
type EmailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type emailOTPProvider struct {
	cfg    *config.Config
	repo   repositories.OTPChallengeRepository
	sender EmailSender
	now    func() time.Time
}

func NewEmailOTPProvider(
	cfg *config.Config,
	repo repositories.OTPChallengeRepository,
	sender EmailSender,
	now func() time.Time,
) OTPProvider {
	if now == nil {
		now = time.Now
	}
	return &emailOTPProvider{cfg: cfg, repo: repo, sender: sender, now: now}
}

func (p *emailOTPProvider) totpOpts() totp.ValidateOpts {
	period := uint(p.cfg.OTPCodeExpiry / time.Second)
	if period == 0 {
		period = 30
	}
	return totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (p *emailOTPProvider) Send(ctx context.Context, req OTPRequest) (string, error) {
	now := p.now()
	challenge := &models.OTPChallenge{
		ID:        uuid.New(),
		Email:     req.Email,
		ExpiresAt: now.Add(p.cfg.OTPCodeExpiry),
	}

	if p.cfg.LDFlag_AcceptFakePhonesEmails && utils.TestEmailRegex.MatchString(req.Email) {
		challenge.FixedCode = utils.DemoOTPCode
		if err := p.repo.CreateChallenge(ctx, challenge); err != nil {
			return "", err
		}
		return challenge.ID.String(), nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.cfg.OrganizationName,
		AccountName: req.Email,
	})
	if err != nil {
		return "", err
	}
	challenge.Secret = key.Secret()

	code, err := totp.GenerateCodeCustom(challenge.Secret, now, p.totpOpts())
	if err != nil {
		return "", err
	}
	if err := p.repo.CreateChallenge(ctx, challenge); err != nil {
		return "", err
	}

	from := mail.NewEmail(p.cfg.OrganizationName, p.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail("", req.Email)
	subject := p.cfg.OrganizationName + " - Email Verification Code"
	plainTextContent := fmt.Sprintf("Your verification code is %s", code)
	htmlContent := fmt.Sprintf(otpEmailHTML,
		"Verify your email",
		fmt.Sprintf("Use this code to verify your email for your credit card application. It expires in %d minutes.",
			int(p.cfg.OTPCodeExpiry/time.Minute)),
		code, now.Year(), p.cfg.OrganizationName)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	if p.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		message.MailSettings = ms
	}

	resp, sendErr := p.sender.Send(message)
	if sendErr == nil && resp != nil && resp.StatusCode >= 400 {
		sendErr = fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send OTP email to %s via SendGrid", utils.Mask(req.Email))
		return "", fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return challenge.ID.String(), nil
}

func (p *emailOTPProvider) Verify(ctx context.Context, challengeID, code string) (bool, error) {
	id, err := uuid.Parse(challengeID)
	if err != nil {
		return false, nil
	}
	rec, err := p.repo.GetChallenge(ctx, id)
	if err != nil || rec == nil {
		return false, err
	}
	if rec.Verified {
		return false, nil
	}

	now := p.now()
	ok := false
	switch {
	case now.After(rec.ExpiresAt):
	case rec.FixedCode != "":
		ok = code == rec.FixedCode
	default:
		ok, err = totp.ValidateCustom(code, rec.Secret, now, p.totpOpts())
		if err != nil {
			ok = false
		}
	}

	if !ok {
		if incErr := p.repo.IncrementAttempts(ctx, rec.ID); incErr != nil {
			utils.Logger.WithError(incErr).Error("Failed to increment OTP attempts")
		}
		return false, nil
	}
	if err := p.repo.MarkVerified(ctx, rec.ID); err != nil {
		return false, err
	}
	return true, nil
}
