package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/repositories"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

type fakeEmailSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (s *fakeEmailSender) Send(m *mail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, m)
	if s.err != nil {
		return nil, s.err
	}
	status := s.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

// lastCode pulls the code out of the plain-text body.
func (s *fakeEmailSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.sent)
	m := s.sent[len(s.sent)-1]
	require.NotEmpty(t, m.Content)
	fields := strings.Fields(m.Content[0].Value)
	return fields[len(fields)-1]
}

type emailOTPFixture struct {
	cfg    *config.Config
	clock  *fakeClock
	repo   repositories.OTPChallengeRepository
	sender *fakeEmailSender
	p      OTPProvider
}

func newEmailOTPFixture(opts ...func(*config.Config)) *emailOTPFixture {
	cfg := &config.Config{
		OrganizationName:           utils.OrganizationName,
		OTPCodeExpiry:              10 * time.Minute,
		LDFlag_SendgridFromEmail:   "no-reply@cardpoint.example",
		LDFlag_SendgridSandboxMode: true,
	}
	for _, o := range opts {
		o(cfg)
	}
	f := &emailOTPFixture{cfg: cfg, clock: newFakeClock(), sender: &fakeEmailSender{}}
	f.repo = repositories.NewMemoryOTPChallengeRepository(f.clock.Now)
	f.p = NewEmailOTPProvider(cfg, f.repo, f.sender, f.clock.Now)
	return f
}

func TestDemoOTPProvider(t *testing.T) {
	sched := &fakeScheduler{}
	renderer := &recordingRenderer{}
	p := NewDemoOTPProvider(sched, renderer, time.Second)
	ctx := context.Background()

	id, err := p.Send(ctx, OTPRequest{SessionID: "s1", Email: "a@b.co"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, renderer.Notices(), "notice waits for the delay")

	sched.RunAll()
	assert.Equal(t, []string{DemoOTPNotice}, renderer.Notices())
	assert.Equal(t, "s1", renderer.events[0].sessionID)

	ok, err := p.Verify(ctx, id, utils.DemoOTPCode)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = p.Verify(ctx, id, "654321")
	assert.False(t, ok)
	ok, _ = p.Verify(ctx, "", utils.DemoOTPCode)
	assert.False(t, ok)
}

func TestEmailOTPProviderSendsAndVerifies(t *testing.T) {
	f := newEmailOTPFixture()
	ctx := context.Background()

	id, err := f.p.Send(ctx, OTPRequest{SessionID: "s1", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Len(t, f.sender.sent, 1)

	msg := f.sender.sent[0]
	assert.Equal(t, "jane@example.com", msg.Personalizations[0].To[0].Address)
	require.NotNil(t, msg.MailSettings)
	require.NotNil(t, msg.MailSettings.SandboxMode)
	assert.True(t, *msg.MailSettings.SandboxMode.Enable)

	code := f.sender.lastCode(t)
	assert.Len(t, code, 6)

	ok, err := f.p.Verify(ctx, id, "000000")
	require.NoError(t, err)
	if code != "000000" {
		assert.False(t, ok)
		rec, err := f.repo.GetChallenge(ctx, uuid.MustParse(id))
		require.NoError(t, err)
		assert.Equal(t, 1, rec.Attempts)
	}

	f.clock.Advance(time.Minute)
	ok, err = f.p.Verify(ctx, id, code)
	require.NoError(t, err)
	assert.True(t, ok)

	// A code is good once.
	ok, err = f.p.Verify(ctx, id, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmailOTPProviderExpiry(t *testing.T) {
	f := newEmailOTPFixture()
	ctx := context.Background()

	id, err := f.p.Send(ctx, OTPRequest{Email: "jane@example.com"})
	require.NoError(t, err)
	code := f.sender.lastCode(t)

	f.clock.Advance(11 * time.Minute)
	ok, err := f.p.Verify(ctx, id, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmailOTPProviderFixedCodeForTestEmails(t *testing.T) {
	f := newEmailOTPFixture(func(c *config.Config) { c.LDFlag_AcceptFakePhonesEmails = true })
	ctx := context.Background()

	id, err := f.p.Send(ctx, OTPRequest{Email: "42" + utils.TestEmailSuffix})
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)

	ok, err := f.p.Verify(ctx, id, utils.DemoOTPCode)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmailOTPProviderSendFailures(t *testing.T) {
	cases := map[string]*fakeEmailSender{
		"transport": {err: errors.New("connection reset")},
		"status":    {status: 500},
	}
	for name, sender := range cases {
		t.Run(name, func(t *testing.T) {
			f := newEmailOTPFixture()
			p := NewEmailOTPProvider(f.cfg, f.repo, sender, f.clock.Now)
			_, err := p.Send(context.Background(), OTPRequest{Email: "jane@example.com"})
			assert.ErrorIs(t, err, utils.ErrExternalServiceFailure)
		})
	}
}

func TestEmailOTPProviderUnknownChallenge(t *testing.T) {
	f := newEmailOTPFixture()
	ok, err := f.p.Verify(context.Background(), "not-a-uuid", "123456")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.p.Verify(context.Background(), uuid.NewString(), "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}
