package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/cardpoint/onboarding-service/internal/config"
	"github.com/cardpoint/onboarding-service/internal/utils"
)

// ReferenceNotifier tells the applicant their application reference.
type ReferenceNotifier interface {
	NotifyReference(ctx context.Context, mobile, reference string) error
}

type smsReferenceNotifier struct {
	cfg          *config.Config
	twilioClient *twilio.RestClient
}

// NewSMSReferenceNotifier texts the reference through Twilio.
func NewSMSReferenceNotifier(cfg *config.Config, twilioClient *twilio.RestClient) ReferenceNotifier {
	return &smsReferenceNotifier{cfg: cfg, twilioClient: twilioClient}
}

func (n *smsReferenceNotifier) NotifyReference(ctx context.Context, mobile, reference string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(utils.IndiaDialCode + mobile)
	params.SetFrom(n.cfg.LDFlag_TwilioFromPhone)
	params.SetBody(fmt.Sprintf(
		"Your %s credit card application %s has been submitted. Processing time: 2-3 business days.",
		n.cfg.OrganizationName, reference))

	_, sendErr := n.twilioClient.Api.CreateMessage(params)
	if sendErr != nil {
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return nil
}
