package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	lookupsv2 "github.com/twilio/twilio-go/rest/lookups/v2"
)

// -----------------------------------------------------------------------
// 1) MOBILE NUMBER LOOKUP
// -----------------------------------------------------------------------

// ValidatePhoneNumber runs a Twilio Lookups V2 fetch for the national
// mobile (prefixed with +91) when validateWithTwilio is on and a client
// is available. Syntax is the caller's job (ValidMobile).
func ValidatePhoneNumber(
	ctx context.Context,
	mobile string,
	validateWithTwilio bool,
	tw *twilio.RestClient,
) (bool, error) {
	if !validateWithTwilio || tw == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	country := "IN"
	params := &lookupsv2.FetchPhoneNumberParams{CountryCode: &country}
	_, err := tw.LookupsV2.FetchPhoneNumber(IndiaDialCode+mobile, params)
	if err == nil {
		return true, nil
	}

	if restErr, ok := err.(*twilioclient.TwilioRestError); ok {
		if restErr.Status == 404 {
			return false, nil
		}
		return false, fmt.Errorf("%w: twilio lookup failed: %d %s",
			ErrExternalServiceFailure, restErr.Status, restErr.Error())
	}
	return false, fmt.Errorf("%w: %v", ErrExternalServiceFailure, err)
}

// -----------------------------------------------------------------------
// 2) EMAIL DELIVERABILITY
// -----------------------------------------------------------------------

func hasMX(ctx context.Context, domain string) bool {
	mx, err := net.DefaultResolver.LookupMX(ctx, domain)
	return err == nil && len(mx) > 0
}

// ValidateEmailDeliverability goes beyond ValidEmail only when
// validateWithSendGrid is on: the domain must have an MX record and the
// SendGrid verdict must be "valid" or "risky".
func ValidateEmailDeliverability(ctx context.Context, apiKey, email string, validateWithSendGrid bool) (bool, error) {
	if !validateWithSendGrid {
		return true, nil
	}

	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 || !hasMX(ctx, parts[1]) {
		return false, nil
	}

	req := sendgrid.GetRequest(apiKey, "/v3/validations/email", "https://api.sendgrid.com")
	req.Method = "POST"
	body, _ := json.Marshal(map[string]string{"email": email})
	req.Body = body

	resp, err := sendgrid.API(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrExternalServiceFailure, err)
	}

	switch resp.StatusCode {
	case 200:
		var sg struct {
			Result struct {
				Verdict string `json:"verdict"`
			} `json:"result"`
		}
		if jsonErr := json.Unmarshal([]byte(resp.Body), &sg); jsonErr != nil {
			return false, fmt.Errorf("sendgrid JSON decode: %w", jsonErr)
		}
		verdict := strings.ToLower(sg.Result.Verdict)
		return verdict == "valid" || verdict == "risky", nil
	case 400:
		return false, nil
	default:
		return false, fmt.Errorf("%w: sendgrid validation status %d", ErrExternalServiceFailure, resp.StatusCode)
	}
}
