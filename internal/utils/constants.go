package utils

import (
	"regexp"
)

const (
	OrganizationName                      = "CardPoint"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// IndiaDialCode prefixes the 10-digit mobile for E.164 lookups and display.
	IndiaDialCode = "+91"

	// DemoOTPCode is the only code the demo OTP provider accepts.
	DemoOTPCode = "123456"

	ReferencePrefix = "CP"

	TestEmailSuffix       = "testing@cardpoint.example"
	TestEmailRegexPattern = `^[0-9]+` + TestEmailSuffix + `$`
	TestMobilePrefix      = "99999"
)

// Pre-compile the test email regex.
var TestEmailRegex = regexp.MustCompile(TestEmailRegexPattern)
