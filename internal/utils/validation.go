package utils

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the wire format for dates of birth (HTML date input).
const DateLayout = "2006-01-02"

const (
	MinApplicantAge = 18
	MaxApplicantAge = 100
)

var (
	mobileRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	panRegex    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRegex   = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// ValidMobile reports a 10-digit Indian mobile number starting with 6-9.
func ValidMobile(s string) bool {
	return mobileRegex.MatchString(s)
}

// ValidPAN is case-insensitive: the candidate is upper-cased before matching.
func ValidPAN(s string) bool {
	return panRegex.MatchString(strings.ToUpper(s))
}

// ValidEmail only checks the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

func ValidName(s string) bool {
	return len(strings.TrimSpace(s)) >= 2 && nameRegex.MatchString(s)
}

// ParseDate parses a date of birth in DateLayout.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AgeInYears subtracts calendar years only; month and day are ignored.
func AgeInYears(dob, now time.Time) int {
	return now.Year() - dob.Year()
}

// ValidAge reports whether dob (DateLayout) gives an age in
// [MinApplicantAge, MaxApplicantAge] relative to now.
func ValidAge(dob string, now time.Time) bool {
	t, ok := ParseDate(dob)
	if !ok {
		return false
	}
	age := AgeInYears(t, now)
	return age >= MinApplicantAge && age <= MaxApplicantAge
}
