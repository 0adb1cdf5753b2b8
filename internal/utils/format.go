package utils

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders a rupee amount with the en-IN digit grouping (₹5,00,000).
func FormatINR(amount int64) string {
	return "₹" + inrPrinter.Sprintf("%d", amount)
}

// FormatDOB renders a DateLayout date for summaries; unparseable input is
// returned as-is.
func FormatDOB(dob string) string {
	t, ok := ParseDate(dob)
	if !ok {
		return dob
	}
	return t.Format("02 Jan 2006")
}

// FormatMobile prefixes the national number with the country dial code.
func FormatMobile(mobile string) string {
	if mobile == "" {
		return ""
	}
	return IndiaDialCode + " " + mobile
}

// ReferenceFromTime is the prefix followed by the last 8 digits of the
// millisecond timestamp.
func ReferenceFromTime(t time.Time) string {
	ms := t.UnixMilli()
	digits := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		digits[i] = byte('0' + ms%10)
		ms /= 10
	}
	return ReferencePrefix + string(digits)
}
