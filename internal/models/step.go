package models

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Step is one state of the onboarding wizard. The declaration order is
// the wizard order.
type Step int

const (
	StepLogin Step = iota
	StepPersonalInfo
	StepCreditDetails
	StepCardSelection
	StepReview
	StepDeliveryChoice
	StepStatus
)

var stepNames = [...]string{
	StepLogin:          "login",
	StepPersonalInfo:   "personal_info",
	StepCreditDetails:  "credit_details",
	StepCardSelection:  "card_selection",
	StepReview:         "review",
	StepDeliveryChoice: "delivery_choice",
	StepStatus:         "status",
}

// Steps lists every step in wizard order.
func Steps() []Step {
	return []Step{
		StepLogin,
		StepPersonalInfo,
		StepCreditDetails,
		StepCardSelection,
		StepReview,
		StepDeliveryChoice,
		StepStatus,
	}
}

func (s Step) Valid() bool {
	return s >= StepLogin && s <= StepStatus
}

func (s Step) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep converts a step name ("personal_info", ...) to the enum.
func ParseStep(s string) (Step, error) {
	for i, name := range stepNames {
		if name == s {
			return Step(i), nil
		}
	}
	return -1, fmt.Errorf("invalid step: %q", s)
}

func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step: %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	parsed, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// EncodeMsgpack writes the step name as a msgpack str so binary clients
// and the redis wizard field see the same names as JSON.
func (s Step) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !s.Valid() {
		return fmt.Errorf("invalid step: %d", int(s))
	}
	return enc.EncodeString(s.String())
}

// DecodeMsgpack also accepts bin payloads written before steps were
// encoded as str.
func (s *Step) DecodeMsgpack(dec *msgpack.Decoder) error {
	name, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := ParseStep(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
