package models

// Credit limit slider bounds, in rupees.
const (
	DefaultCreditLimit int64 = 50000
	MinCreditLimit     int64 = 25000
	MaxCreditLimit     int64 = 500000
	CreditLimitStep    int64 = 5000
)

// ApplicationRecord is the in-progress application. JSON keys match the
// persisted `userData` layout.
type ApplicationRecord struct {
	Mobile        string         `json:"mobile"`
	FullName      string         `json:"fullName"`
	DateOfBirth   string         `json:"dateOfBirth"`
	PAN           string         `json:"pan"`
	FatherName    string         `json:"fatherName"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"emailVerified"`
	CreditLimit   int64          `json:"creditLimit"`
	AddonRequired bool           `json:"addonRequired"`
	Addons        []AddonRequest `json:"addons"`
	SelectedCard  *CardProduct   `json:"selectedCard"`
	CardType      *DeliveryMode  `json:"cardType"`
	TermsAccepted bool           `json:"termsAccepted"`
}

// AddonRequest is one add-on card holder.
type AddonRequest struct {
	Name         string       `json:"name"`
	Mobile       string       `json:"mobile"`
	DateOfBirth  string       `json:"dob"`
	Relationship Relationship `json:"relationship"`
}

func NewApplicationRecord() ApplicationRecord {
	return ApplicationRecord{
		CreditLimit: DefaultCreditLimit,
		Addons:      []AddonRequest{},
	}
}

// Clone returns a copy that shares no slices or pointers with r.
func (r ApplicationRecord) Clone() ApplicationRecord {
	out := r
	out.Addons = make([]AddonRequest, len(r.Addons))
	copy(out.Addons, r.Addons)
	if r.SelectedCard != nil {
		c := *r.SelectedCard
		out.SelectedCard = &c
	}
	if r.CardType != nil {
		m := *r.CardType
		out.CardType = &m
	}
	return out
}

// ActiveAddons is the add-on list when it is authoritative, nil otherwise.
func (r ApplicationRecord) ActiveAddons() []AddonRequest {
	if !r.AddonRequired {
		return nil
	}
	return r.Addons
}
