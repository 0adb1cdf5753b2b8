package models

// CardInfo describes a card product for the selection grid.
type CardInfo struct {
	ID       CardProduct `json:"id"`
	Name     string      `json:"name"`
	Image    string      `json:"image"`
	Features []string    `json:"features"`
}

var cardCatalog = []CardInfo{
	{
		ID:       CardPlatinum,
		Name:     "Platinum Rewards",
		Image:    "PLAT",
		Features: []string{"5x Rewards on dining", "2x on online shopping", "Airport lounge access", "No foreign transaction fees"},
	},
	{
		ID:       CardGold,
		Name:     "Gold Cashback",
		Image:    "GOLD",
		Features: []string{"5% cashback on groceries", "2% on fuel", "Welcome bonus ₹2000", "Contactless payments"},
	},
	{
		ID:       CardTitanium,
		Name:     "Titanium Elite",
		Image:    "TITAN",
		Features: []string{"10x rewards on travel", "Premium concierge", "Golf privileges", "Luxury hotel benefits"},
	},
	{
		ID:       CardSignature,
		Name:     "Signature Exclusive",
		Image:    "SIGN",
		Features: []string{"Unlimited airport lounge", "Personal relationship manager", "Priority customer service", "Global acceptance"},
	},
}

// Catalog returns the card products in display order.
func Catalog() []CardInfo {
	out := make([]CardInfo, len(cardCatalog))
	copy(out, cardCatalog)
	return out
}

// CardInfoFor looks up a product; unset or unknown falls back to platinum.
func CardInfoFor(c *CardProduct) CardInfo {
	if c != nil {
		for _, info := range cardCatalog {
			if info.ID == *c {
				return info
			}
		}
	}
	return cardCatalog[0]
}

// DeliveryOption describes how the card reaches the applicant.
type DeliveryOption struct {
	Mode        DeliveryMode `json:"mode"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Window      string       `json:"window"`
	Highlights  []string     `json:"highlights"`
}

var deliveryOptions = []DeliveryOption{
	{
		Mode:        DeliveryPhysical,
		Title:       "Physical Card",
		Description: "Receive a physical card at your registered address within 7-10 business days",
		Window:      "7-10 business days",
		Highlights:  []string{"Free home delivery", "Premium card material", "Contactless enabled"},
	},
	{
		Mode:        DeliveryVirtual,
		Title:       "Virtual Card",
		Description: "Get instant access to your card details and start using immediately",
		Window:      "Instant activation",
		Highlights:  []string{"Instant activation", "Perfect for online shopping", "Mobile wallet ready"},
	},
}

func DeliveryOptions() []DeliveryOption {
	out := make([]DeliveryOption, len(deliveryOptions))
	copy(out, deliveryOptions)
	return out
}

// DeliveryOptionFor returns the option for mode, or false when unset.
func DeliveryOptionFor(mode *DeliveryMode) (DeliveryOption, bool) {
	if mode == nil {
		return DeliveryOption{}, false
	}
	for _, o := range deliveryOptions {
		if o.Mode == *mode {
			return o, true
		}
	}
	return DeliveryOption{}, false
}

// ProcessingTime is shown on the status screen.
const ProcessingTime = "2-3 business days"
