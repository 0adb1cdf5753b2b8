package models

import "fmt"

// ------------------------------------------------------------------------
// CardProduct
// ------------------------------------------------------------------------
type CardProduct string

const (
	CardPlatinum  CardProduct = "platinum"
	CardGold      CardProduct = "gold"
	CardTitanium  CardProduct = "titanium"
	CardSignature CardProduct = "signature"
)

func (c CardProduct) Valid() bool {
	switch c {
	case CardPlatinum, CardGold, CardTitanium, CardSignature:
		return true
	}
	return false
}

func ParseCardProduct(s string) (CardProduct, error) {
	c := CardProduct(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid card product: %q", s)
	}
	return c, nil
}

// ------------------------------------------------------------------------
// DeliveryMode (persisted as cardType)
// ------------------------------------------------------------------------
type DeliveryMode string

const (
	DeliveryPhysical DeliveryMode = "physical"
	DeliveryVirtual  DeliveryMode = "virtual"
)

func (d DeliveryMode) Valid() bool {
	return d == DeliveryPhysical || d == DeliveryVirtual
}

func ParseDeliveryMode(s string) (DeliveryMode, error) {
	d := DeliveryMode(s)
	if !d.Valid() {
		return "", fmt.Errorf("invalid delivery mode: %q", s)
	}
	return d, nil
}

// ------------------------------------------------------------------------
// Relationship of an add-on holder to the applicant
// ------------------------------------------------------------------------
type Relationship string

const (
	RelationshipSpouse  Relationship = "spouse"
	RelationshipChild   Relationship = "child"
	RelationshipParent  Relationship = "parent"
	RelationshipSibling Relationship = "sibling"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipSpouse, RelationshipChild, RelationshipParent, RelationshipSibling:
		return true
	}
	return false
}

// ------------------------------------------------------------------------
// Theme
// ------------------------------------------------------------------------
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"

	DefaultTheme = ThemeDark
)

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid theme: %q", s)
	}
	return t, nil
}
