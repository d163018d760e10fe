package enums

import "fmt"

// PropertyTier is a coarse pricing category used for filtering and display.
type PropertyTier string

const (
	PropertyTierBudget   PropertyTier = "budget"
	PropertyTierStandard PropertyTier = "standard"
	PropertyTierPremium  PropertyTier = "premium"
)

var validPropertyTiers = []PropertyTier{
	PropertyTierBudget,
	PropertyTierStandard,
	PropertyTierPremium,
}

// String implements fmt.Stringer.
func (p PropertyTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PropertyTier.
func (p PropertyTier) IsValid() bool {
	for _, candidate := range validPropertyTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePropertyTier converts raw input into a PropertyTier.
func ParsePropertyTier(value string) (PropertyTier, error) {
	for _, candidate := range validPropertyTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property tier %q", value)
}
