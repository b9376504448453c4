// internal/domain/checkout/validate.go
package checkout

import (
	"regexp"
	"strings"

	"github.com/your-org/storefront-core/internal/domain/session"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// usStates is the fixed enumeration a shipping state must belong to
var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "enter a valid email address"}
	}
	return nil
}

func validateShippingAddress(addr session.Address) error {
	if len(strings.TrimSpace(addr.FirstName)) < 2 {
		return &ValidationError{Field: "first_name", Message: "name is too short"}
	}
	if len(strings.TrimSpace(addr.Street)) < 3 {
		return &ValidationError{Field: "street", Message: "street address is too short"}
	}
	if len(strings.TrimSpace(addr.City)) < 2 {
		return &ValidationError{Field: "city", Message: "city is too short"}
	}
	if !usStates[strings.ToUpper(strings.TrimSpace(addr.State))] {
		return &ValidationError{Field: "state", Message: "select a valid state"}
	}
	if len(strings.TrimSpace(addr.PostalCode)) != 5 {
		return &ValidationError{Field: "postal_code", Message: "zip code must be 5 digits"}
	}
	return nil
}
