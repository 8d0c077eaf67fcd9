package cart

import "strings"

// Policy decides what happens to the session cart when a shopper logs in.
type Policy string

const (
	// PolicyReplace discards the session cart in favour of the account cart.
	PolicyReplace Policy = "replace"
	// PolicyMerge folds session lines into the account cart, summing quantities
	// per product, and empties the device copy.
	PolicyMerge Policy = "merge"
)

// ParsePolicy maps a config value onto a Policy, defaulting to replace.
func ParsePolicy(v string) Policy {
	if strings.EqualFold(strings.TrimSpace(v), string(PolicyMerge)) {
		return PolicyMerge
	}
	return PolicyReplace
}
