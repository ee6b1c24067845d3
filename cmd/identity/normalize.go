package identity

import "strings"

// canonical is the uniqueness key for identifiers: trim surrounding
// whitespace, then fold to lower case. The canonical form is what the
// *_norm columns store and what duplicate checks compare, so changing it
// would invalidate rows already written under the old form.
func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername returns the canonical form used for username uniqueness.
// Unicode confusable folding is deliberately out of scope for now.
func NormalizeUsername(s string) string {
	return canonical(s)
}

// NormalizeEmail returns the canonical form used for e-mail uniqueness.
// The whole address is folded, local part included; minder never relies on
// case-sensitive local parts.
func NormalizeEmail(s string) string {
	return canonical(s)
}
