package authgate

import "regexp"

// Boundary format gates. These are pure checks evaluated before any
// stateful operation runs; a failure never mutates a store.

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9\p{Han}]{3,10}$`)
	emailPattern    = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)
)

// passwordSpecials is the fixed special-character set accepted by the
// password policy.
const passwordSpecials = `!@#$%^&*()_+-=[]{};':",./<>?`

// ValidUsername reports whether username is 3 to 10 letters, digits, or
// CJK ideographs.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}

// ValidPassword reports whether pw is 8 to 16 bytes and contains a
// lower-case letter, an upper-case letter, a digit, and one character
// from the fixed special set.
func ValidPassword(pw string) bool {
	if len(pw) < 8 || len(pw) > 16 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, c := range pw {
		switch {
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			for _, s := range passwordSpecials {
				if c == s {
					hasSpecial = true
					break
				}
			}
		}
	}
	return hasLower && hasUpper && hasDigit && hasSpecial
}
