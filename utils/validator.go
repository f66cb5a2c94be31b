// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// ValidateNPINumber checks an NPI: 10 digits with a Luhn check digit computed
// over the number prefixed with 80840 (the card issuer prefix NPPES uses).
func ValidateNPINumber(npi string) bool {
	npi = strings.TrimSpace(npi)
	if len(npi) != 10 {
		return false
	}
	for _, r := range npi {
		if r < '0' || r > '9' {
			return false
		}
	}

	full := "80840" + npi
	sum := 0
	double := false
	for i := len(full) - 1; i >= 0; i-- {
		d := int(full[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateDEANumber checks a DEA registration number: two letters followed by
// seven digits, where the last digit equals the units digit of
// (d1+d3+d5) + 2*(d2+d4+d6).
func ValidateDEANumber(dea string) bool {
	dea = strings.ToUpper(strings.TrimSpace(dea))
	if len(dea) != 9 {
		return false
	}
	if dea[0] < 'A' || dea[0] > 'Z' || dea[1] < 'A' || dea[1] > 'Z' {
		return false
	}
	for i := 2; i < 9; i++ {
		if dea[i] < '0' || dea[i] > '9' {
			return false
		}
	}

	digit := func(i int) int { return int(dea[i] - '0') }
	check := digit(2) + digit(4) + digit(6) + 2*(digit(3)+digit(5)+digit(7))
	return check%10 == digit(8)
}
