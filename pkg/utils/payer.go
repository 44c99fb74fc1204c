package utils

import "strings"

func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone is a payer phone split the way the gateway expects it.
type Phone struct {
	CountryCode string
	AreaCode    string
	Number      string
}

// SplitPhone strips formatting and splits a phone into area code and subscriber number.
// The first two digits after the country code are the area code, the rest is the number.
// Nothing is validated; malformed input is passed through for the gateway to judge.
func SplitPhone(raw, countryCode string) Phone {
	digits := OnlyDigits(raw)
	if countryCode != "" && len(digits) > 11 && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	if len(digits) <= 2 {
		return Phone{CountryCode: countryCode, AreaCode: digits}
	}
	return Phone{CountryCode: countryCode, AreaCode: digits[:2], Number: digits[2:]}
}

// DocumentType tells individual (11 digits) from company (14 digits) tax documents.
func DocumentType(document string) string {
	if len(OnlyDigits(document)) > 11 {
		return "company"
	}
	return "individual"
}
