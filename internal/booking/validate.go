package booking

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Field names accepted by UpdateField and used as FieldErrors keys.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// Lengths are counted in UTF-16 code units, as the web form counted them.
const (
	maxNameLength  = 100
	maxPhoneLength = 20
)

// browserSpace is the whitespace set browsers use for \s and trim, which is
// wider than RE2's ASCII-only \s.
const browserSpace = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var (
	emailPattern = regexp.MustCompile(`^[^` + browserSpace + `@]+@[^` + browserSpace + `@]+\.[^` + browserSpace + `@]+$`)
	phonePattern = regexp.MustCompile(`^[\d+\-()` + browserSpace + `.]+$`)
)

// Draft is the customer-entered part of a booking before submission.
type Draft struct {
	Name  string
	Email string
	Phone string
}

// Validate checks a draft. Advisory only; the API has the final say.
func Validate(d Draft) FieldErrors {
	errs := FieldErrors{}

	switch {
	case trimBrowserSpace(d.Name) == "":
		errs[FieldName] = "Name is required"
	case utf16Len(d.Name) > maxNameLength:
		errs[FieldName] = "Name must be less than 100 characters"
	}

	switch {
	case trimBrowserSpace(d.Email) == "":
		errs[FieldEmail] = "Email is required"
	case !emailPattern.MatchString(d.Email):
		errs[FieldEmail] = "Please enter a valid email address"
	}

	switch {
	case trimBrowserSpace(d.Phone) == "":
		errs[FieldPhone] = "Phone number is required"
	case utf16Len(d.Phone) > maxPhoneLength:
		errs[FieldPhone] = "Phone number must be less than 20 characters"
	case !phonePattern.MatchString(d.Phone):
		errs[FieldPhone] = "Please enter a valid phone number"
	}

	return errs
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func trimBrowserSpace(s string) string {
	return strings.TrimFunc(s, isBrowserSpace)
}

func isBrowserSpace(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\v', r == '\f', r == '\r', r == ' ':
		return true
	case r == 0x00A0, r == 0x1680, r == 0x2028, r == 0x2029, r == 0x202F, r == 0x205F, r == 0x3000, r == 0xFEFF:
		return true
	case r >= 0x2000 && r <= 0x200A:
		return true
	}
	return false
}
