// internal/workflow/validator.go
package workflow

import (
	"regexp"
	"strings"

	"provider-workflow/internal/models"
)

const (
	businessNameMinLen = 2
	businessNameMaxLen = 100
	bioMinLen          = 50
	addressMinLen      = 5
	addressMaxLen      = 255
	phoneMinDigits     = 10
)

// phoneCharsRegex matches phone numbers made of digits, whitespace and the
// common separator characters only.
var phoneCharsRegex = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)

var nonDigitRegex = regexp.MustCompile(`\D`)

// ValidationResult is the outcome of validating a submission payload.
// FieldErrors enumerates every violated field, not just the first.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// ValidatePayload checks a submission payload against the field-level rules.
// Pure function: no I/O, total over any decoded payload.
func ValidatePayload(payload *models.SubmissionPayload) ValidationResult {
	fieldErrors := make(map[string]string)

	name := strings.TrimSpace(payload.BusinessName)
	if name == "" {
		fieldErrors["businessName"] = "Business name is required"
	} else if len(name) < businessNameMinLen || len(name) > businessNameMaxLen {
		fieldErrors["businessName"] = "Business name must be between 2 and 100 characters"
	}

	bio := strings.TrimSpace(payload.Bio)
	if bio == "" {
		fieldErrors["bio"] = "Bio is required"
	} else if len(bio) < bioMinLen {
		fieldErrors["bio"] = "Bio must be at least 50 characters"
	}

	if payload.YearsOfExperience == nil {
		fieldErrors["yearsOfExperience"] = "Years of experience is required"
	} else if *payload.YearsOfExperience < 0 {
		fieldErrors["yearsOfExperience"] = "Years of experience cannot be negative"
	}

	if len(payload.ServiceCategories) == 0 {
		fieldErrors["serviceCategories"] = "At least one service category is required"
	}

	phone := strings.TrimSpace(payload.PhoneNumber)
	if phone == "" {
		fieldErrors["phoneNumber"] = "Phone number is required"
	} else if !validPhoneNumber(phone) {
		fieldErrors["phoneNumber"] = "Phone number format is invalid"
	}

	address := strings.TrimSpace(payload.ServiceAddress)
	if address == "" {
		fieldErrors["serviceAddress"] = "Service address is required"
	} else if len(address) < addressMinLen || len(address) > addressMaxLen {
		fieldErrors["serviceAddress"] = "Service address must be between 5 and 255 characters"
	}

	if len(fieldErrors) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Valid: false, FieldErrors: fieldErrors}
}

// validPhoneNumber requires at least 10 digits after stripping separators,
// and allows only digits, whitespace, "+", "-", "(" and ")" in the raw value.
func validPhoneNumber(phone string) bool {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if len(digits) < phoneMinDigits {
		return false
	}
	return phoneCharsRegex.MatchString(phone)
}
