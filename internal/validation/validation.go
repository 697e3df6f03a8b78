// Package validation holds the pure per-stage field checks. Every function
// is stateless and total: nil means the input passed, otherwise a
// *errors.StandardError describes the first failing field.
package validation

import (
	"regexp"

	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/docrules"
	"provider-onboarding/internal/models"
)

var phoneRegex = regexp.MustCompile(`^\d{10}$`)

// Phone requires exactly 10 digits.
func Phone(phone string) *errors.StandardError {
	if !phoneRegex.MatchString(phone) {
		return errors.NewValidationError("phone", "Phone number must be exactly 10 digits")
	}
	return nil
}

// FullName requires at least 3 characters.
func FullName(name string) *errors.StandardError {
	if len(name) < 3 {
		return errors.NewValidationError("fullName", "Enter valid full name")
	}
	return nil
}

// Email requires an "@" character.
func Email(email string) *errors.StandardError {
	for _, c := range email {
		if c == '@' {
			return nil
		}
	}
	return errors.NewValidationError("email", "Enter valid email")
}

// Area must be non-empty.
func Area(area string) *errors.StandardError {
	if area == "" {
		return errors.NewValidationError("area", "Enter your area / city")
	}
	return nil
}

// CategoryDetails applies the category-specific required-field check.
// Pick-and-drop is always satisfied: the vehicle selection defaults to bike.
func CategoryDetails(details models.CategoryDetails) *errors.StandardError {
	switch d := details.(type) {
	case models.CarwashDetails:
		if d.Expertise == "" {
			return errors.NewValidationError("expertise", "Please describe your carwash expertise")
		}
	case models.PickDropDetails:
		// always satisfied
	case models.DriverDetails:
		if d.ExperienceYears == "" {
			return errors.NewValidationError("experience", "Enter experience (years)")
		}
	case nil:
		return errors.NewValidationError("details", "Category details are required")
	}
	return nil
}

// Documents checks that every required rule has both a file and a document
// number. The error references the failing rule's label (missing document)
// or its input placeholder (missing number), matching what the user is
// asked to provide.
func Documents(rules []docrules.Rule, docs map[string]models.DocumentSubmission) *errors.StandardError {
	for _, rule := range rules {
		if !rule.Required {
			continue
		}
		sub, ok := docs[rule.Key]
		if !ok || sub.File == nil {
			return errors.NewValidationError(rule.Key, "Missing document: "+rule.Label)
		}
		if sub.Number == "" {
			return errors.NewValidationError(rule.Key, "Missing number: "+rule.InputPlaceholder)
		}
	}
	return nil
}
