package service

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minPasswordLength = 6
	maxMovieIDLength  = 64
)

type fieldCheck struct {
	name  string
	value any
	rules []validation.Rule
}

// validateFields runs checks in order and stops at the first failure.
func validateFields(checks ...fieldCheck) error {
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return &ValidationError{Field: c.name, Message: err.Error()}
		}
	}
	return nil
}

func fullNameRules() []validation.Rule {
	return []validation.Rule{validation.Required.Error("Please add a full name")}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Please add an email"),
		is.Email.Error("Please add a valid email"),
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Please add a password"),
		validation.Length(minPasswordLength, 0).Error("Password must be at least 6 characters"),
	}
}

func movieIDRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Please add a movie id"),
		validation.Length(1, maxMovieIDLength).Error("Movie id must be at most 64 characters"),
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
