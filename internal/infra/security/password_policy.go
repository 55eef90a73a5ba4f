package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	defaultMinPasswordLength = 8
	defaultMinZxcvbnScore    = 2
)

// PasswordValidationError represents a single password policy violation.
type PasswordValidationError struct {
	Code    string
	Message string
}

func (e *PasswordValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule validates a password, optionally against user supplied context
// such as the email and full name.
type PasswordRule func(password string, userInputs []string) error

// PasswordPolicy applies rules in order and returns the first violation.
type PasswordPolicy struct {
	rules []PasswordRule
}

// NewPasswordPolicy constructs a policy from rules.
func NewPasswordPolicy(rules ...PasswordRule) *PasswordPolicy {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordPolicy{rules: copied}
}

// DefaultPasswordPolicy enforces a minimum length, at least one letter and one
// digit, and a zxcvbn strength floor.
func DefaultPasswordPolicy() *PasswordPolicy {
	return NewPasswordPolicy(
		MinLengthRule(defaultMinPasswordLength),
		RequireLetterAndDigitRule(),
		StrengthRule(defaultMinZxcvbnScore),
	)
}

// Validate returns the first violation, or nil.
func (p *PasswordPolicy) Validate(password string, userInputs ...string) error {
	if p == nil {
		return nil
	}
	for _, rule := range p.rules {
		if err := rule(password, userInputs); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return func(password string, _ []string) error {
		if len([]rune(password)) < min {
			return &PasswordValidationError{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	}
}

// RequireLetterAndDigitRule ensures the password mixes letters and digits.
func RequireLetterAndDigitRule() PasswordRule {
	return func(password string, _ []string) error {
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if hasLetter && hasDigit {
			return nil
		}
		return &PasswordValidationError{
			Code:    "letter_and_digit",
			Message: "password must include at least one letter and one digit",
		}
	}
}

// StrengthRule rejects passwords whose zxcvbn score is below minScore.
func StrengthRule(minScore int) PasswordRule {
	if minScore > 4 {
		minScore = 4
	}
	return func(password string, userInputs []string) error {
		if minScore <= 0 {
			return nil
		}
		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score >= minScore {
			return nil
		}
		return &PasswordValidationError{
			Code:    "weak_password",
			Message: "password is too easy to guess",
		}
	}
}
