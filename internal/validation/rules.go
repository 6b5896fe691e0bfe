// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/barrier/internal/errors"
)

var (
	// registryIDRegex matches lowercase names used to key pepper registries
	registryIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,254}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// RegistryID validates pepper registry identifiers: lowercase alphanumeric
// with dashes and underscores, at most 255 characters.
var RegistryID = validation.NewStringRuleWithError(
	func(s string) bool {
		return registryIDRegex.MatchString(s)
	},
	validation.NewError(
		"validation_registry_id",
		"must be lowercase alphanumeric with dashes or underscores, at most 255 characters",
	),
)

// KeyLayer validates barrier key layer names.
var KeyLayer = validation.NewStringRuleWithError(
	func(s string) bool {
		switch s {
		case "root", "intermediate", "content":
			return true
		}
		return false
	},
	validation.NewError("validation_key_layer", "must be one of: root, intermediate, content"),
)

// CipherAlgorithm validates AEAD cipher algorithm names.
var CipherAlgorithm = validation.NewStringRuleWithError(
	func(s string) bool {
		switch s {
		case "aes-gcm", "aes-128-gcm", "aes-192-gcm", "aes-gcm-siv":
			return true
		}
		return false
	},
	validation.NewError(
		"validation_cipher_algorithm",
		"must be one of: aes-gcm, aes-128-gcm, aes-192-gcm, aes-gcm-siv",
	),
)

// HashAlgorithm validates hashing algorithm names.
var HashAlgorithm = validation.NewStringRuleWithError(
	func(s string) bool {
		switch s {
		case "pbkdf2-sha256", "pbkdf2-sha384", "pbkdf2-sha512",
			"hkdf-sha256", "hkdf-sha384", "hkdf-sha512":
			return true
		}
		return false
	},
	validation.NewError(
		"validation_hash_algorithm",
		"must be one of: pbkdf2-sha256, pbkdf2-sha384, pbkdf2-sha512, hkdf-sha256, hkdf-sha384, hkdf-sha512",
	),
)

// ShareParams validates Shamir share split parameters. Coordinates live in
// a single byte, so at most 255 shares can exist and reconstruction needs
// at least 2.
type ShareParams struct {
	Threshold int
	Total     int
}

// Validate checks the share parameters against the field bounds.
func (p ShareParams) Validate(value interface{}) error {
	if p.Threshold < 2 || p.Threshold > 255 {
		return validation.NewError(
			"validation_share_threshold",
			"share threshold must be between 2 and 255",
		)
	}
	if p.Total < 2 || p.Total > 255 {
		return validation.NewError(
			"validation_share_total",
			"share total must be between 2 and 255",
		)
	}
	if p.Threshold > p.Total {
		return validation.NewError(
			"validation_share_threshold_total",
			"share threshold must not exceed share total",
		)
	}
	return nil
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
