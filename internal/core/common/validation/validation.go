// Package validation holds the shared jellydator rules and the bridge from
// rule failures to the application's field-level validation errors.
package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/frahmantamala/identity-service/internal"
	validation "github.com/jellydator/validation"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// permissionKeyRegex accepts lowercase dotted keys whose segments may
	// contain single hyphens, e.g. permissions.manage-users.
	permissionKeyRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*(?:\.[a-z0-9]+(?:-[a-z0-9]+)*)+$`)
)

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank_type", "must be a string")
	}
	if s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "must not be blank")
	}
	return nil
})

var Email = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !emailRegex.MatchString(strings.TrimSpace(s)) {
		return validation.NewError("validation_email", "must be a valid email address")
	}
	return nil
})

// PermissionKey validates the key after trimming and lowercasing, the same
// normalization the permission directory applies before storing it.
var PermissionKey = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !IsPermissionKey(strings.ToLower(strings.TrimSpace(s))) {
		return validation.NewError("validation_permission_key", "must be a lowercase dotted key such as permissions.view-users")
	}
	return nil
})

// IsPermissionKey reports whether an already-normalized key is well formed.
func IsPermissionKey(key string) bool {
	return len(key) <= 128 && permissionKeyRegex.MatchString(key)
}

// Password enforces the minimum length accepted at registration.
var Password = validation.Length(8, 128)

// WrapValidationError converts jellydator errors into a field-level AppError.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), apperrors.ErrCodeValidationFailed)
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]apperrors.ValidationError, 0, len(fields))
	for _, field := range fields {
		fe := fieldErrs[field]
		code := "validation_failed"
		var ve validation.Error
		if errors.As(fe, &ve) {
			code = ve.Code()
		}
		details = append(details, apperrors.ValidationError{
			Field:   field,
			Message: field + ": " + fe.Error(),
			Code:    code,
		})
	}

	return apperrors.NewValidationFieldErrors(details)
}
