package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tilapp/til/internal/models"
)

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	// bcrypt refuses longer input
	maxPasswordLength = 72
	// VARCHAR(255) columns count characters
	maxTextLength = 255
)

// validateNewUser checks the fields of a user creation request
func validateNewUser(req *models.CreateUserRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		return models.NewValidationError("name is required")
	}
	if !isASCII(req.Name) {
		return models.NewValidationError("name must contain only ASCII characters")
	}
	if err := validateTextLength("name", req.Name); err != nil {
		return err
	}
	if len(req.Username) < minUsernameLength || !isAlphanumeric(req.Username) {
		return models.NewValidationError("username must be at least 3 alphanumeric characters")
	}
	if err := validateTextLength("username", req.Username); err != nil {
		return err
	}
	if !emailRegex.MatchString(req.Email) {
		return models.NewValidationError("invalid email format")
	}
	if err := validateTextLength("email", req.Email); err != nil {
		return err
	}
	return validatePassword(req.Password)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return models.NewValidationError("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return models.NewValidationError(fmt.Sprintf("password must be at most %d bytes", maxPasswordLength))
	}
	return nil
}

// validateTextLength bounds a value stored in a VARCHAR(255) column
func validateTextLength(field, value string) error {
	if utf8.RuneCountInString(value) > maxTextLength {
		return models.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, maxTextLength))
	}
	return nil
}

// validateCategoryName trims a category name and checks it fits its column
func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("name is required")
	}
	if err := validateTextLength("category name", name); err != nil {
		return "", err
	}
	return name, nil
}

// validateAcronym requires both forms and every letter of short to appear in long,
// ignoring case
func validateAcronym(short, long string) error {
	if short == "" || long == "" {
		return models.NewValidationError("short and long are required")
	}
	if err := validateTextLength("short", short); err != nil {
		return err
	}

	lowerLong := strings.ToLower(long)
	for _, r := range strings.ToLower(short) {
		if !unicode.IsLetter(r) {
			continue
		}
		if !strings.ContainsRune(lowerLong, r) {
			return models.NewValidationError("every letter of short must appear in long")
		}
	}
	return nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
