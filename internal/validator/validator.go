package validator

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	seatCodeRgx   = regexp.MustCompile(`^[A-Z]{1,2}[1-9][0-9]{0,2}$`)
	hasSpecialRgx = regexp.MustCompile(`[!@#$%^&*]`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seat_code", validateSeatCode)
	validator.RegisterValidation("booking_status", validateBookingStatus)
	validator.RegisterValidation("password", validatePassword)

	return validator
}

func validateSeatCode(fl validator.FieldLevel) bool {
	return seatCodeRgx.MatchString(fl.Field().String())
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return domain.BookingStatus(fl.Field().String()).Valid()
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 || len(password) > 25 {
		return false
	}

	containsUpper, containsLower, containsDigit, containsSpecial := false, false, false, false

	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			containsUpper = true
		case unicode.IsLower(ch):
			containsLower = true
		case unicode.IsDigit(ch):
			containsDigit = true
		case hasSpecialRgx.MatchString(string(ch)):
			containsSpecial = true
		}
	}

	return containsUpper && containsLower && containsDigit && containsSpecial
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "datetime":
		return "must be a valid date in YYYY-MM-DD format"
	case "url":
		return "must be a valid URL"
	case "seat_code":
		return "must be a valid seat code, like A12"
	case "booking_status":
		return "must be one of Pending, Confirmed or Cancelled"
	case "password":
		return "must be at least 8 characters long and include at least one uppercase letter, one lowercase letter, " +
			"one number, and one special character (!@#$%^&*)."
	default:
		return "is invalid"
	}
}
