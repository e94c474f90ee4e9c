// Package phone validates contact phone numbers in international format.
package phone

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// Tag is the validator tag registered by RegisterValidation.
const Tag = "phone"

var ErrInvalidNumber = errors.New("phone number is in the wrong format")

// Validate accepts numbers of the form +<digits> that libphonenumber
// recognises as valid for their region.
func Validate(number string) error {
	if len(number) < 2 || number[0] != '+' || !digitsOnly(number[1:]) {
		return ErrInvalidNumber
	}

	parsed, err := phonenumbers.Parse(number, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ErrInvalidNumber
	}
	return nil
}

func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation(Tag, func(fl validator.FieldLevel) bool {
		return Validate(fl.Field().String()) == nil
	})
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
