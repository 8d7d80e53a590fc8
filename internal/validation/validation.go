package validation

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidPhone indicates the phone number is not a valid wallet MSISDN.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidRIB indicates a malformed bank account identifier.
	ErrInvalidRIB = errors.New("invalid RIB")

	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMissingField indicates a required input field was empty.
	ErrMissingField = errors.New("missing required field")

	// ErrAmountMismatch indicates the confirm-phase amount does not match the
	// amount captured at simulate time.
	ErrAmountMismatch = errors.New("amount does not match simulation")
)

var (
	phoneRe = regexp.MustCompile(`^212\d{9}$`)
	ribRe   = regexp.MustCompile(`^\d{24}$`)
)

// Phone checks the wallet MSISDN format: country prefix 212 followed by nine digits.
func Phone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// RIB checks the 24-digit bank account identifier format.
func RIB(rib string) error {
	if !ribRe.MatchString(rib) {
		return fmt.Errorf("%w: must be exactly 24 digits", ErrInvalidRIB)
	}
	return nil
}

// Amount checks that a monetary amount, in centimes, is strictly positive.
func Amount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Fee checks that an optional fee is not negative.
func Fee(fee int64) error {
	if fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalidAmount)
	}
	return nil
}

// Required verifies that each named field carries a non-empty value.
func Required(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return nil
}
