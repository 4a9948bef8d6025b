package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12

	// A login PIN is exactly four digits, matching what the tracker UI
	// collects. Anything else is rejected before the credential check.
	MinPin = 1000
	MaxPin = 9999
)

// ValidPinFormat reports whether pin is a well-formed four-digit PIN.
// Malformed PINs never reach the credential store or the ban tracker.
func ValidPinFormat(pin int) bool {
	return pin >= MinPin && pin <= MaxPin
}

func HashPin(pin int) (string, error) {
	if !ValidPinFormat(pin) {
		return "", fmt.Errorf("pin must be a four-digit number")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("%04d", pin)), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePin(hashedPin string, pin int) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPin), []byte(fmt.Sprintf("%04d", pin)))
}
