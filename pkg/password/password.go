package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/library/domain"
)

// Hash validates the minimum length and returns a bcrypt hash.
func Hash(plain string) (string, error) {
	if len(plain) < domain.MinPasswordLength {
		return "", domain.Errorf(domain.ErrCodeInvalid, "password must be at least %d characters", domain.MinPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}
	return string(hashed), nil
}

// Compare returns ErrInvalidCredential when plain does not match hash.
func Compare(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return domain.ErrInvalidCredential
	}
	return err
}
