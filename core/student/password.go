package student

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/mugilan0610/institute-management-system/core"
)

var errPasswordTooLong = core.NewValidationError(
	nil,
	core.FieldError{Field: "password", Error: "password must not exceed 72 bytes"},
)

// HashPassword hashes pwd with bcrypt at the given cost.
func HashPassword(pwd string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errPasswordTooLong
		}
		return nil, errors.Wrap(err, "hashing password")
	}
	return hash, nil
}

// CheckPassword reports whether pwd matches the bcrypt hash.
func CheckPassword(hash []byte, pwd string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd)) == nil
}
