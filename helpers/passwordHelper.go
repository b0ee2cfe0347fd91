package helpers

import (
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

// PasswordCost is lowered in tests.
var PasswordCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", Internal("could not hash password", err)
	}
	return string(bytes), nil
}

func VerifyPassword(userPassword string, providedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(providedHash), []byte(userPassword)) == nil
}
