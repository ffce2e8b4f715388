package helpers

import "golang.org/x/crypto/bcrypt"

// bcryptCost is tuned so a single hash takes roughly 100ms on current
// hardware, which bounds both brute-force speed and request latency.
const bcryptCost = 12

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
