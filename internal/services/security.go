package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// HashPassword bcrypts a login password after the length checks bcrypt itself enforces.
func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return ValidationError("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// normalizeAnswer makes "Leo " and "leo" the same answer.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.Join(strings.Fields(answer), " "))
}

// pepperAnswer keys the normalized answer with the server pepper. The fixed-width
// digest also keeps long answers under bcrypt's 72 byte input limit.
func pepperAnswer(answer, pepper string) []byte {
	mac := hmac.New(sha256.New, []byte(pepper))
	_, _ = mac.Write([]byte(normalizeAnswer(answer)))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

// HashSecurityAnswer returns a bcrypt hash (random per-hash salt) of the peppered answer.
func HashSecurityAnswer(answer, pepper string) (string, error) {
	if normalizeAnswer(answer) == "" {
		return "", ValidationError("security answer is required")
	}
	hashed, err := bcrypt.GenerateFromPassword(pepperAnswer(answer, pepper), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash security answer: %w", err)
	}
	return string(hashed), nil
}

func VerifySecurityAnswer(hash, answer, pepper string) bool {
	if hash == "" || normalizeAnswer(answer) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), pepperAnswer(answer, pepper)) == nil
}
