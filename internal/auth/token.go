package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Tokens look like "<user id>.<secret>"; only a bcrypt hash of the secret
// is stored, so a leaked database does not leak usable tokens.

const tokenSecretBytes = 32

// NewTokenSecret generates a random token secret.
func NewTokenSecret() (string, error) {
	buf := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashTokenSecret hashes a token secret for storage.
func HashTokenSecret(secret string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckTokenSecret compares a presented secret against the stored hash.
func CheckTokenSecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// FormatToken renders the wire form of a token.
func FormatToken(userID int64, secret string) string {
	return strconv.FormatInt(userID, 10) + "." + secret
}

// SplitToken parses the wire form back into its parts.
func SplitToken(token string) (int64, string, error) {
	idPart, secret, ok := strings.Cut(token, ".")
	if !ok || secret == "" {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	return id, secret, nil
}
