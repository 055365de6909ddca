package domain

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"strings"
)

// TokenPrefix is the path prefix of the canonical share token.
const TokenPrefix = "trips/"

// IDLength and idAlphabet define locally generated trip ids.
const (
	IDLength   = 6
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// FormatToken returns the canonical share token for a trip id: "trips/<id>".
func FormatToken(id string) string {
	return TokenPrefix + id
}

// ParseToken extracts the trip id from a share token.
//
// Accepted forms:
//
//	abc123
//	trips/abc123
//	trip/abc123
//	/trips/abc123
//	https://host/any/prefix/trips/abc123
//
// The result is "" when nothing usable remains.
func ParseToken(token string) string {
	s := strings.TrimSpace(token)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		s = u.Path
	}
	s = strings.Trim(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// NewTripID returns a random id of IDLength characters drawn from [0-9a-z].
func NewTripID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("domain.NewTripID: %w", err)
	}
	for i, b := range buf {
		// 256 % 36 leaves a slight bias toward the first four characters; ids are
		// share handles, not secrets.
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf), nil
}

// ValidTripID reports whether id has the shape of a trip id:
// non-empty and made only of lowercase letters, digits, '-' or '_'.
func ValidTripID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
