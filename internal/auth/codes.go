package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCodeMalformed = errors.New("confirmation code is malformed")
	ErrCodeExpired   = errors.New("confirmation code has expired")
	ErrCodeMismatch  = errors.New("confirmation code does not match")
)

// CodeIssuer mints confirmation codes for the signup handshake. A code is
// "<issued-at unix>.<mac>" where the mac is an HMAC-SHA256 over the user id,
// the issue time and the user's code counter, truncated to 128 bits. Bumping
// the counter on re-signup invalidates every previously issued code without
// any server-side token table.
type CodeIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewCodeIssuer(secret string, ttl time.Duration) *CodeIssuer {
	return &CodeIssuer{secret: []byte(secret), ttl: ttl}
}

func (ci *CodeIssuer) Generate(userID string, counter int64, issuedAt time.Time) string {
	ts := issuedAt.Unix()
	return fmt.Sprintf("%d.%s", ts, ci.mac(userID, counter, ts))
}

// Verify checks the signature, the counter binding and the expiry window.
// The code stays exchangeable until it expires or a newer signup replaces it.
func (ci *CodeIssuer) Verify(code, userID string, counter int64, now time.Time) error {
	tsPart, macPart, ok := strings.Cut(code, ".")
	if !ok {
		return ErrCodeMalformed
	}
	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return ErrCodeMalformed
	}
	if ci.ttl > 0 && now.After(time.Unix(ts, 0).Add(ci.ttl)) {
		return ErrCodeExpired
	}
	if !hmac.Equal([]byte(macPart), []byte(ci.mac(userID, counter, ts))) {
		return ErrCodeMismatch
	}
	return nil
}

func (ci *CodeIssuer) mac(userID string, counter int64, issuedAt int64) string {
	h := hmac.New(sha256.New, ci.secret)
	fmt.Fprintf(h, "%s|%d|%d", userID, issuedAt, counter)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// HashCode creates a bcrypt hash of an issued code so a database leak does
// not expose exchangeable codes.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CompareCode checks a presented code against the stored bcrypt hash.
func CompareCode(hashedCode, providedCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode))
}
