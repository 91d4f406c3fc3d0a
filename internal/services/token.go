package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenMaxAge bounds how long an issued session token stays valid. There is
// no revocation list; expiry is the only limit on a leaked token.
const TokenMaxAge = 14 * 24 * time.Hour

// TokenCodec issues and verifies the auth-cookie session token:
// base64url(payload || HMAC-SHA256(payload)), payload "uid:issuedUnix".
// RawURLEncoding keeps the value cookie-safe with no padding.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (c *TokenCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Issue returns a token binding userID to the current time.
func (c *TokenCodec) Issue(userID int64) string {
	payload := []byte(fmt.Sprintf("%d:%d", userID, c.now().Unix()))
	return base64.RawURLEncoding.EncodeToString(append(payload, c.sign(payload)...))
}

// Verify returns the user id embedded in token. ok is false for malformed,
// forged and expired tokens alike; callers treat all three as anonymous.
func (c *TokenCodec) Verify(token string) (userID int64, ok bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= sha256.Size {
		return 0, false
	}
	payload, tag := raw[:len(raw)-sha256.Size], raw[len(raw)-sha256.Size:]
	if !hmac.Equal(tag, c.sign(payload)) {
		return 0, false
	}
	uidPart, tsPart, found := strings.Cut(string(payload), ":")
	if !found {
		return 0, false
	}
	uid, err := strconv.ParseInt(uidPart, 10, 64)
	if err != nil || uid <= 0 {
		return 0, false
	}
	issued, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, false
	}
	if c.now().Sub(time.Unix(issued, 0)) > TokenMaxAge {
		return 0, false
	}
	return uid, true
}
