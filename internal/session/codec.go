package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cookie names used by the HTTP layer.
const (
	CookieName      = "rl_session"
	AdminCookieName = "rl_admin"
)

// Codec encodes visitor state into a tamper-evident cookie value and
// decodes it back. The value is base64url(JSON payload).base64url(HMAC).
// A bad signature, expired payload or undecodable body all decode to
// the zero State rather than an error: session data is a convenience,
// never a hard dependency.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a codec signing with the given secret. ttl bounds
// how long an encoded value stays valid.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

type envelope struct {
	State     json.RawMessage `json:"s"`
	ExpiresAt int64           `json:"exp"`
}

// Encode serializes and signs the state.
func (c *Codec) Encode(state State) (string, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session state: %w", err)
	}

	env := envelope{State: body, ExpiresAt: time.Now().Add(c.ttl).Unix()}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session envelope: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies and parses a cookie value. Any failure yields the
// zero State.
func (c *Codec) Decode(value string) State {
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok {
		return State{}
	}
	if subtle.ConstantTimeCompare([]byte(c.sign(encoded)), []byte(sig)) != 1 {
		return State{}
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return State{}
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return State{}
	}
	if env.ExpiresAt != 0 && time.Now().Unix() > env.ExpiresAt {
		return State{}
	}

	return Parse(env.State)
}

func (c *Codec) sign(data string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SignAdmin issues a signed admin session token for the given username.
func (c *Codec) SignAdmin(username string, ttl time.Duration) string {
	exp := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	data := base64.RawURLEncoding.EncodeToString([]byte(username)) + ":" + exp
	return data + "." + c.sign("admin:"+data)
}

// VerifyAdmin checks an admin session token and returns the username it
// was issued for.
func (c *Codec) VerifyAdmin(token string) (string, bool) {
	data, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(c.sign("admin:"+data)), []byte(sig)) != 1 {
		return "", false
	}

	encodedName, expStr, ok := strings.Cut(data, ":")
	if !ok {
		return "", false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return "", false
	}

	name, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return "", false
	}
	return string(name), true
}
