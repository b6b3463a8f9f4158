package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure classes. Callers branch on expiry specifically: an
// expired access token is eligible for a silent refresh, a malformed or
// forged one never is.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Token lifetimes.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

const issuer = "leafnote"

// Claims carried by both token classes: just a subject (user id) plus the
// registered time claims.
type Claims struct {
	jwt.RegisteredClaims
}

// CodecConfig holds the signing secrets and lifetimes for the two token
// domains. The secrets must be distinct so leaking one cannot forge tokens
// of the other class.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec signs and verifies subject-bearing tokens under two independent
// signing domains (access vs. refresh). It is stateless: verification is
// purely signature + expiry.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenCodec creates a codec from the given config. A missing secret is a
// configuration error: the process must not serve requests without both
// signing domains available.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" {
		return nil, errors.New("token codec: access token secret is not configured")
	}
	if cfg.RefreshSecret == "" {
		return nil, errors.New("token codec: refresh token secret is not configured")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token codec: access and refresh secrets must differ")
	}

	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = AccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = RefreshTokenTTL
	}

	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// RefreshTTL returns the configured refresh token lifetime. The session
// cookie's Max-Age must match it exactly.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccess mints a short-lived access token for the given user.
func (c *TokenCodec) IssueAccess(userID string) (string, error) {
	return c.issue(userID, c.accessSecret, c.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the given user.
func (c *TokenCodec) IssueRefresh(userID string) (string, error) {
	return c.issue(userID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccess verifies an access token and returns its subject.
// Returns ErrTokenExpired when past expiry, ErrTokenInvalid otherwise.
func (c *TokenCodec) VerifyAccess(token string) (string, error) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefresh verifies a refresh token and returns its subject.
func (c *TokenCodec) VerifyRefresh(token string) (string, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *TokenCodec) issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (c *TokenCodec) verify(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
