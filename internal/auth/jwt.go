package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/projectdesk/projectdesk/internal/model"
)

// minSecretLength guards against trivially brute-forceable HMAC keys.
const minSecretLength = 16

var (
	// ErrInvalidToken is returned for malformed, tampered or otherwise
	// unverifiable tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token signature is valid but
	// the expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrSecretTooShort is returned by NewTokenManager for weak secrets.
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
)

// Claims is the JWT payload issued at login. The subject carries the
// numeric user ID as a decimal string; the token ID (jti) is a ULID
// used for revocation.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim into the numeric user ID.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with the given secret.
// Tokens expire after ttl; a non-positive ttl falls back to one hour.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a new token for the user and returns it together with
// the claims it carries.
func (m *TokenManager) Issue(user *model.User) (string, *Claims, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        ulid.Make().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses and validates a signed token, returning its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthContextFromClaims builds the per-request AuthContext from
// verified claims.
func AuthContextFromClaims(claims *Claims) (*model.AuthContext, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	ac := &model.AuthContext{
		UserID:  userID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		ac.ExpiresAt = claims.ExpiresAt.Time
	}
	return ac, nil
}
