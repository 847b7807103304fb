package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the standard registered claims (exp, iat)
// plus the account's email and display name.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IssuedToken is a signed token together with the claims it was built from.
type IssuedToken struct {
	Token  string
	Claims Claims
}

// ExpiresAt returns the absolute expiry of the token.
func (t *IssuedToken) ExpiresAt() time.Time {
	if t.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.Claims.ExpiresAt.Time
}

// GenerateToken signs an HS256 token for email/name valid from now for validityDuration.
func GenerateToken(email, name string, secretKey []byte, now time.Time, validityDuration time.Duration) (*IssuedToken, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email: email,
		Name:  name,
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Token: tokenString, Claims: claims}, nil
}

// ParseToken verifies tokenString with secretKey and returns its claims.
// Only HS256 is accepted. Expired tokens yield common.ErrTokenExpired, any
// other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}

	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Issuer signs and verifies tokens with a process-wide secret that is fixed
// at construction.
type Issuer struct {
	secretKey        []byte
	validityDuration time.Duration
	now              func() time.Time
}

// NewIssuer validates the secret and validity, then signs and parses a probe
// token so a broken signing setup is caught at startup.
func NewIssuer(secretKey string, validityDuration time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	if validityDuration <= 0 {
		return nil, fmt.Errorf("token validity must be positive, got %s", validityDuration)
	}

	i := &Issuer{
		secretKey:        []byte(secretKey),
		validityDuration: validityDuration,
		now:              time.Now,
	}

	probe, err := i.Issue("probe@localhost", "probe")
	if err != nil {
		return nil, fmt.Errorf("jwt self-check sign: %w", err)
	}
	if _, err := i.Parse(probe.Token); err != nil {
		return nil, fmt.Errorf("jwt self-check parse: %w", err)
	}

	return i, nil
}

// ValidityDuration returns how long issued tokens stay valid.
func (i *Issuer) ValidityDuration() time.Duration {
	return i.validityDuration
}

// Issue signs a fresh token for the account.
func (i *Issuer) Issue(email, name string) (*IssuedToken, error) {
	return GenerateToken(email, name, i.secretKey, i.now(), i.validityDuration)
}

// Parse verifies a token issued with the same secret.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	return ParseToken(tokenString, i.secretKey, jwt.WithTimeFunc(i.now))
}
