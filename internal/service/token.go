package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/result-processing/internal/domain"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 5 * time.Hour

// TokenService signs and verifies bearer tokens carrying arbitrary claims.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret. A
// non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *s
	clone.now = now
	return &clone
}

// Issue signs a copy of claims with an expiry ttl from now. Any iat or exp
// already present in claims is overwritten. A non-numeric nbf is rejected
// with domain.ErrInvalidInput since no verifier could accept the token.
func (s *TokenService) Issue(claims domain.Claims) (string, error) {
	if nbf, ok := claims["nbf"]; ok && !isNumericDate(nbf) {
		return "", fmt.Errorf("%w: nbf must be a number of seconds", domain.ErrInvalidInput)
	}

	now := s.now()
	mc := jwt.MapClaims(claims.Clone())
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(s.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the claims it
// was issued with. Returns domain.ErrTokenExpired for expired tokens and
// domain.ErrInvalidToken for everything else.
func (s *TokenService) Verify(tokenString string) (domain.Claims, error) {
	token, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims := make(domain.Claims, len(mc))
	for k, v := range mc {
		if k == "iat" || k == "exp" {
			continue
		}
		claims[k] = v
	}
	return claims, nil
}

func isNumericDate(v any) bool {
	switch n := v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	case json.Number:
		_, err := n.Float64()
		return err == nil
	}
	return false
}
