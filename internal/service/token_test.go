package service_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/service"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := service.NewTokenService(testTokenSecret, 0)

	claims := domain.Claims{"email": "a@x.com", "name": "Alice"}
	token, err := tokens.Issue(claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a three-part JWT, got %q", token)
	}

	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !reflect.DeepEqual(got, claims) {
		t.Fatalf("expected claims %v, got %v", claims, got)
	}
}

func TestTokenService_IssueDoesNotMutateClaims(t *testing.T) {
	tokens := service.NewTokenService(testTokenSecret, time.Hour)

	claims := domain.Claims{"email": "a@x.com"}
	if _, err := tokens.Issue(claims); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected input claims untouched, got %v", claims)
	}
}

func TestTokenService_ExpiresAfterFiveHours(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	now := start
	tokens := service.NewTokenService(testTokenSecret, 0).WithClock(func() time.Time { return now })

	token, err := tokens.Issue(domain.Claims{"email": "a@x.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = start.Add(4*time.Hour + 59*time.Minute)
	if _, err := tokens.Verify(token); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	now = start.Add(5*time.Hour + time.Second)
	_, err = tokens.Verify(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_OverridesCallerExpiry(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	now := start
	tokens := service.NewTokenService(testTokenSecret, 0).WithClock(func() time.Time { return now })

	// A far-future exp supplied by the caller must not extend the lifetime.
	token, err := tokens.Issue(domain.Claims{"email": "a@x.com", "exp": start.Add(1000 * time.Hour).Unix()})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = start.Add(6 * time.Hour)
	if _, err := tokens.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_InvalidToken(t *testing.T) {
	tokens := service.NewTokenService(testTokenSecret, 0)

	_, err := tokens.Verify("not-a-valid-jwt")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_TamperedToken(t *testing.T) {
	tokens := service.NewTokenService(testTokenSecret, 0)

	token, err := tokens.Issue(domain.Claims{"email": "tamper@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Tamper with the token by flipping several characters in the signature.
	tampered := token[:len(token)-5] + "XXXXX"
	if _, err := tokens.Verify(tampered); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := service.NewTokenService(testTokenSecret, 0)
	verifier := service.NewTokenService("a-completely-different-secret-value!!", 0)

	token, err := issuer.Issue(domain.Claims{"email": "secret@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	tokens := service.NewTokenService(testTokenSecret, 0)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "a@x.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := tokens.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestTokenService_NotBeforeClaim(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	tokens := service.NewTokenService(testTokenSecret, 0).WithClock(func() time.Time { return start })

	_, err := tokens.Issue(domain.Claims{"email": "a@x.com", "nbf": "tomorrow"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-numeric nbf, got %v", err)
	}

	claims := domain.Claims{"email": "a@x.com", "nbf": float64(start.Add(-time.Minute).Unix())}
	token, err := tokens.Issue(claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !reflect.DeepEqual(got, claims) {
		t.Fatalf("expected claims %v, got %v", claims, got)
	}
}
