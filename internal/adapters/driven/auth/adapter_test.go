package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/agentllm/agentllm-core/internal/core/domain"
)

func testClaims() *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    "u1",
		Email:     "alice@example.com",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}

func TestAdapter_GenerateAndParse(t *testing.T) {
	a := NewAdapter("test-secret")

	token, err := a.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed.UserID != "u1" || parsed.Email != "alice@example.com" {
		t.Errorf("claims: got %+v", parsed)
	}
}

func TestAdapter_WrongSecret(t *testing.T) {
	a := NewAdapter("test-secret")
	b := NewAdapter("different-secret")

	token, err := a.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = b.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestAdapter_ExpiredToken(t *testing.T) {
	a := NewAdapter("test-secret")

	claims := testClaims()
	claims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	claims.ExpiresAt = time.Now().Add(-time.Hour).Unix()

	token, err := a.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = a.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestAdapter_Garbage(t *testing.T) {
	a := NewAdapter("test-secret")

	_, err := a.ParseToken("not.a.jwt")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}
