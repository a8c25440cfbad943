package driven

import "github.com/agentllm/agentllm-core/internal/core/domain"

// TokenAuthenticator validates and issues API bearer tokens. The agent
// gateway normally issues them; local issuance exists for tooling and tests.
type TokenAuthenticator interface {
	// GenerateToken creates a signed token from domain claims
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a token and extracts domain claims. Expired
	// tokens fail with domain.ErrTokenExpired, anything else malformed or
	// badly signed with domain.ErrTokenInvalid.
	ParseToken(tokenString string) (*domain.TokenClaims, error)
}
