package domain

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in service names. Each maps to one storage table via the registry.
const (
	ServiceJira        = "jira"
	ServiceGitHub      = "github"
	ServiceGoogleDrive = "gdrive"
	ServiceRHCP        = "rhcp"
)

// TokenTypeConfig describes the record shape for one credential service:
// which fields exist, which are encrypted at rest, and the storage table.
// Configs are registered once at process start and never mutated.
type TokenTypeConfig struct {
	// Service is the registry key (e.g. "jira", "github").
	Service string

	// Table is the storage table identifier for this service's records.
	Table string

	// Fields is the ordered set of field names stored per record.
	Fields []string

	// Encrypted is the subset of Fields stored as ciphertext.
	Encrypted []string
}

// HasField reports whether the field is part of this token type.
func (c TokenTypeConfig) HasField(name string) bool {
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// IsEncrypted reports whether the field is stored encrypted.
func (c TokenTypeConfig) IsEncrypted(name string) bool {
	for _, f := range c.Encrypted {
		if f == name {
			return true
		}
	}
	return false
}

// validate checks internal consistency before registration.
func (c TokenTypeConfig) validate() error {
	if c.Service == "" {
		return fmt.Errorf("%w: token type has no service name", ErrConfiguration)
	}
	if c.Table == "" {
		return fmt.Errorf("%w: token type %q has no table", ErrConfiguration, c.Service)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: token type %q has no fields", ErrConfiguration, c.Service)
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if seen[f] {
			return fmt.Errorf("%w: token type %q declares field %q twice", ErrConfiguration, c.Service, f)
		}
		seen[f] = true
	}
	for _, f := range c.Encrypted {
		if !seen[f] {
			return fmt.Errorf("%w: token type %q encrypts unknown field %q", ErrConfiguration, c.Service, f)
		}
	}
	return nil
}

// TokenTypeRegistry is the single source of truth mapping a service name to
// its record schema. Registrations happen at startup; lookups are stable for
// the process lifetime and safe for concurrent use.
type TokenTypeRegistry struct {
	mu    sync.RWMutex
	types map[string]TokenTypeConfig
}

// NewTokenTypeRegistry creates an empty registry.
func NewTokenTypeRegistry() *TokenTypeRegistry {
	return &TokenTypeRegistry{types: make(map[string]TokenTypeConfig)}
}

// Register adds a token type. Registering the same service twice fails with
// ErrConfiguration to prevent accidental schema redefinition.
func (r *TokenTypeRegistry) Register(cfg TokenTypeConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[cfg.Service]; exists {
		return fmt.Errorf("%w: service %q already registered", ErrConfiguration, cfg.Service)
	}
	r.types[cfg.Service] = cfg
	return nil
}

// Lookup returns the config for a service name. Unknown services fail with
// ErrConfiguration, never a silent nil.
func (r *TokenTypeRegistry) Lookup(service string) (TokenTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.types[service]
	if !ok {
		return TokenTypeConfig{}, fmt.Errorf("%w: unknown service %q", ErrConfiguration, service)
	}
	return cfg, nil
}

// Services returns all registered service names, sorted.
func (r *TokenTypeRegistry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTokenTypes returns a registry pre-loaded with the built-in services.
func DefaultTokenTypes() *TokenTypeRegistry {
	r := NewTokenTypeRegistry()

	builtins := []TokenTypeConfig{
		{
			Service:   ServiceJira,
			Table:     "jira_tokens",
			Fields:    []string{"token", "server_url", "username"},
			Encrypted: []string{"token"},
		},
		{
			Service:   ServiceGitHub,
			Table:     "github_tokens",
			Fields:    []string{"token", "server_url", "username"},
			Encrypted: []string{"token"},
		},
		{
			Service:   ServiceGoogleDrive,
			Table:     "gdrive_tokens",
			Fields:    []string{"access_token", "refresh_token", "token_uri", "client_id", "scopes", "expiry"},
			Encrypted: []string{"access_token", "refresh_token"},
		},
		{
			Service:   ServiceRHCP,
			Table:     "rhcp_tokens",
			Fields:    []string{"offline_token"},
			Encrypted: []string{"offline_token"},
		},
	}

	for _, cfg := range builtins {
		if err := r.Register(cfg); err != nil {
			// Built-in definitions are static; a failure here is a programming error.
			panic(err)
		}
	}
	return r
}
