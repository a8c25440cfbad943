package domain

import "time"

// TokenSummary provides a safe view of one stored credential record without
// sensitive data. Encrypted field values are never included; Display holds
// only non-secret metadata (server URLs, usernames, expiry strings).
type TokenSummary struct {
	Service   string            `json:"service"`
	UserID    string            `json:"user_id"`
	Display   map[string]string `json:"display,omitempty"`
	HasSecret bool              `json:"has_secret"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SummariseToken builds a TokenSummary from decrypted field values, dropping
// every field the token type marks encrypted.
func SummariseToken(cfg TokenTypeConfig, userID string, fields map[string]string, createdAt, updatedAt time.Time) TokenSummary {
	display := make(map[string]string)
	hasSecret := false
	for name, value := range fields {
		if cfg.IsEncrypted(name) {
			if value != "" {
				hasSecret = true
			}
			continue
		}
		if value != "" {
			display[name] = value
		}
	}
	return TokenSummary{
		Service:   cfg.Service,
		UserID:    userID,
		Display:   display,
		HasSecret: hasSecret,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
