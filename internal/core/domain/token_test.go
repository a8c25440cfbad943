package domain

import (
	"testing"
	"time"
)

func TestSummariseToken_DropsEncryptedFields(t *testing.T) {
	cfg := TokenTypeConfig{
		Service:   ServiceJira,
		Table:     "jira_tokens",
		Fields:    []string{"token", "server_url", "username"},
		Encrypted: []string{"token"},
	}

	now := time.Now()
	summary := SummariseToken(cfg, "u1", map[string]string{
		"token":      "secret-value",
		"server_url": "https://issues.example.com",
		"username":   "alice",
	}, now, now)

	if _, ok := summary.Display["token"]; ok {
		t.Fatal("encrypted field leaked into summary display")
	}
	if summary.Display["server_url"] != "https://issues.example.com" {
		t.Errorf("server_url: got %q", summary.Display["server_url"])
	}
	if !summary.HasSecret {
		t.Error("HasSecret should be true")
	}
}

func TestSummariseToken_EmptySecret(t *testing.T) {
	cfg := TokenTypeConfig{
		Service:   ServiceRHCP,
		Table:     "rhcp_tokens",
		Fields:    []string{"offline_token"},
		Encrypted: []string{"offline_token"},
	}

	summary := SummariseToken(cfg, "u1", map[string]string{"offline_token": ""}, time.Time{}, time.Time{})
	if summary.HasSecret {
		t.Error("HasSecret should be false for empty secret")
	}
}
