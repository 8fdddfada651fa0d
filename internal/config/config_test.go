package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const validConfig = `
email_accounts:
  - email: scan@example.com
    password: secret
    imap_server: imap.example.com
imap:
  scan_interval_minutes: 5
  mark_as_seen: true
database:
  url: data/test.db
nlp:
  mode: local
  similarity_threshold: 0.8
server:
  host: 0.0.0.0
  port: "9000"
`

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if len(cfg.EmailAccounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(cfg.EmailAccounts))
	}
	account := cfg.EmailAccounts[0]
	if account.IMAPPort != DefaultIMAPPort || !account.UseSSL {
		t.Errorf("Expected SSL defaults, got port=%d ssl=%t", account.IMAPPort, account.UseSSL)
	}
	if len(account.FoldersToScan) != 1 || account.FoldersToScan[0] != "INBOX" {
		t.Errorf("Expected INBOX default, got %v", account.FoldersToScan)
	}
	if cfg.ScanInterval() != 5*time.Minute {
		t.Errorf("Expected 5m interval, got %v", cfg.ScanInterval())
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Server.Port)
	}
	if cfg.NLP.SimilarityThreshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %f", cfg.NLP.SimilarityThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, validConfig)

	t.Setenv("EIA_DATABASE_URL", "postgres://eia:pw@localhost/eia")
	t.Setenv("EIA_API_PORT", "8100")
	t.Setenv("EIA_SCAN_INTERVAL_MINUTES", "30")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Database.URL != "postgres://eia:pw@localhost/eia" {
		t.Errorf("Expected env database url, got %s", cfg.Database.URL)
	}
	if cfg.Server.Port != "8100" {
		t.Errorf("Expected env port, got %s", cfg.Server.Port)
	}
	if cfg.IMAP.ScanIntervalMinutes != 30 {
		t.Errorf("Expected env interval, got %d", cfg.IMAP.ScanIntervalMinutes)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "no accounts",
			content: `
database:
  url: data/test.db
`,
		},
		{
			name: "missing password",
			content: `
email_accounts:
  - email: scan@example.com
    imap_server: imap.example.com
`,
		},
		{
			name: "bad email",
			content: `
email_accounts:
  - email: not-an-address
    password: secret
    imap_server: imap.example.com
`,
		},
		{
			name: "missing server",
			content: `
email_accounts:
  - email: scan@example.com
    password: secret
`,
		},
		{
			name: "unknown nlp mode",
			content: `
email_accounts:
  - email: scan@example.com
    password: secret
    imap_server: imap.example.com
nlp:
  mode: quantum
`,
		},
		{
			name: "ai mode without key",
			content: `
email_accounts:
  - email: scan@example.com
    password: secret
    imap_server: imap.example.com
nlp:
  mode: ai
`,
		},
		{
			name: "threshold out of range",
			content: `
email_accounts:
  - email: scan@example.com
    password: secret
    imap_server: imap.example.com
nlp:
  mode: local
  similarity_threshold: 1.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadFromFile(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFindAccount(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if _, ok := cfg.FindAccount("scan@example.com"); !ok {
		t.Error("Expected to find configured account")
	}
	if _, ok := cfg.FindAccount("other@example.com"); ok {
		t.Error("Did not expect to find unknown account")
	}
}

func TestBudgetFallbacks(t *testing.T) {
	cfg := &Config{}
	if cfg.AccountBudget() != DefaultAccountBudgetMinutes*time.Minute {
		t.Errorf("Expected default budget, got %v", cfg.AccountBudget())
	}
	if cfg.ScanInterval() != DefaultScanIntervalMinutes*time.Minute {
		t.Errorf("Expected default interval, got %v", cfg.ScanInterval())
	}
}
