package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadClientDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"SERVER_URL", "WS_URL", "RECONNECT_DELAY", "STUDYSPHERE_CONFIG"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8145" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.WSURL != "ws://localhost:8145/ws/websocket" {
		t.Errorf("WSURL = %q", cfg.WSURL)
	}
	if cfg.ReconnectDelay != 4*time.Second {
		t.Errorf("ReconnectDelay = %v", cfg.ReconnectDelay)
	}
}

func TestLoadClientYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "studysphere.yaml")
	yml := "client:\n  server_url: https://study.example.com/\n  reconnect_delay: 10s\n  reminder_lead: 30m\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STUDYSPHERE_CONFIG", path)
	t.Setenv("SERVER_URL", "")
	t.Setenv("WS_URL", "")
	t.Setenv("RECONNECT_DELAY", "2s")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "https://study.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.WSURL != "wss://study.example.com/ws/websocket" {
		t.Errorf("WSURL = %q", cfg.WSURL)
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Errorf("env should win over yaml, got %v", cfg.ReconnectDelay)
	}
	if cfg.ReminderLead != 30*time.Minute {
		t.Errorf("ReminderLead = %v", cfg.ReminderLead)
	}
}

func TestLoadClientBadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDYSPHERE_CONFIG", "")
	t.Setenv("CACHE_TTL", "soon")
	if _, err := LoadClient(); err == nil {
		t.Error("expected error for malformed CACHE_TTL")
	}
}

func TestLoadServerOrigins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDYSPHERE_CONFIG", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
}
