package config

import "testing"

func TestDatabaseDriver(t *testing.T) {
	cases := map[string]string{"": "sqlite3", "SQLite": "sqlite3", "postgresql": "postgres"}
	for in, want := range cases {
		cfg := &Config{Database: DatabaseConfig{Driver: in}}
		got, err := cfg.DatabaseDriver()
		if err != nil {
			t.Fatalf("DatabaseDriver(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("DatabaseDriver(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := (&Config{Database: DatabaseConfig{Driver: "mysql"}}).DatabaseDriver(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestServerTokens(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Tokens: "abc:alice, def:bob"}}
	tokens, err := cfg.ServerTokens()
	if err != nil {
		t.Fatalf("ServerTokens error: %v", err)
	}
	if tokens["abc"] != "alice" || tokens["def"] != "bob" || len(tokens) != 2 {
		t.Fatalf("unexpected tokens: %v", tokens)
	}

	cfg.Server.Tokens = "broken"
	if _, err := cfg.ServerTokens(); err == nil {
		t.Fatalf("expected error for malformed token pair")
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{Server: ServerConfig{AllowedOrigins: "https://a.example, ,https://b.example"}}
	got := cfg.AllowedOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", got)
	}
}
