package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProfile != "default" {
		t.Errorf("DefaultProfile = %q", cfg.DefaultProfile)
	}
	if cfg.TypingQuiet() != time.Second {
		t.Errorf("TypingQuiet = %v, want 1s", cfg.TypingQuiet())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "api_url = \"https://cc.example\"\ntyping_quiet_ms = 250\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://cc.example" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.TypingQuiet() != 250*time.Millisecond {
		t.Errorf("TypingQuiet = %v", cfg.TypingQuiet())
	}
	// Untouched keys keep defaults.
	if cfg.SocketURL == "" || cfg.OutboxTickMS != 500 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = \"https://file.example\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CCHAT_API_URL", "https://env.example")
	t.Setenv("CCHAT_TYPING_QUIET_MS", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://env.example" {
		t.Errorf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.TypingQuietMS != 50 {
		t.Errorf("TypingQuietMS = %d, want 50", cfg.TypingQuietMS)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	want := Default()
	want.DefaultProfile = "work"

	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want work", got.DefaultProfile)
	}
}
