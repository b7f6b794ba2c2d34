package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RoomInviteThreshold != 15 {
		t.Errorf("threshold = %d, want 15", cfg.RoomInviteThreshold)
	}
	if cfg.EventTimeout != 15*time.Second {
		t.Errorf("event timeout = %v, want 15s", cfg.EventTimeout)
	}
	if cfg.RoomSweepSchedule != "@every 1m" {
		t.Errorf("sweep schedule = %q", cfg.RoomSweepSchedule)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("backend = %q, want postgres", cfg.StoreBackend)
	}
	if cfg.RoomIdleTimeout != 0 {
		t.Errorf("idle timeout = %v, want disabled", cfg.RoomIdleTimeout)
	}
	if cfg.AdminRateLimit != 10 {
		t.Errorf("admin rate limit = %d, want 10", cfg.AdminRateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("ROOM_INVITE_THRESHOLD", "3")
	t.Setenv("ROOM_IDLE_TIMEOUT", "30m")
	t.Setenv("DEFAULT_LOCALE", "tr")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.StoreBackend != BackendMemory || cfg.RoomInviteThreshold != 3 || cfg.RoomIdleTimeout != 30*time.Minute || cfg.DefaultLocale != "tr" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"backend", "STORE_BACKEND", "mongo", "STORE_BACKEND"},
		{"threshold zero", "ROOM_INVITE_THRESHOLD", "0", "ROOM_INVITE_THRESHOLD"},
		{"threshold not int", "ROOM_INVITE_THRESHOLD", "many", "parse env"},
		{"negative idle", "ROOM_IDLE_TIMEOUT", "-1m", "ROOM_IDLE_TIMEOUT"},
		{"zero event timeout", "EVENT_TIMEOUT", "0s", "EVENT_TIMEOUT"},
		{"negative admin rate", "ADMIN_RATE_LIMIT", "-5", "ADMIN_RATE_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidateDiscordReady(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("ROOM_CATEGORY_ID", "123")
	cfg, _ := Load()
	if err := cfg.ValidateDiscordReady(); err != nil {
		t.Errorf("expected valid discord config, got %v", err)
	}

	t.Setenv("DISCORD_TOKEN", "")
	cfg, _ = Load()
	err := cfg.ValidateDiscordReady()
	if err == nil || !strings.Contains(err.Error(), "DISCORD_TOKEN") {
		t.Errorf("expected error naming DISCORD_TOKEN, got %v", err)
	}
}

func TestAdminAuthConfigured(t *testing.T) {
	cases := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{AdminToken: "t"}, true},
		{Config{AdminUsername: "u"}, false},
		{Config{AdminUsername: "u", AdminPassword: "p"}, true},
	}
	for _, c := range cases {
		if got := c.cfg.AdminAuthConfigured(); got != c.want {
			t.Errorf("AdminAuthConfigured(%+v) = %v, want %v", c.cfg, got, c.want)
		}
	}
}
