package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != ":3000" {
		t.Errorf("Expected :3000, got %q", cfg.Server.Addr)
	}
	if len(cfg.Dashboard.Symbols) != 6 {
		t.Errorf("Expected 6 dashboard majors, got %d", len(cfg.Dashboard.Symbols))
	}
	if cfg.PNL.RolloverTime != "05:30" || cfg.PNL.RolloverZone != "Asia/Kolkata" {
		t.Errorf("Unexpected rollover defaults: %q %q", cfg.PNL.RolloverTime, cfg.PNL.RolloverZone)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":8080"
pnl:
  rollover_time: "00:00"
  rollover_zone: UTC
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug, got %q", cfg.Logging.Level)
	}
	// Unset fields keep their defaults.
	if cfg.Storage.Path != "data/delta-stream.db" {
		t.Errorf("Expected default storage path, got %q", cfg.Storage.Path)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DELTA_STREAM_ADDR", ":9090")
	t.Setenv("DELTA_STREAM_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Env should win over file, got %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected warn, got %q", cfg.Logging.Level)
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PNL.RolloverTime = "25:00"
	if err := cfg.Validate(); err == nil {
		t.Error("Bad rollover time should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Feeds.Delta.Enabled = true
	cfg.Feeds.Delta.WSURL = "http://not-a-socket"
	if err := cfg.Validate(); err == nil {
		t.Error("Non-ws URL should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Server.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Empty addr should fail validation")
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("05:30")
	if err != nil || hour != 5 || minute != 30 {
		t.Errorf("Expected 5:30, got %d:%d err=%v", hour, minute, err)
	}

	for _, bad := range []string{"", "0530", "24:00", "12:60", "a:b"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) should fail", bad)
		}
	}
}
