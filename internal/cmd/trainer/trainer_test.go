package trainer

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("trainer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8090 {
		t.Fatalf("expected default port 8090, got %d", cfg.Port)
	}
	if cfg.DBPath != "data/trainer.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected 30s sweep interval, got %v", cfg.SweepInterval)
	}
	if cfg.MaxIdle != 10*time.Minute {
		t.Fatalf("expected 10m max idle, got %v", cfg.MaxIdle)
	}
}

func TestParseConfigEnvOverride(t *testing.T) {
	t.Setenv("PITCHDOJO_TRAINER_PORT", "9100")
	t.Setenv("PITCHDOJO_SESSION_MAX_IDLE", "3m")

	fs := flag.NewFlagSet("trainer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", cfg.Port)
	}
	if cfg.MaxIdle != 3*time.Minute {
		t.Fatalf("expected env max idle 3m, got %v", cfg.MaxIdle)
	}
}

func TestParseConfigFlagBeatsEnv(t *testing.T) {
	t.Setenv("PITCHDOJO_TRAINER_PORT", "9100")

	fs := flag.NewFlagSet("trainer", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9200", "-db-path", "/tmp/t.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9200 {
		t.Fatalf("expected flag port 9200, got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/t.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
}
