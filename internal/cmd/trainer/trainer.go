// Package trainer parses trainer daemon flags and starts the runtime.
package trainer

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pitchdojo/pitchdojo/internal/platform/config"
	"github.com/pitchdojo/pitchdojo/internal/platform/otel"
	"github.com/pitchdojo/pitchdojo/internal/telemetry"
	"github.com/pitchdojo/pitchdojo/internal/trainer/app"
	"github.com/pitchdojo/pitchdojo/internal/trainer/generation"
	"github.com/pitchdojo/pitchdojo/internal/trainer/storage/sqlite"
)

// Config holds trainer daemon configuration.
type Config struct {
	Port   int    `env:"PITCHDOJO_TRAINER_PORT" envDefault:"8090"`
	Addr   string `env:"PITCHDOJO_TRAINER_ADDR"`
	DBPath string `env:"PITCHDOJO_TRAINER_DB_PATH" envDefault:"data/trainer.db"`

	SweepInterval time.Duration `env:"PITCHDOJO_SWEEP_INTERVAL" envDefault:"30s"`
	MaxIdle       time.Duration `env:"PITCHDOJO_SESSION_MAX_IDLE" envDefault:"10m"`
	EvictionGrace time.Duration `env:"PITCHDOJO_SESSION_EVICTION_GRACE" envDefault:"1h"`

	GenerationTimeout time.Duration `env:"PITCHDOJO_GENERATION_TIMEOUT" envDefault:"10s"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"PITCHDOJO_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The trainer daemon port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The trainer listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the sqlite archive database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the trainer daemon and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "trainer")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	engine := app.NewEngine(nil, generator, store, telemetry.NewEmitter(store),
		app.WithGenerationTimeout(cfg.GenerationTimeout))

	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	server, err := app.NewServer(addr, engine, store, app.SweepConfig{
		Interval: cfg.SweepInterval,
		MaxIdle:  cfg.MaxIdle,
		Grace:    cfg.EvictionGrace,
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	return server.Serve(ctx)
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// newGenerator picks the prospect voice: the OpenAI adapter when a key is
// configured, the deterministic scripted generator otherwise.
func newGenerator(cfg Config) (generation.Generator, error) {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("no OpenAI key configured, using scripted prospect lines")
		return generation.NewScripted(), nil
	}
	return generation.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
}
