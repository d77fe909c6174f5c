package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pitchdojo/pitchdojo/internal/trainer/storage"
)

// SweepConfig tunes the background session sweeper.
type SweepConfig struct {
	// Interval between sweep passes.
	Interval time.Duration
	// MaxIdle is how long an active session may go without a turn before it
	// times out.
	MaxIdle time.Duration
	// Grace is how long a terminal session stays readable before eviction.
	Grace time.Duration
}

// DefaultSweepConfig returns the stock sweeper tuning.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Interval: 30 * time.Second,
		MaxIdle:  10 * time.Minute,
		Grace:    time.Hour,
	}
}

// Server hosts the trainer daemon: the session engine, a gRPC health
// endpoint, and the background sweeper.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	engine     *Engine
	store      storage.Store
	sweep      SweepConfig
}

// NewServer creates a configured trainer server listening on addr.
// store may be nil when running without persistence.
func NewServer(addr string, engine *Engine, store storage.Store, sweep SweepConfig) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	if sweep.Interval <= 0 {
		sweep = DefaultSweepConfig()
	}

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		engine:     engine,
		store:      store,
		sweep:      sweep,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Engine returns the hosted session engine.
func (s *Server) Engine() *Engine {
	return s.engine
}

// Serve runs the daemon until the context ends, then drains gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("trainer listening at %v", s.listener.Addr())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.grpcServer.Serve(s.listener)
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.sweep.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				timedOut, evicted := s.engine.Sweep(ctx, s.sweep.MaxIdle, s.sweep.Grace)
				if timedOut > 0 || evicted > 0 {
					log.Printf("sweep: timed out %d, evicted %d", timedOut, evicted)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

func (s *Server) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
