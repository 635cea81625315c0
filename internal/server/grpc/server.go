// Package grpc serves the standard gRPC health protocol for cityfix. Each
// registered dependency check is reported as its own service name; the
// empty name is SERVING only while every check passes.
package grpc

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check probes one dependency, e.g. (*sql.DB).PingContext.
type Check func(ctx context.Context) error

type GRPCServer struct {
	address  string
	interval time.Duration
	logger   logging.Logger
	health   *health.Server

	mu     sync.Mutex
	checks map[string]Check
}

func NewGRPCServer(address string, l logging.Logger, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &GRPCServer{
		address:  address,
		interval: interval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
		checks:   make(map[string]Check),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// AddCheck registers check under service. Call before Run.
func (s *GRPCServer) AddCheck(service string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[service] = check
	s.health.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
}

// probe runs every check once and publishes the results.
func (s *GRPCServer) probe(ctx context.Context) {
	s.mu.Lock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)

	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		s.mu.Lock()
		check := s.checks[name]
		s.mu.Unlock()

		cctx, cancel := context.WithTimeout(ctx, s.interval)
		err := check(cctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
			s.logger.Warn(ctx, "health check failed", "service", name, "error", err)
		}
		s.health.SetServingStatus(name, st)
	}
	s.health.SetServingStatus("", overall)
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
