// Package server exposes run health over gRPC for orchestration probes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/pipeline"
)

const (
	// PipelineService reports whether the current run is making progress.
	PipelineService = "papertrans.Pipeline"
	// CacheService reports whether the cache backend answers pings.
	CacheService = "papertrans.Cache"
)

type HealthServer struct {
	grpc   *grpc.Server
	hs     *health.Server
	logger *slog.Logger

	done   atomic.Int64
	failed atomic.Int64
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HealthServer{grpc: grpc.NewServer(), hs: health.NewServer(), logger: logger}
	healthpb.RegisterHealthServer(s.grpc, s.hs)
	// Reflection for grpcurl
	reflection.Register(s.grpc)
	s.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.hs.SetServingStatus(PipelineService, healthpb.HealthCheckResponse_NOT_SERVING)
	s.hs.SetServingStatus(CacheService, healthpb.HealthCheckResponse_SERVING)
	return s
}

// Serve blocks serving on lis until Stop.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("health serving", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and stops gracefully.
func (s *HealthServer) Stop() {
	s.hs.Shutdown()
	s.grpc.GracefulStop()
}

// RunStarted flips the pipeline service to SERVING.
func (s *HealthServer) RunStarted() {
	s.done.Store(0)
	s.failed.Store(0)
	s.hs.SetServingStatus(PipelineService, healthpb.HealthCheckResponse_SERVING)
}

// Progress records a finished document. It is safe for concurrent use.
func (s *HealthServer) Progress(r pipeline.DocResult) {
	s.done.Add(1)
	if !r.Done() {
		s.failed.Add(1)
	}
}

// RunFinished reports the run's final state; an aborted run leaves the pipeline NOT_SERVING.
func (s *HealthServer) RunFinished(res pipeline.RunResult, err error) {
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil || res.Aborted {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.hs.SetServingStatus(PipelineService, st)
	s.logger.Info("health.run.finished", "status", st.String(), "done", s.done.Load(), "failed", s.failed.Load())
}

// Counts returns finished and failed documents so far.
func (s *HealthServer) Counts() (done, failed int64) { return s.done.Load(), s.failed.Load() }

// WatchCache pings store every interval until ctx ends, updating CacheService.
func (s *HealthServer) WatchCache(ctx context.Context, store cache.Store, interval time.Duration) {
	check := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := PingCache(ctx, store, s.logger, interval); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.hs.SetServingStatus(CacheService, st)
	}
	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}
