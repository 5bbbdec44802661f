package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthRegistrar exposes the standard gRPC health service. The sweeper
// daemon has no RPC API of its own; this is its only serving surface, used
// by orchestration liveness probes.
type HealthRegistrar struct{}

// NewHealthRegistrar creates a new health service registrar.
func NewHealthRegistrar() *HealthRegistrar {
	return &HealthRegistrar{}
}

// Register attaches the health service to the gRPC server.
func (r *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, health.NewServer())
}
