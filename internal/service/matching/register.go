package matching

import (
	"google.golang.org/grpc"

	"github.com/oggyb/tripmate-match/internal/app"
)

// Registrar ties the Matching service into the gRPC server
type Registrar struct {
	appCtx  *app.AppContext
	service *Service
}

// NewRegistrar creates a new Registrar for the Matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// NewRegistrarFor registers an already built service.
func NewRegistrarFor(svc *Service) *Registrar {
	return &Registrar{appCtx: svc.appCtx, service: svc}
}

// Register attaches the Matching service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	service := r.service
	if service == nil {
		service = NewMatchingService(r.appCtx)
	}
	RegisterMatchingServer(s, service)
}
