package projection

import (
	"context"
	"time"

	"github.com/meridian-registry/meridian-registry/internal/registry"
	"github.com/meridian-registry/meridian-registry/internal/resource"
)

// RegistryProvider resolves TLD configuration.
type RegistryProvider interface {
	Get(ctx context.Context, tld string) (registry.Config, error)
}

// Service answers "as of now" queries from plain snapshot reads. It never
// opens a transaction and never writes.
type Service struct {
	resources  resource.Repository
	registries RegistryProvider
	now        func() time.Time
}

// NewService wires a projection query service.
func NewService(resources resource.Repository, registries RegistryProvider) *Service {
	return &Service{resources: resources, registries: registries, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Query projects the resource's effective state at the current time.
func (s *Service) Query(ctx context.Context, id string) (View, error) {
	res, err := s.resources.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	cfg, err := s.registries.Get(ctx, res.TLD)
	if err != nil {
		return View{}, err
	}
	return Project(res, cfg, s.now()), nil
}
