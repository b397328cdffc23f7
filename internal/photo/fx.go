package photo

import (
	"context"
	"fmt"

	"github.com/smallbiznis/shoecare/internal/config"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("photo.store",
	fx.Provide(NewBackend),
	fx.Provide(New),
	fx.Provide(func(s *Store) orderdomain.PhotoStore { return s }),
)

// NewBackend selects the storage backend from configuration.
func NewBackend(cfg config.Config) (Backend, error) {
	switch cfg.Photo.Backend {
	case "", config.PhotoBackendLocal:
		return NewLocalBackend(cfg.Photo.Dir)
	case config.PhotoBackendMinIO:
		return NewMinIOBackend(context.Background(), cfg.Photo)
	default:
		return nil, fmt.Errorf("unsupported photo backend %q", cfg.Photo.Backend)
	}
}

func New(cfg config.Config, backend Backend, log *zap.Logger) *Store {
	return NewStore(backend, log, Options{
		BaseURL: cfg.Photo.BaseURL,
		MaxEdge: cfg.Photo.MaxEdge,
		Quality: cfg.Photo.Quality,
	})
}
