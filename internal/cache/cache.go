package cache

import (
	"context"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

// CatalogCache stores the read-mostly catalog listings.
type CatalogCache interface {
	GetPackages(ctx context.Context) ([]domain.ServicePackage, bool, error)
	SetPackages(ctx context.Context, packages []domain.ServicePackage, ttl time.Duration) error
	GetAddons(ctx context.Context) ([]domain.Addon, bool, error)
	SetAddons(ctx context.Context, addons []domain.Addon, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) GetPackages(_ context.Context) ([]domain.ServicePackage, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetPackages(_ context.Context, _ []domain.ServicePackage, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) GetAddons(_ context.Context) ([]domain.Addon, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetAddons(_ context.Context, _ []domain.Addon, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(_ context.Context) error {
	return nil
}
