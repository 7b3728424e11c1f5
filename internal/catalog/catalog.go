// Package catalog serves the active packages, add-ons and approved reviews.
package catalog

import (
	"context"
	"log"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cache"
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

type Catalog struct {
	repo     store.Repository
	cache    cache.CatalogCache
	cacheTTL time.Duration
}

func New(repo store.Repository, cacheStore cache.CatalogCache, cacheTTL time.Duration) *Catalog {
	if cacheStore == nil {
		cacheStore = cache.NoopCatalogCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Catalog{
		repo:     repo,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
	}
}

// Packages lists active packages by display order. Cache failures fall back
// to the repository.
func (c *Catalog) Packages(ctx context.Context) ([]domain.ServicePackage, error) {
	if cached, ok, err := c.cache.GetPackages(ctx); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[catalog] WARN: package cache read failed: %v", err)
	}

	packages, err := c.repo.ListActivePackages(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetPackages(ctx, packages, c.cacheTTL); err != nil {
		log.Printf("[catalog] WARN: package cache write failed: %v", err)
	}
	return packages, nil
}

func (c *Catalog) Addons(ctx context.Context) ([]domain.Addon, error) {
	if cached, ok, err := c.cache.GetAddons(ctx); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[catalog] WARN: add-on cache read failed: %v", err)
	}

	addons, err := c.repo.ListActiveAddons(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetAddons(ctx, addons, c.cacheTTL); err != nil {
		log.Printf("[catalog] WARN: add-on cache write failed: %v", err)
	}
	return addons, nil
}

// Package resolves one selectable package. Inactive packages are reported
// as not found.
func (c *Catalog) Package(ctx context.Context, id string) (*domain.ServicePackage, error) {
	pkg, err := c.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, store.ErrNotFound
	}
	return pkg, nil
}

func (c *Catalog) Addon(ctx context.Context, id string) (*domain.Addon, error) {
	addon, err := c.repo.GetAddon(ctx, id)
	if err != nil {
		return nil, err
	}
	if !addon.Active {
		return nil, store.ErrNotFound
	}
	return addon, nil
}

// Reviews are not cached; moderation changes should show up immediately.
func (c *Catalog) Reviews(ctx context.Context) ([]domain.Review, error) {
	return c.repo.ListApprovedReviews(ctx)
}

func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx)
}
