// Package cart holds a visitor's in-progress booking selection and prices it.
package cart

import (
	"slices"
	"sync"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

// Cart is the selection state for one browsing session. Every method is
// atomic with respect to the others; derived values are recomputed on each
// call and never cached.
type Cart struct {
	mu              sync.Mutex
	selectedPackage *domain.ServicePackage
	selectedAddons  []domain.Addon
	serviceConfig   domain.ServiceConfiguration
	expanded        bool
	collapsed       bool
}

func New() *Cart {
	return &Cart{
		selectedAddons: make([]domain.Addon, 0, 8),
		serviceConfig:  domain.DefaultServiceConfiguration(),
	}
}

func (c *Cart) SelectedPackage() *domain.ServicePackage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePackage(c.selectedPackage)
}

// SetSelectedPackage replaces the selection. nil clears it. Deselect-on-
// reselect is up to the caller.
func (c *Cart) SetSelectedPackage(pkg *domain.ServicePackage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPackage = clonePackage(pkg)
}

func (c *Cart) SelectedAddons() []domain.Addon {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.selectedAddons)
}

func (c *Cart) HasAddon(addonID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfAddon(addonID) >= 0
}

// AddAddon appends the add-on unless one with the same id is present.
func (c *Cart) AddAddon(addon domain.Addon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOfAddon(addon.ID) >= 0 {
		return
	}
	c.selectedAddons = append(c.selectedAddons, addon)
}

func (c *Cart) RemoveAddon(addonID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedAddons = slices.DeleteFunc(c.selectedAddons, func(a domain.Addon) bool {
		return a.ID == addonID
	})
}

func (c *Cart) ServiceConfig() domain.ServiceConfiguration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serviceConfig
}

// SetServiceConfig replaces the whole configuration. Partial edits must be
// merged by the caller first.
func (c *Cart) SetServiceConfig(cfg domain.ServiceConfiguration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceConfig = cfg
}

// Clear drops the package and add-ons. Configuration and view flags stay.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedPackage = nil
	c.selectedAddons = c.selectedAddons[:0:0]
}

// RemoveSubmitted drops the given package and add-ons in one step. Selections
// made after the ids were read are kept.
func (c *Cart) RemoveSubmitted(packageID string, addonIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if packageID != "" && c.selectedPackage != nil && c.selectedPackage.ID == packageID {
		c.selectedPackage = nil
	}
	c.selectedAddons = slices.DeleteFunc(c.selectedAddons, func(a domain.Addon) bool {
		return slices.Contains(addonIDs, a.ID)
	})
}

func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.selectedPackage, c.selectedAddons, c.serviceConfig)
}

func (c *Cart) PriceMultiplier() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Multiplier(c.serviceConfig)
}

func (c *Cart) HasItems() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasItems()
}

func (c *Cart) IsCartExpanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded
}

func (c *Cart) IsCartCollapsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed
}

func (c *Cart) ToggleCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = !c.expanded
}

func (c *Cart) SetCartExpanded(expanded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = expanded
}

func (c *Cart) SetCartCollapsed(collapsed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed = collapsed
}

// Snapshot returns a consistent view of the state and its derived values.
func (c *Cart) Snapshot() domain.CartView {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemCount := len(c.selectedAddons)
	if c.selectedPackage != nil {
		itemCount++
	}

	return domain.CartView{
		SelectedPackage: clonePackage(c.selectedPackage),
		SelectedAddons:  slices.Clone(c.selectedAddons),
		ServiceConfig:   c.serviceConfig,
		IsCartExpanded:  c.expanded,
		IsCartCollapsed: c.collapsed,
		HasItems:        c.hasItems(),
		ItemCount:       itemCount,
		DurationHours:   DurationHours(c.serviceConfig.StartTime, c.serviceConfig.EndTime),
		Multiplier:      Multiplier(c.serviceConfig),
		Total:           Total(c.selectedPackage, c.selectedAddons, c.serviceConfig),
	}
}

func (c *Cart) hasItems() bool {
	return c.selectedPackage != nil || len(c.selectedAddons) > 0
}

func (c *Cart) indexOfAddon(addonID string) int {
	return slices.IndexFunc(c.selectedAddons, func(a domain.Addon) bool {
		return a.ID == addonID
	})
}

func clonePackage(pkg *domain.ServicePackage) *domain.ServicePackage {
	if pkg == nil {
		return nil
	}
	copyPkg := *pkg
	copyPkg.Features = slices.Clone(pkg.Features)
	return &copyPkg
}
