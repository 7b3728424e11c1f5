package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

var (
	goldPackage = domain.ServicePackage{ID: "pkg-gold", Name: "Gold", Tier: domain.TierGold, Price: 1000, Features: []string{"2 bartenders"}}
	champagne   = domain.Addon{ID: "addon-champagne", Name: "Champagne Toast", Price: 200}
	mocktails   = domain.Addon{ID: "addon-mocktails", Name: "Mocktail Bar", Price: 150}
)

func TestNewCartDefaults(t *testing.T) {
	c := New()

	assert.Nil(t, c.SelectedPackage())
	assert.Empty(t, c.SelectedAddons())
	assert.Equal(t, domain.ServiceConfiguration{StartTime: "17:00", EndTime: "22:00"}, c.ServiceConfig())
	assert.False(t, c.IsCartExpanded())
	assert.False(t, c.IsCartCollapsed())
	assert.False(t, c.HasItems())
	assert.Equal(t, int64(0), c.Total())
	assert.InDelta(t, 1.2, c.PriceMultiplier(), 1e-9)
}

func TestAddAddonIgnoresDuplicates(t *testing.T) {
	c := New()
	c.AddAddon(champagne)
	c.AddAddon(champagne)

	addons := c.SelectedAddons()
	require.Len(t, addons, 1)
	assert.Equal(t, champagne.ID, addons[0].ID)
}

func TestAddAddonKeepsInsertionOrder(t *testing.T) {
	c := New()
	c.AddAddon(mocktails)
	c.AddAddon(champagne)

	addons := c.SelectedAddons()
	require.Len(t, addons, 2)
	assert.Equal(t, []string{mocktails.ID, champagne.ID}, []string{addons[0].ID, addons[1].ID})
}

func TestRemoveAddonIsIdempotent(t *testing.T) {
	c := New()
	c.AddAddon(champagne)
	c.AddAddon(mocktails)

	c.RemoveAddon(champagne.ID)
	once := c.SelectedAddons()
	c.RemoveAddon(champagne.ID)
	twice := c.SelectedAddons()

	assert.Equal(t, once, twice)
	require.Len(t, twice, 1)
	assert.Equal(t, mocktails.ID, twice[0].ID)

	c.RemoveAddon("missing")
	assert.Len(t, c.SelectedAddons(), 1)
}

func TestSetSelectedPackageReplacesAndClears(t *testing.T) {
	c := New()
	c.SetSelectedPackage(&goldPackage)
	require.NotNil(t, c.SelectedPackage())
	assert.Equal(t, goldPackage.ID, c.SelectedPackage().ID)

	c.SetSelectedPackage(&goldPackage)
	assert.Equal(t, goldPackage.ID, c.SelectedPackage().ID)

	c.SetSelectedPackage(nil)
	assert.Nil(t, c.SelectedPackage())
}

func TestSelectedPackageIsCopied(t *testing.T) {
	c := New()
	pkg := goldPackage
	c.SetSelectedPackage(&pkg)
	pkg.Price = 1

	got := c.SelectedPackage()
	got.Features[0] = "changed"

	assert.Equal(t, int64(1000), c.SelectedPackage().Price)
	assert.Equal(t, "2 bartenders", c.SelectedPackage().Features[0])
}

func TestClearKeepsConfigAndFlags(t *testing.T) {
	c := New()
	c.SetSelectedPackage(&goldPackage)
	c.AddAddon(champagne)
	cfg := domain.ServiceConfiguration{EventDate: "2026-11-20", GuestCount: "76-100", StartTime: "18:00", EndTime: "23:30"}
	c.SetServiceConfig(cfg)
	c.SetCartExpanded(true)
	c.SetCartCollapsed(true)

	c.Clear()

	assert.Nil(t, c.SelectedPackage())
	assert.Empty(t, c.SelectedAddons())
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, cfg, c.ServiceConfig())
	assert.True(t, c.IsCartExpanded())
	assert.True(t, c.IsCartCollapsed())
}

func TestRemoveSubmittedKeepsLaterSelections(t *testing.T) {
	c := New()
	c.SetSelectedPackage(&goldPackage)
	c.AddAddon(champagne)
	submitted := c.Snapshot()

	c.AddAddon(mocktails)
	c.RemoveSubmitted(submitted.SelectedPackage.ID, []string{champagne.ID})

	assert.Nil(t, c.SelectedPackage())
	addons := c.SelectedAddons()
	require.Len(t, addons, 1)
	assert.Equal(t, mocktails.ID, addons[0].ID)
}

func TestRemoveSubmittedLeavesReplacedPackage(t *testing.T) {
	silver := domain.ServicePackage{ID: "pkg-silver", Name: "Silver", Tier: domain.TierSilver, Price: 800}
	c := New()
	c.SetSelectedPackage(&goldPackage)
	c.SetSelectedPackage(&silver)

	c.RemoveSubmitted(goldPackage.ID, nil)

	require.NotNil(t, c.SelectedPackage())
	assert.Equal(t, silver.ID, c.SelectedPackage().ID)
}

func TestTotalTracksEveryMutation(t *testing.T) {
	c := New()
	c.SetSelectedPackage(&goldPackage)
	assert.Equal(t, int64(1200), c.Total())

	c.AddAddon(champagne)
	c.SetServiceConfig(domain.ServiceConfiguration{GuestCount: "76-100", StartTime: "18:00", EndTime: "23:30"})
	assert.Equal(t, int64(1800), c.Total())
	assert.InDelta(t, 1.5, c.PriceMultiplier(), 1e-9)

	c.RemoveAddon(champagne.ID)
	assert.Equal(t, int64(1500), c.Total())
}

func TestToggleCartFlipsExpanded(t *testing.T) {
	c := New()
	c.ToggleCart()
	assert.True(t, c.IsCartExpanded())
	c.ToggleCart()
	assert.False(t, c.IsCartExpanded())

	c.SetCartCollapsed(true)
	assert.True(t, c.IsCartCollapsed())
	assert.False(t, c.IsCartExpanded())
}

func TestSnapshot(t *testing.T) {
	c := New()
	c.SetSelectedPackage(&goldPackage)
	c.AddAddon(champagne)
	c.AddAddon(mocktails)

	view := c.Snapshot()
	assert.True(t, view.HasItems)
	assert.Equal(t, 3, view.ItemCount)
	assert.InDelta(t, 5.0, view.DurationHours, 1e-9)
	assert.Equal(t, int64(1620), view.Total)
	require.NotNil(t, view.SelectedPackage)
	assert.Len(t, view.SelectedAddons, 2)
}

func TestConcurrentAddAddonKeepsIdsUnique(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddAddon(champagne)
		}()
	}
	wg.Wait()

	assert.Len(t, c.SelectedAddons(), 1)
}

func TestMustFromContextPanicsOutsideProvider(t *testing.T) {
	assert.PanicsWithValue(t, ErrNoProvider, func() {
		MustFromContext(context.Background())
	})

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestProvidersAreIndependent(t *testing.T) {
	first, second := New(), New()
	ctxA := WithCart(context.Background(), first)
	ctxB := WithCart(context.Background(), second)

	MustFromContext(ctxA).AddAddon(champagne)

	assert.Len(t, MustFromContext(ctxA).SelectedAddons(), 1)
	assert.Empty(t, MustFromContext(ctxB).SelectedAddons())
}

func TestSessionsAcquireReusesAndExpires(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(30*time.Minute, 0)
	sessions.now = func() time.Time { return now }

	id, c := sessions.Acquire("")
	require.NotEmpty(t, id)
	c.AddAddon(champagne)

	sameID, same := sessions.Acquire(id)
	assert.Equal(t, id, sameID)
	assert.Same(t, c, same)

	otherID, other := sessions.Acquire("not-a-uuid")
	assert.NotEqual(t, id, otherID)
	assert.NotSame(t, c, other)

	now = now.Add(31 * time.Minute)
	freshID, fresh := sessions.Acquire(id)
	assert.NotEqual(t, id, freshID)
	assert.Empty(t, fresh.SelectedAddons())
}

func TestSessionsSweep(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(10*time.Minute, 0)
	sessions.now = func() time.Time { return now }

	sessions.Acquire("")
	sessions.Acquire("")
	require.Equal(t, 2, sessions.Len())

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 0, sessions.Sweep())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 2, sessions.Sweep())
	assert.Equal(t, 0, sessions.Len())
}

func TestSessionsEvictLeastRecentlyUsedAtLimit(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(time.Hour, 2)
	sessions.now = func() time.Time { return now }

	firstID, _ := sessions.Acquire("")
	now = now.Add(time.Minute)
	secondID, _ := sessions.Acquire("")
	now = now.Add(time.Minute)
	_, _ = sessions.Acquire(firstID)

	now = now.Add(time.Minute)
	sessions.Acquire("")
	assert.Equal(t, 2, sessions.Len())

	keptID, _ := sessions.Acquire(firstID)
	assert.Equal(t, firstID, keptID)

	reacquired, _ := sessions.Acquire(secondID)
	assert.NotEqual(t, secondID, reacquired)
	assert.Equal(t, 2, sessions.Len())
}

func TestSessionsPreferEvictingExpired(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(10*time.Minute, 2)
	sessions.now = func() time.Time { return now }

	staleID, _ := sessions.Acquire("")
	now = now.Add(9 * time.Minute)
	liveID, live := sessions.Acquire("")

	now = now.Add(2 * time.Minute)
	sessions.Acquire("")

	require.Equal(t, 2, sessions.Len())
	sameID, same := sessions.Acquire(liveID)
	assert.Equal(t, liveID, sameID)
	assert.Same(t, live, same)
	assert.NotEqual(t, staleID, sameID)
}
