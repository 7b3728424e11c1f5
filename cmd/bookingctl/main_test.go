package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngspiritsbartending/youngspirits.co/internal/catalog"
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/linktoken"
	"github.com/youngspiritsbartending/youngspirits.co/internal/service"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store/memory"
)

func newTestService(t *testing.T) (*service.Service, *memory.Store) {
	t.Helper()
	repo := memory.NewSeeded()
	_, err := repo.CreateSubmission(context.Background(), domain.ContactSubmission{
		ID:                "sub-cli",
		Name:              "Avery Stone",
		Email:             "avery@example.com",
		EventDate:         "2026-12-31",
		SelectedPackageID: "pkg-silver",
		SelectedAddons:    []string{},
		TotalEstimate:     1320,
		CreatedAt:         time.Now().UTC(),
	})
	require.NoError(t, err)
	return service.New(repo, nil, linktoken.NewSigner("cli-secret-cli-secret-cli-secret-00")), repo
}

func TestIssueQuoteAndInvoicePrintLinks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := runIssueQuote(ctx, svc, []string{
		"-submission", "sub-cli",
		"-amount", "1500",
		"-details", `{"bartenders":2,"notes":"rooftop"}`,
	}, &out)
	require.NoError(t, err)

	var quoteLink domain.IssuedLink
	require.NoError(t, json.Unmarshal(out.Bytes(), &quoteLink))
	assert.NotEmpty(t, quoteLink.Token)
	assert.Contains(t, quoteLink.Number, "Q-")

	view, err := svc.GetQuote(ctx, quoteLink.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), view.Quote.QuoteAmount)
	assert.Equal(t, "rooftop", view.Quote.QuoteDetails["notes"])

	_, err = svc.AcceptQuote(ctx, quoteLink.Token)
	require.NoError(t, err)

	out.Reset()
	err = runIssueInvoice(ctx, svc, []string{
		"-quote", quoteLink.ID,
		"-type", "deposit",
		"-items", `[{"description":"Deposit","amount":500}]`,
		"-due", "2026-12-01",
	}, &out)
	require.NoError(t, err)

	var invoiceLink domain.IssuedLink
	require.NoError(t, json.Unmarshal(out.Bytes(), &invoiceLink))
	invoice, err := svc.GetInvoice(ctx, invoiceLink.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(500), invoice.Invoice.Amount)
}

func TestIssueQuoteRejectsMalformedDetails(t *testing.T) {
	svc, _ := newTestService(t)

	var out bytes.Buffer
	err := runIssueQuote(context.Background(), svc, []string{"-submission", "sub-cli", "-details", "[1,2]"}, &out)
	require.Error(t, err)
	assert.Zero(t, out.Len())
}

func TestIssueInvoiceRequiresItems(t *testing.T) {
	svc, _ := newTestService(t)

	err := runIssueInvoice(context.Background(), svc, []string{"-quote", "quote-1", "-due", "2026-12-01"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestAuditPrintsTrail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runIssueQuote(ctx, svc, []string{"-submission", "sub-cli", "-amount", "900"}, &out))
	var link domain.IssuedLink
	require.NoError(t, json.Unmarshal(out.Bytes(), &link))
	_, err := svc.GetQuote(ctx, link.Token)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, runAudit(ctx, svc, []string{"-entity-type", "quote", "-entity-id", link.ID}, &out))

	var logs []domain.AuditLog
	require.NoError(t, json.Unmarshal(out.Bytes(), &logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, link.ID, logs[0].EntityID)

	require.Error(t, runAudit(ctx, svc, []string{"-entity-id", " "}, &bytes.Buffer{}))
}

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	require.Error(t, run(context.Background(), "bogus", nil, &bytes.Buffer{}))
}

type memoryCatalogCache struct {
	packages      []domain.ServicePackage
	addons        []domain.Addon
	invalidateErr error
}

func (c *memoryCatalogCache) GetPackages(_ context.Context) ([]domain.ServicePackage, bool, error) {
	return c.packages, c.packages != nil, nil
}

func (c *memoryCatalogCache) SetPackages(_ context.Context, packages []domain.ServicePackage, _ time.Duration) error {
	c.packages = packages
	return nil
}

func (c *memoryCatalogCache) GetAddons(_ context.Context) ([]domain.Addon, bool, error) {
	return c.addons, c.addons != nil, nil
}

func (c *memoryCatalogCache) SetAddons(_ context.Context, addons []domain.Addon, _ time.Duration) error {
	c.addons = addons
	return nil
}

func (c *memoryCatalogCache) Invalidate(_ context.Context) error {
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.packages, c.addons = nil, nil
	return nil
}

func TestInvalidateCacheServesFreshCatalog(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSeeded()
	cached := &memoryCatalogCache{}
	cat := catalog.New(repo, cached, time.Minute)

	before, err := cat.Packages(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached.packages)

	repo.PutPackage(domain.ServicePackage{ID: "pkg-diamond", Name: "Diamond", Tier: domain.TierPlatinum, Price: 3200, DisplayOrder: 6, Active: true})
	stale, err := cat.Packages(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, len(before))

	var out bytes.Buffer
	require.NoError(t, runInvalidateCache(ctx, cat, &out))
	assert.Contains(t, out.String(), "catalog cache cleared")

	fresh, err := cat.Packages(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, len(before)+1)
}

func TestInvalidateCacheReportsFailure(t *testing.T) {
	cat := catalog.New(memory.NewSeeded(), &memoryCatalogCache{invalidateErr: errors.New("redis down")}, time.Minute)

	err := runInvalidateCache(context.Background(), cat, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}
