package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

func TestSeededCatalogListsOnlyActiveInDisplayOrder(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	packages, err := s.ListActivePackages(ctx)
	if err != nil {
		t.Fatalf("list packages: %v", err)
	}
	if len(packages) != 4 || packages[0].ID != "pkg-bronze" || packages[3].ID != "pkg-platinum" {
		t.Fatalf("unexpected packages %+v", packages)
	}

	packages[0].Features[0] = "mutated"
	again, _ := s.ListActivePackages(ctx)
	if again[0].Features[0] == "mutated" {
		t.Fatalf("expected listed features to be copies")
	}

	addons, err := s.ListActiveAddons(ctx)
	if err != nil {
		t.Fatalf("list addons: %v", err)
	}
	for _, addon := range addons {
		if addon.ID == "addon-neon" {
			t.Fatalf("expected inactive addon to be hidden from listing")
		}
	}
	if neon, err := s.GetAddon(ctx, "addon-neon"); err != nil || neon.Active {
		t.Fatalf("expected direct lookup to return the inactive addon, got %+v (%v)", neon, err)
	}

	reviews, err := s.ListApprovedReviews(ctx)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != "review-2" {
		t.Fatalf("expected newest approved review first, got %+v", reviews)
	}
}

func TestRespondToQuoteAcceptsExactlyOnceUnderContention(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.CreateSubmission(ctx, domain.ContactSubmission{ID: "sub-1", Name: "Sam", Email: "sam@example.com", CreatedAt: now}); err != nil {
		t.Fatalf("submission: %v", err)
	}
	if _, err := s.CreateQuote(ctx, domain.Quote{ID: "quote-1", SubmissionID: "sub-1", Status: domain.QuoteStatusSent, LinkTokenHash: "hash-1", SentAt: now}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	var (
		wg        sync.WaitGroup
		accepted  atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RespondToQuote(ctx, "quote-1", domain.QuoteStatusAccepted, now)
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, store.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 || conflicts.Load() != 15 {
		t.Fatalf("expected one acceptance and 15 conflicts, got %d/%d", accepted.Load(), conflicts.Load())
	}
}

func TestCreateQuoteRequiresSubmissionAndUniqueToken(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.CreateQuote(ctx, domain.Quote{ID: "quote-1", SubmissionID: "missing", LinkTokenHash: "hash-1", SentAt: now}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, _ = s.CreateSubmission(ctx, domain.ContactSubmission{ID: "sub-1", Name: "Sam", Email: "sam@example.com"})
	if _, err := s.CreateQuote(ctx, domain.Quote{ID: "quote-1", SubmissionID: "sub-1", LinkTokenHash: "hash-1", SentAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateQuote(ctx, domain.Quote{ID: "quote-2", SubmissionID: "sub-1", LinkTokenHash: "hash-1", SentAt: now}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for reused token digest, got %v", err)
	}
}

func TestOneBookingPerQuote(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.CreateBooking(ctx, domain.Booking{ID: "b-1", QuoteID: "quote-1", BookingNumber: "B-1"}); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := s.CreateBooking(ctx, domain.Booking{ID: "b-2", QuoteID: "quote-1", BookingNumber: "B-2"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	booking, err := s.GetBookingByQuote(ctx, "quote-1")
	if err != nil || booking.ID != "b-1" {
		t.Fatalf("expected first booking, got %+v (%v)", booking, err)
	}
}

func TestListAuditLogsNewestFirstWithFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = s.CreateAuditLog(ctx, domain.AuditLog{ID: "a1", Action: "quote_issue", EntityType: "quote", EntityID: "q1", CreatedAt: base})
	_ = s.CreateAuditLog(ctx, domain.AuditLog{ID: "a2", Action: "invoice_issue", EntityType: "invoice", EntityID: "i1", CreatedAt: base.Add(time.Minute)})
	_ = s.CreateAuditLog(ctx, domain.AuditLog{ID: "a3", Action: "quote_view", EntityType: "quote", EntityID: "q1", CreatedAt: base.Add(2 * time.Minute)})

	logs, err := s.ListAuditLogs(ctx, "quote", "q1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != "a3" || logs[1].ID != "a1" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	logs, _ = s.ListAuditLogs(ctx, "", "", 1)
	if len(logs) != 1 || logs[0].ID != "a3" {
		t.Fatalf("expected limit to apply, got %+v", logs)
	}
}
