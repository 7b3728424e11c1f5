package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	databaseURL := os.Getenv("YOUNGSPIRITS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set YOUNGSPIRITS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestQuoteLifecycleRoundTrip(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	submissionID := fmt.Sprintf("sub-it-%d", stamp)
	quoteID := fmt.Sprintf("quote-it-%d", stamp)
	bookingID := fmt.Sprintf("booking-it-%d", stamp)
	invoiceID := fmt.Sprintf("inv-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM contact_submissions WHERE id = $1`, submissionID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE entity_id = $1`, quoteID)
	})

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := s.CreateSubmission(ctx, domain.ContactSubmission{
		ID:             submissionID,
		Name:           "Integration Guest",
		Email:          "guest@example.com",
		EventDate:      "2026-12-12",
		SelectedAddons: []string{"addon-champagne"},
		TotalEstimate:  1320,
		CreatedAt:      now,
	}); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	loaded, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if len(loaded.SelectedAddons) != 1 || loaded.TotalEstimate != 1320 {
		t.Fatalf("unexpected submission %+v", loaded)
	}

	expiresAt := now.Add(24 * time.Hour)
	if _, err := s.CreateQuote(ctx, domain.Quote{
		ID:            quoteID,
		SubmissionID:  submissionID,
		QuoteNumber:   fmt.Sprintf("Q-IT-%d", stamp),
		QuoteAmount:   1500,
		QuoteDetails:  map[string]any{"bartenders": float64(2)},
		Status:        domain.QuoteStatusSent,
		LinkTokenHash: fmt.Sprintf("hash-quote-%d", stamp),
		SentAt:        now,
		ExpiresAt:     &expiresAt,
	}); err != nil {
		t.Fatalf("create quote: %v", err)
	}

	if _, err := s.CreateQuote(ctx, domain.Quote{
		ID:            quoteID + "-orphan",
		SubmissionID:  "sub-missing",
		QuoteNumber:   fmt.Sprintf("Q-IT-ORPHAN-%d", stamp),
		Status:        domain.QuoteStatusSent,
		LinkTokenHash: fmt.Sprintf("hash-orphan-%d", stamp),
		SentAt:        now,
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for missing submission, got %v", err)
	}

	marked, err := s.MarkQuoteViewed(ctx, quoteID, now)
	if err != nil || !marked {
		t.Fatalf("expected first view to mark quote, got %v (%v)", marked, err)
	}
	marked, err = s.MarkQuoteViewed(ctx, quoteID, now.Add(time.Minute))
	if err != nil || marked {
		t.Fatalf("expected second view to be a no-op, got %v (%v)", marked, err)
	}

	accepted, err := s.RespondToQuote(ctx, quoteID, domain.QuoteStatusAccepted, now)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.RespondedAt == nil || accepted.QuoteDetails["bartenders"] != float64(2) {
		t.Fatalf("unexpected accepted quote %+v", accepted)
	}
	if _, err := s.RespondToQuote(ctx, quoteID, domain.QuoteStatusDeclined, now); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on second response, got %v", err)
	}

	if _, err := s.CreateBooking(ctx, domain.Booking{
		ID:            bookingID,
		QuoteID:       quoteID,
		BookingNumber: fmt.Sprintf("B-IT-%d", stamp),
		CustomerName:  "Integration Guest",
		CustomerEmail: "guest@example.com",
		CreatedAt:     now,
	}); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	tokenHash := fmt.Sprintf("hash-invoice-%d", stamp)
	if _, err := s.CreateInvoice(ctx, domain.Invoice{
		ID:            invoiceID,
		BookingID:     bookingID,
		InvoiceNumber: fmt.Sprintf("INV-IT-%d", stamp),
		InvoiceType:   domain.InvoiceTypeDeposit,
		Amount:        500,
		LineItems:     []domain.InvoiceLineItem{{Description: "Deposit", Amount: 500}},
		Status:        domain.InvoiceStatusSent,
		LinkTokenHash: tokenHash,
		SentAt:        now,
		DueDate:       "2026-11-01",
	}); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	invoice, err := s.GetInvoiceByTokenHash(ctx, tokenHash)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if len(invoice.LineItems) != 1 || invoice.ViewedAt != nil {
		t.Fatalf("unexpected invoice %+v", invoice)
	}
	if marked, err := s.MarkInvoiceViewed(ctx, invoiceID, now); err != nil || !marked {
		t.Fatalf("expected invoice view mark, got %v (%v)", marked, err)
	}
	if _, err := s.MarkInvoiceViewed(ctx, "inv-missing", now); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for missing invoice, got %v", err)
	}

	if err := s.CreateAuditLog(ctx, domain.AuditLog{
		ID:         fmt.Sprintf("audit-it-%d", stamp),
		Action:     "quote_accepted",
		EntityType: "quote",
		EntityID:   quoteID,
		CreatedAt:  now,
	}); err != nil {
		t.Fatalf("audit: %v", err)
	}
	logs, err := s.ListAuditLogs(ctx, "quote", quoteID, 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one audit log, got %v (%v)", logs, err)
	}
}
