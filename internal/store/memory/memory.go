package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

type Store struct {
	mu               sync.RWMutex
	packages         map[string]domain.ServicePackage
	addons           map[string]domain.Addon
	reviews          []domain.Review
	submissionsByID  map[string]domain.ContactSubmission
	quotesByID       map[string]domain.Quote
	quoteIDByToken   map[string]string
	bookingsByID     map[string]domain.Booking
	bookingIDByQuote map[string]string
	invoicesByID     map[string]domain.Invoice
	invoiceIDByToken map[string]string
	auditLogs        []domain.AuditLog
}

func New() *Store {
	return &Store{
		packages:         make(map[string]domain.ServicePackage),
		addons:           make(map[string]domain.Addon),
		reviews:          make([]domain.Review, 0, 16),
		submissionsByID:  make(map[string]domain.ContactSubmission),
		quotesByID:       make(map[string]domain.Quote),
		quoteIDByToken:   make(map[string]string),
		bookingsByID:     make(map[string]domain.Booking),
		bookingIDByQuote: make(map[string]string),
		invoicesByID:     make(map[string]domain.Invoice),
		invoiceIDByToken: make(map[string]string),
		auditLogs:        make([]domain.AuditLog, 0, 128),
	}
}

// NewSeeded returns a store preloaded with the demo catalog and reviews.
func NewSeeded() *Store {
	s := New()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	packages := []domain.ServicePackage{
		{ID: "pkg-bronze", Name: "The Essentials", Tier: domain.TierBronze, Description: "Beer, wine and one signature cocktail.", Price: 650, Features: []string{"1 bartender", "Up to 4 hours", "Bar tools and ice"}, DisplayOrder: 1, Active: true},
		{ID: "pkg-silver", Name: "The Social", Tier: domain.TierSilver, Description: "A full bar for lively gatherings.", Price: 1100, Features: []string{"2 bartenders", "Two signature cocktails", "Garnish station"}, Popular: true, DisplayOrder: 2, Active: true},
		{ID: "pkg-gold", Name: "The Celebration", Tier: domain.TierGold, Description: "Craft cocktails with a custom menu.", Price: 1750, Features: []string{"2 bartenders", "Custom cocktail menu", "Glassware"}, DisplayOrder: 3, Active: true},
		{ID: "pkg-platinum", Name: "The Grand Affair", Tier: domain.TierPlatinum, Description: "Everything, plus a mixology showcase.", Price: 2600, Features: []string{"3 bartenders", "Mixology showcase", "Premium glassware", "Champagne toast"}, DisplayOrder: 4, Active: true},
		{ID: "pkg-retired", Name: "Happy Hour", Tier: domain.TierBronze, Description: "Retired package.", Price: 400, Features: []string{"1 bartender"}, DisplayOrder: 5, Active: false},
	}
	for _, p := range packages {
		p.CreatedAt, p.UpdatedAt = now, now
		s.packages[p.ID] = p
	}

	addons := []domain.Addon{
		{ID: "addon-champagne", Name: "Champagne Toast", Description: "A poured toast for every guest.", Price: 250, Category: "drinks", DisplayOrder: 1, Active: true},
		{ID: "addon-mocktails", Name: "Mocktail Bar", Description: "Zero-proof menu for all ages.", Price: 180, Category: "drinks", DisplayOrder: 2, Active: true},
		{ID: "addon-ice-sculpture", Name: "Ice Luge", Description: "Carved luge for shots and photos.", Price: 450, Category: "experience", DisplayOrder: 3, Active: true},
		{ID: "addon-extra-hour", Name: "Extra Bartender", Description: "Another pair of hands behind the bar.", Price: 300, Category: "staff", DisplayOrder: 4, Active: true},
		{ID: "addon-neon", Name: "Neon Sign Rental", Description: "Retired add-on.", Price: 120, Category: "decor", DisplayOrder: 5, Active: false},
	}
	for _, a := range addons {
		a.CreatedAt, a.UpdatedAt = now, now
		s.addons[a.ID] = a
	}

	s.reviews = append(s.reviews,
		domain.Review{ID: "review-1", ReviewerName: "Maya R.", ReviewText: "The signature cocktails were the talk of the wedding.", Rating: 5, EventType: "wedding", EventDate: "2025-09-13", PhotoURLs: []string{}, Approved: true, SubmissionDate: now.Add(-72 * time.Hour)},
		domain.Review{ID: "review-2", ReviewerName: "Jordan P.", ReviewText: "Professional, fast and fun. Booking again next year.", Rating: 5, EventType: "corporate", PhotoURLs: []string{}, Approved: true, SubmissionDate: now.Add(-24 * time.Hour)},
		domain.Review{ID: "review-3", ReviewerName: "Pending", ReviewText: "Awaiting moderation.", Rating: 4, PhotoURLs: []string{}, Approved: false, SubmissionDate: now},
	)

	return s
}

// PutPackage inserts or replaces a catalog package.
func (s *Store) PutPackage(pkg domain.ServicePackage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[pkg.ID] = pkg
}

func (s *Store) PutAddon(addon domain.Addon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addons[addon.ID] = addon
}

func (s *Store) ListActivePackages(_ context.Context) ([]domain.ServicePackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	packages := make([]domain.ServicePackage, 0, len(s.packages))
	for _, p := range s.packages {
		if !p.Active {
			continue
		}
		p.Features = slices.Clone(p.Features)
		packages = append(packages, p)
	}
	slices.SortFunc(packages, func(a, b domain.ServicePackage) int {
		if a.DisplayOrder == b.DisplayOrder {
			return strings.Compare(a.ID, b.ID)
		}
		return a.DisplayOrder - b.DisplayOrder
	})
	return packages, nil
}

func (s *Store) GetPackage(_ context.Context, id string) (*domain.ServicePackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pkg, ok := s.packages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	pkg.Features = slices.Clone(pkg.Features)
	return &pkg, nil
}

func (s *Store) ListActiveAddons(_ context.Context) ([]domain.Addon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addons := make([]domain.Addon, 0, len(s.addons))
	for _, a := range s.addons {
		if a.Active {
			addons = append(addons, a)
		}
	}
	slices.SortFunc(addons, func(a, b domain.Addon) int {
		if a.DisplayOrder == b.DisplayOrder {
			return strings.Compare(a.ID, b.ID)
		}
		return a.DisplayOrder - b.DisplayOrder
	})
	return addons, nil
}

func (s *Store) GetAddon(_ context.Context, id string) (*domain.Addon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addon, ok := s.addons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &addon, nil
}

func (s *Store) ListApprovedReviews(_ context.Context) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := make([]domain.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		if r.Approved {
			reviews = append(reviews, r)
		}
	}
	slices.SortStableFunc(reviews, func(a, b domain.Review) int {
		return b.SubmissionDate.Compare(a.SubmissionDate)
	})
	return reviews, nil
}

func (s *Store) CreateSubmission(_ context.Context, submission domain.ContactSubmission) (*domain.ContactSubmission, error) {
	if submission.ID == "" || submission.Name == "" || submission.Email == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissionsByID[submission.ID]; exists {
		return nil, store.ErrConflict
	}
	submission.SelectedAddons = slices.Clone(submission.SelectedAddons)
	s.submissionsByID[submission.ID] = submission
	created := submission
	return &created, nil
}

func (s *Store) GetSubmission(_ context.Context, id string) (*domain.ContactSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	submission.SelectedAddons = slices.Clone(submission.SelectedAddons)
	return &submission, nil
}

func (s *Store) CreateQuote(_ context.Context, quote domain.Quote) (*domain.Quote, error) {
	if quote.ID == "" || quote.SubmissionID == "" || quote.LinkTokenHash == "" || quote.QuoteAmount < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissionsByID[quote.SubmissionID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, exists := s.quotesByID[quote.ID]; exists {
		return nil, store.ErrConflict
	}
	if _, exists := s.quoteIDByToken[quote.LinkTokenHash]; exists {
		return nil, store.ErrConflict
	}

	quote.QuoteDetails = maps.Clone(quote.QuoteDetails)
	s.quotesByID[quote.ID] = quote
	s.quoteIDByToken[quote.LinkTokenHash] = quote.ID
	created := quote
	return &created, nil
}

func (s *Store) GetQuoteByID(_ context.Context, id string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quoteLocked(id)
}

func (s *Store) GetQuoteByTokenHash(_ context.Context, tokenHash string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.quoteIDByToken[tokenHash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.quoteLocked(id)
}

func (s *Store) MarkQuoteViewed(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotesByID[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if quote.Status != domain.QuoteStatusSent || quote.ViewedAt != nil {
		return false, nil
	}
	viewedAt := at
	quote.Status = domain.QuoteStatusViewed
	quote.ViewedAt = &viewedAt
	s.quotesByID[id] = quote
	return true, nil
}

func (s *Store) RespondToQuote(_ context.Context, id string, status string, at time.Time) (*domain.Quote, error) {
	if status != domain.QuoteStatusAccepted && status != domain.QuoteStatusDeclined {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quote, ok := s.quotesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if quote.Status != domain.QuoteStatusSent && quote.Status != domain.QuoteStatusViewed {
		return nil, store.ErrConflict
	}
	respondedAt := at
	quote.Status = status
	quote.RespondedAt = &respondedAt
	s.quotesByID[id] = quote
	return s.quoteLocked(id)
}

func (s *Store) GetBookingByQuote(_ context.Context, quoteID string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bookingIDByQuote[quoteID]
	if !ok {
		return nil, store.ErrNotFound
	}
	booking := s.bookingsByID[id]
	return &booking, nil
}

func (s *Store) GetBookingByID(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookingsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &booking, nil
}

func (s *Store) CreateBooking(_ context.Context, booking domain.Booking) (*domain.Booking, error) {
	if booking.ID == "" || booking.QuoteID == "" || booking.BookingNumber == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookingIDByQuote[booking.QuoteID]; exists {
		return nil, store.ErrConflict
	}
	s.bookingsByID[booking.ID] = booking
	s.bookingIDByQuote[booking.QuoteID] = booking.ID
	created := booking
	return &created, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if invoice.ID == "" || invoice.BookingID == "" || invoice.LinkTokenHash == "" || invoice.Amount < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookingsByID[invoice.BookingID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, exists := s.invoiceIDByToken[invoice.LinkTokenHash]; exists {
		return nil, store.ErrConflict
	}
	invoice.LineItems = slices.Clone(invoice.LineItems)
	s.invoicesByID[invoice.ID] = invoice
	s.invoiceIDByToken[invoice.LinkTokenHash] = invoice.ID
	created := invoice
	return &created, nil
}

func (s *Store) GetInvoiceByTokenHash(_ context.Context, tokenHash string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.invoiceIDByToken[tokenHash]
	if !ok {
		return nil, store.ErrNotFound
	}
	invoice := s.invoicesByID[id]
	invoice.LineItems = slices.Clone(invoice.LineItems)
	return &invoice, nil
}

func (s *Store) MarkInvoiceViewed(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, ok := s.invoicesByID[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if invoice.Status != domain.InvoiceStatusSent || invoice.ViewedAt != nil {
		return false, nil
	}
	viewedAt := at
	invoice.Status = domain.InvoiceStatusViewed
	invoice.ViewedAt = &viewedAt
	s.invoicesByID[id] = invoice
	return true, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if entityID != "" && entry.EntityID != entityID {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func (s *Store) quoteLocked(id string) (*domain.Quote, error) {
	quote, ok := s.quotesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	quote.QuoteDetails = maps.Clone(quote.QuoteDetails)
	return &quote, nil
}
