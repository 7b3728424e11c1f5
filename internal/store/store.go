package store

import (
	"context"
	"errors"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

type Repository interface {
	ListActivePackages(ctx context.Context) ([]domain.ServicePackage, error)
	GetPackage(ctx context.Context, id string) (*domain.ServicePackage, error)
	ListActiveAddons(ctx context.Context) ([]domain.Addon, error)
	GetAddon(ctx context.Context, id string) (*domain.Addon, error)
	ListApprovedReviews(ctx context.Context) ([]domain.Review, error)

	CreateSubmission(ctx context.Context, submission domain.ContactSubmission) (*domain.ContactSubmission, error)
	GetSubmission(ctx context.Context, id string) (*domain.ContactSubmission, error)

	CreateQuote(ctx context.Context, quote domain.Quote) (*domain.Quote, error)
	GetQuoteByID(ctx context.Context, id string) (*domain.Quote, error)
	GetQuoteByTokenHash(ctx context.Context, tokenHash string) (*domain.Quote, error)
	// MarkQuoteViewed moves a sent, never-viewed quote to viewed. It reports
	// false when the quote was already past that point.
	MarkQuoteViewed(ctx context.Context, id string, at time.Time) (bool, error)
	// RespondToQuote sets the final status only while the quote is still
	// sent or viewed; otherwise it returns ErrConflict.
	RespondToQuote(ctx context.Context, id string, status string, at time.Time) (*domain.Quote, error)

	GetBookingByQuote(ctx context.Context, quoteID string) (*domain.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*domain.Booking, error)
	CreateBooking(ctx context.Context, booking domain.Booking) (*domain.Booking, error)

	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	GetInvoiceByTokenHash(ctx context.Context, tokenHash string) (*domain.Invoice, error)
	MarkInvoiceViewed(ctx context.Context, id string, at time.Time) (bool, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error)
}
