package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

func (s *Store) ListActivePackages(ctx context.Context) ([]domain.ServicePackage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, tier, description, price, features, popular, display_order, active, created_at, updated_at
		FROM service_packages
		WHERE active = true
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query packages")
	}
	defer rows.Close()

	packages := make([]domain.ServicePackage, 0, 8)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}
	return packages, errors.Wrap(rows.Err(), "iterate packages")
}

func (s *Store) GetPackage(ctx context.Context, id string) (*domain.ServicePackage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, tier, description, price, features, popular, display_order, active, created_at, updated_at
		FROM service_packages
		WHERE id = $1
	`, id)
	return scanPackage(row)
}

func (s *Store) ListActiveAddons(ctx context.Context) ([]domain.Addon, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, display_order, active, created_at, updated_at
		FROM addons
		WHERE active = true
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query addons")
	}
	defer rows.Close()

	addons := make([]domain.Addon, 0, 16)
	for rows.Next() {
		addon, err := scanAddon(rows)
		if err != nil {
			return nil, err
		}
		addons = append(addons, *addon)
	}
	return addons, errors.Wrap(rows.Err(), "iterate addons")
}

func (s *Store) GetAddon(ctx context.Context, id string) (*domain.Addon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, category, display_order, active, created_at, updated_at
		FROM addons
		WHERE id = $1
	`, id)
	return scanAddon(row)
}

func (s *Store) ListApprovedReviews(ctx context.Context) ([]domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reviewer_name, review_text, rating, event_date, event_type, photo_urls, approved, submission_date
		FROM reviews
		WHERE approved = true
		ORDER BY submission_date DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query reviews")
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0, 16)
	for rows.Next() {
		var (
			review    domain.Review
			photoURLs []byte
		)
		if err := rows.Scan(&review.ID, &review.ReviewerName, &review.ReviewText, &review.Rating, &review.EventDate, &review.EventType, &photoURLs, &review.Approved, &review.SubmissionDate); err != nil {
			return nil, errors.Wrap(err, "scan review")
		}
		if err := unmarshalJSON(photoURLs, &review.PhotoURLs); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, errors.Wrap(rows.Err(), "iterate reviews")
}

func (s *Store) CreateSubmission(ctx context.Context, submission domain.ContactSubmission) (*domain.ContactSubmission, error) {
	if submission.ID == "" || submission.Name == "" || submission.Email == "" {
		return nil, store.ErrInvalidInput
	}

	addons, err := marshalJSON(nonNil(submission.SelectedAddons))
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions (
			id, name, email, phone, event_date, event_type, guest_count, start_time, end_time,
			selected_package_id, selected_addons, message, total_estimate, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, submission.ID, submission.Name, submission.Email, submission.Phone, submission.EventDate, submission.EventType,
		submission.GuestCount, submission.StartTime, submission.EndTime, submission.SelectedPackageID, addons,
		submission.Message, submission.TotalEstimate, submission.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err, "insert submission")
	}

	created := submission
	return &created, nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*domain.ContactSubmission, error) {
	var (
		submission domain.ContactSubmission
		addons     []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, event_date, event_type, guest_count, start_time, end_time,
			selected_package_id, selected_addons, message, total_estimate, created_at
		FROM contact_submissions
		WHERE id = $1
	`, id).Scan(&submission.ID, &submission.Name, &submission.Email, &submission.Phone, &submission.EventDate,
		&submission.EventType, &submission.GuestCount, &submission.StartTime, &submission.EndTime,
		&submission.SelectedPackageID, &addons, &submission.Message, &submission.TotalEstimate, &submission.CreatedAt)
	if err != nil {
		return nil, mapReadError(err, "select submission")
	}
	if err := unmarshalJSON(addons, &submission.SelectedAddons); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *Store) CreateQuote(ctx context.Context, quote domain.Quote) (*domain.Quote, error) {
	if quote.ID == "" || quote.SubmissionID == "" || quote.LinkTokenHash == "" || quote.QuoteAmount < 0 {
		return nil, store.ErrInvalidInput
	}

	details, err := marshalJSON(nonNilMap(quote.QuoteDetails))
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			id, submission_id, quote_number, quote_amount, quote_details, status,
			link_token_hash, sent_at, expires_at, viewed_at, responded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, quote.ID, quote.SubmissionID, quote.QuoteNumber, quote.QuoteAmount, details, quote.Status,
		quote.LinkTokenHash, quote.SentAt, nullTime(quote.ExpiresAt), nullTime(quote.ViewedAt), nullTime(quote.RespondedAt))
	if err != nil {
		return nil, mapWriteError(err, "insert quote")
	}

	created := quote
	return &created, nil
}

const quoteColumns = `id, submission_id, quote_number, quote_amount, quote_details, status,
	link_token_hash, sent_at, expires_at, viewed_at, responded_at`

func (s *Store) GetQuoteByID(ctx context.Context, id string) (*domain.Quote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	return scanQuote(row)
}

func (s *Store) GetQuoteByTokenHash(ctx context.Context, tokenHash string) (*domain.Quote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE link_token_hash = $1`, tokenHash)
	return scanQuote(row)
}

func (s *Store) MarkQuoteViewed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE quotes
		SET status = $2, viewed_at = $3
		WHERE id = $1 AND status = $4 AND viewed_at IS NULL
	`, id, domain.QuoteStatusViewed, at, domain.QuoteStatusSent)
	if err != nil {
		return false, errors.Wrap(err, "mark quote viewed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "mark quote viewed")
	}
	if affected > 0 {
		return true, nil
	}
	if _, err := s.GetQuoteByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) RespondToQuote(ctx context.Context, id string, status string, at time.Time) (*domain.Quote, error) {
	if status != domain.QuoteStatusAccepted && status != domain.QuoteStatusDeclined {
		return nil, store.ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE quotes
		SET status = $2, responded_at = $3
		WHERE id = $1 AND status IN ($4, $5)
		RETURNING `+quoteColumns,
		id, status, at, domain.QuoteStatusSent, domain.QuoteStatusViewed)
	quote, err := scanQuote(row)
	if errors.Is(err, store.ErrNotFound) {
		if _, lookupErr := s.GetQuoteByID(ctx, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, store.ErrConflict
	}
	return quote, err
}

const bookingColumns = `id, quote_id, booking_number, customer_name, customer_email, event_date, event_type, created_at`

func (s *Store) GetBookingByQuote(ctx context.Context, quoteID string) (*domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE quote_id = $1`, quoteID)
	return scanBooking(row)
}

func (s *Store) GetBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) (*domain.Booking, error) {
	if booking.ID == "" || booking.QuoteID == "" || booking.BookingNumber == "" {
		return nil, store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, booking.ID, booking.QuoteID, booking.BookingNumber, booking.CustomerName, booking.CustomerEmail,
		booking.EventDate, booking.EventType, booking.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err, "insert booking")
	}

	created := booking
	return &created, nil
}

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if invoice.ID == "" || invoice.BookingID == "" || invoice.LinkTokenHash == "" || invoice.Amount < 0 {
		return nil, store.ErrInvalidInput
	}

	lineItems, err := marshalJSON(nonNil(invoice.LineItems))
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (
			id, booking_id, invoice_number, invoice_type, amount, line_items, status,
			link_token_hash, sent_at, due_date, viewed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, invoice.ID, invoice.BookingID, invoice.InvoiceNumber, invoice.InvoiceType, invoice.Amount, lineItems,
		invoice.Status, invoice.LinkTokenHash, invoice.SentAt, invoice.DueDate, nullTime(invoice.ViewedAt))
	if err != nil {
		return nil, mapWriteError(err, "insert invoice")
	}

	created := invoice
	return &created, nil
}

func (s *Store) GetInvoiceByTokenHash(ctx context.Context, tokenHash string) (*domain.Invoice, error) {
	var (
		invoice   domain.Invoice
		lineItems []byte
		viewedAt  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, booking_id, invoice_number, invoice_type, amount, line_items, status,
			link_token_hash, sent_at, due_date, viewed_at
		FROM invoices
		WHERE link_token_hash = $1
	`, tokenHash).Scan(&invoice.ID, &invoice.BookingID, &invoice.InvoiceNumber, &invoice.InvoiceType, &invoice.Amount,
		&lineItems, &invoice.Status, &invoice.LinkTokenHash, &invoice.SentAt, &invoice.DueDate, &viewedAt)
	if err != nil {
		return nil, mapReadError(err, "select invoice")
	}
	if err := unmarshalJSON(lineItems, &invoice.LineItems); err != nil {
		return nil, err
	}
	invoice.ViewedAt = timePtr(viewedAt)
	return &invoice, nil
}

func (s *Store) MarkInvoiceViewed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = $2, viewed_at = $3
		WHERE id = $1 AND status = $4 AND viewed_at IS NULL
	`, id, domain.InvoiceStatusViewed, at, domain.InvoiceStatusSent)
	if err != nil {
		return false, errors.Wrap(err, "mark invoice viewed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "mark invoice viewed")
	}
	if affected > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "lookup invoice")
	}
	if !exists {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return errors.Wrap(err, "insert audit log")
}

func (s *Store) ListAuditLogs(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR entity_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query audit logs")
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan audit log")
		}
		logs = append(logs, entry)
	}
	return logs, errors.Wrap(rows.Err(), "iterate audit logs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*domain.ServicePackage, error) {
	var (
		pkg      domain.ServicePackage
		features []byte
	)
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Tier, &pkg.Description, &pkg.Price, &features, &pkg.Popular,
		&pkg.DisplayOrder, &pkg.Active, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
		return nil, mapReadError(err, "scan package")
	}
	if err := unmarshalJSON(features, &pkg.Features); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func scanAddon(row rowScanner) (*domain.Addon, error) {
	var addon domain.Addon
	if err := row.Scan(&addon.ID, &addon.Name, &addon.Description, &addon.Price, &addon.Category,
		&addon.DisplayOrder, &addon.Active, &addon.CreatedAt, &addon.UpdatedAt); err != nil {
		return nil, mapReadError(err, "scan addon")
	}
	return &addon, nil
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var (
		quote                            domain.Quote
		details                          []byte
		expiresAt, viewedAt, respondedAt sql.NullTime
	)
	if err := row.Scan(&quote.ID, &quote.SubmissionID, &quote.QuoteNumber, &quote.QuoteAmount, &details, &quote.Status,
		&quote.LinkTokenHash, &quote.SentAt, &expiresAt, &viewedAt, &respondedAt); err != nil {
		return nil, mapReadError(err, "scan quote")
	}
	if err := unmarshalJSON(details, &quote.QuoteDetails); err != nil {
		return nil, err
	}
	quote.ExpiresAt = timePtr(expiresAt)
	quote.ViewedAt = timePtr(viewedAt)
	quote.RespondedAt = timePtr(respondedAt)
	return &quote, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	if err := row.Scan(&booking.ID, &booking.QuoteID, &booking.BookingNumber, &booking.CustomerName,
		&booking.CustomerEmail, &booking.EventDate, &booking.EventType, &booking.CreatedAt); err != nil {
		return nil, mapReadError(err, "scan booking")
	}
	return &booking, nil
}

func mapReadError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return errors.Wrap(err, op)
}

func mapWriteError(err error, op string) error {
	switch {
	case isUniqueViolation(err):
		return store.ErrConflict
	case isForeignKeyViolation(err):
		return store.ErrNotFound
	default:
		return errors.Wrap(err, op)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func marshalJSON(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "encode json column")
	}
	return string(raw), nil
}

func unmarshalJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, dest), "decode json column")
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func nonNilMap(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}
