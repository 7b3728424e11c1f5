package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cart"
	"github.com/youngspiritsbartending/youngspirits.co/internal/catalog"
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/estimate"
	"github.com/youngspiritsbartending/youngspirits.co/internal/linktoken"
	"github.com/youngspiritsbartending/youngspirits.co/internal/schedule"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
	"github.com/youngspiritsbartending/youngspirits.co/internal/xid"
)

var (
	ErrPackageRequired    = errors.New("select a package or confirm proceeding with add-ons only")
	ErrQuoteExpired       = errors.New("quote has expired")
	ErrQuoteClosed        = errors.New("quote has already been responded to")
	ErrQuoteNotAccepted   = errors.New("quote has not been accepted")
	ErrPaymentUnavailable = errors.New("online payment coming soon")
)

const (
	defaultQuoteValidDays = 30
	maxGuestCountLength   = 20
)

type Service struct {
	repo     store.Repository
	catalog  *catalog.Catalog
	signer   *linktoken.Signer
	validate *validator.Validate
	now      func() time.Time
}

func New(repo store.Repository, cat *catalog.Catalog, signer *linktoken.Signer) *Service {
	if cat == nil {
		cat = catalog.New(repo, nil, 0)
	}
	if signer == nil {
		signer = linktoken.NewSigner("")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		repo:     repo,
		catalog:  cat,
		signer:   signer,
		validate: validate,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Packages(ctx context.Context) ([]domain.ServicePackage, error) {
	return s.catalog.Packages(ctx)
}

func (s *Service) Addons(ctx context.Context) ([]domain.Addon, error) {
	return s.catalog.Addons(ctx)
}

func (s *Service) Reviews(ctx context.Context) ([]domain.Review, error) {
	return s.catalog.Reviews(ctx)
}

func (s *Service) Reference() domain.ReferenceData {
	return domain.ReferenceData{
		GuestCountBuckets: append([]string(nil), domain.GuestCountBuckets...),
		EventTypes:        append([]string(nil), domain.EventTypes...),
		TimeOptions:       schedule.ClockOptions(),
		DefaultStartTime:  domain.DefaultStartTime,
		DefaultEndTime:    domain.DefaultEndTime,
	}
}

func (s *Service) ParseClock(input string) (domain.ClockParseResponse, error) {
	value, err := schedule.ParseClock(input)
	if err != nil {
		return domain.ClockParseResponse{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return domain.ClockParseResponse{
		Input:   input,
		Value:   value,
		Display: schedule.FormatClock(value),
	}, nil
}

func (s *Service) CustomEstimate(req domain.CustomEstimateRequest) (domain.CustomEstimateResponse, error) {
	if req.BarSetup == "" {
		req.BarSetup = estimate.SetupStandard
	}
	switch req.BarSetup {
	case estimate.SetupStandard, estimate.SetupPremium, estimate.SetupLuxury:
	default:
		return domain.CustomEstimateResponse{}, store.ErrInvalidInput
	}
	return estimate.Custom(req), nil
}

// SelectPackage replaces the selected package. A nil or empty id clears it.
func (s *Service) SelectPackage(ctx context.Context, c *cart.Cart, packageID *string) (domain.CartView, error) {
	if packageID == nil || strings.TrimSpace(*packageID) == "" {
		c.SetSelectedPackage(nil)
		s.settle(c)
		return c.Snapshot(), nil
	}

	pkg, err := s.catalog.Package(ctx, strings.TrimSpace(*packageID))
	if err != nil {
		return domain.CartView{}, err
	}
	c.SetSelectedPackage(pkg)
	return c.Snapshot(), nil
}

// TogglePackage selects the package, or deselects it when it is already the
// selection.
func (s *Service) TogglePackage(ctx context.Context, c *cart.Cart, packageID string) (domain.CartView, error) {
	packageID = strings.TrimSpace(packageID)
	if packageID == "" {
		return domain.CartView{}, store.ErrInvalidInput
	}

	if current := c.SelectedPackage(); current != nil && current.ID == packageID {
		c.SetSelectedPackage(nil)
		s.settle(c)
		return c.Snapshot(), nil
	}
	return s.SelectPackage(ctx, c, &packageID)
}

func (s *Service) AddAddon(ctx context.Context, c *cart.Cart, addonID string) (domain.CartView, error) {
	addonID = strings.TrimSpace(addonID)
	if addonID == "" {
		return domain.CartView{}, store.ErrInvalidInput
	}

	addon, err := s.catalog.Addon(ctx, addonID)
	if err != nil {
		return domain.CartView{}, err
	}
	c.AddAddon(*addon)
	return c.Snapshot(), nil
}

func (s *Service) ToggleAddon(ctx context.Context, c *cart.Cart, addonID string) (domain.CartView, error) {
	addonID = strings.TrimSpace(addonID)
	if c.HasAddon(addonID) {
		return s.RemoveAddon(c, addonID), nil
	}
	return s.AddAddon(ctx, c, addonID)
}

func (s *Service) RemoveAddon(c *cart.Cart, addonID string) domain.CartView {
	c.RemoveAddon(strings.TrimSpace(addonID))
	s.settle(c)
	return c.Snapshot()
}

// ReplaceConfig validates and stores a full service configuration.
func (s *Service) ReplaceConfig(c *cart.Cart, cfg domain.ServiceConfiguration) (domain.CartView, error) {
	cfg = normalizeConfig(cfg)
	if err := validateConfig(cfg); err != nil {
		return domain.CartView{}, err
	}
	c.SetServiceConfig(cfg)
	return c.Snapshot(), nil
}

// PatchConfig merges the provided fields over the current configuration
// before replacing it.
func (s *Service) PatchConfig(c *cart.Cart, patch domain.ServiceConfigPatch) (domain.CartView, error) {
	merged := c.ServiceConfig()
	if patch.EventDate != nil {
		merged.EventDate = *patch.EventDate
	}
	if patch.GuestCount != nil {
		merged.GuestCount = *patch.GuestCount
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	return s.ReplaceConfig(c, merged)
}

func (s *Service) ClearCart(c *cart.Cart) domain.CartView {
	c.Clear()
	s.settle(c)
	return c.Snapshot()
}

func (s *Service) ToggleCartView(c *cart.Cart) domain.CartView {
	c.ToggleCart()
	return c.Snapshot()
}

func (s *Service) SetCartUI(c *cart.Cart, req domain.CartUIRequest) domain.CartView {
	if req.Expanded != nil {
		c.SetCartExpanded(*req.Expanded)
	}
	if req.Collapsed != nil {
		c.SetCartCollapsed(*req.Collapsed)
	}
	return c.Snapshot()
}

// settle closes the cart panel once nothing is left in it.
func (s *Service) settle(c *cart.Cart) {
	if c.HasItems() {
		return
	}
	c.SetCartExpanded(false)
	c.SetCartCollapsed(false)
}

// SubmitContact records a quote request with a snapshot of the cart. The
// submitted items leave the cart only after the submission is stored; items
// selected in the meantime stay.
func (s *Service) SubmitContact(ctx context.Context, c *cart.Cart, req domain.ContactRequest) (domain.ContactResponse, error) {
	view := c.Snapshot()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)
	if req.EventDate == "" {
		req.EventDate = view.ServiceConfig.EventDate
	}
	if req.GuestCount == "" {
		req.GuestCount = view.ServiceConfig.GuestCount
	}
	if req.StartTime == "" {
		req.StartTime = view.ServiceConfig.StartTime
	}
	if req.EndTime == "" {
		req.EndTime = view.ServiceConfig.EndTime
	}

	if err := s.validate.Struct(req); err != nil {
		return domain.ContactResponse{}, describeValidation(err)
	}
	if view.SelectedPackage == nil && len(view.SelectedAddons) > 0 && !req.ProceedWithoutPackage {
		return domain.ContactResponse{}, ErrPackageRequired
	}

	addonIDs := make([]string, 0, len(view.SelectedAddons))
	for _, addon := range view.SelectedAddons {
		addonIDs = append(addonIDs, addon.ID)
	}
	submission := domain.ContactSubmission{
		ID:             xid.New("sub"),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		EventDate:      req.EventDate,
		EventType:      req.EventType,
		GuestCount:     req.GuestCount,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		SelectedAddons: addonIDs,
		Message:        req.Message,
		TotalEstimate:  view.Total,
		CreatedAt:      s.now(),
	}
	if view.SelectedPackage != nil {
		submission.SelectedPackageID = view.SelectedPackage.ID
	}

	created, err := s.repo.CreateSubmission(ctx, submission)
	if err != nil {
		return domain.ContactResponse{}, err
	}

	c.RemoveSubmitted(submission.SelectedPackageID, addonIDs)
	s.settle(c)

	s.logAudit(ctx, "contact_submit", "submission", created.ID, fmt.Sprintf("package=%s,addons=%d,total=%d", created.SelectedPackageID, len(created.SelectedAddons), created.TotalEstimate))

	return domain.ContactResponse{
		SubmissionID:  created.ID,
		TotalEstimate: created.TotalEstimate,
		Cart:          c.Snapshot(),
	}, nil
}

// IssueQuote creates a quote for a submission and returns its link token.
// The token is not recoverable afterwards.
func (s *Service) IssueQuote(ctx context.Context, req domain.IssueQuoteRequest) (domain.IssuedLink, error) {
	req.SubmissionID = strings.TrimSpace(req.SubmissionID)
	if req.SubmissionID == "" || req.Amount < 0 || req.ValidDays < 0 {
		return domain.IssuedLink{}, store.ErrInvalidInput
	}
	if req.ValidDays == 0 {
		req.ValidDays = defaultQuoteValidDays
	}
	if _, err := s.repo.GetSubmission(ctx, req.SubmissionID); err != nil {
		return domain.IssuedLink{}, err
	}

	now := s.now()
	id := xid.New("quote")
	token, digest, err := s.signer.Issue(linktoken.KindQuote, id)
	if err != nil {
		return domain.IssuedLink{}, err
	}
	expiresAt := now.AddDate(0, 0, req.ValidDays)

	created, err := s.repo.CreateQuote(ctx, domain.Quote{
		ID:            id,
		SubmissionID:  req.SubmissionID,
		QuoteNumber:   xid.Number("Q", now),
		QuoteAmount:   req.Amount,
		QuoteDetails:  req.Details,
		Status:        domain.QuoteStatusSent,
		LinkTokenHash: digest,
		SentAt:        now,
		ExpiresAt:     &expiresAt,
	})
	if err != nil {
		return domain.IssuedLink{}, err
	}

	s.logAudit(ctx, "quote_issue", "quote", created.ID, fmt.Sprintf("submission=%s,amount=%d,valid_days=%d", created.SubmissionID, created.QuoteAmount, req.ValidDays))
	return domain.IssuedLink{ID: created.ID, Number: created.QuoteNumber, Token: token}, nil
}

// GetQuote opens a quote by link token. The first view of a sent quote marks
// it viewed.
func (s *Service) GetQuote(ctx context.Context, token string) (domain.QuoteView, error) {
	quote, err := s.resolveQuote(ctx, token)
	if err != nil {
		return domain.QuoteView{}, err
	}

	if quote.Status == domain.QuoteStatusSent {
		marked, err := s.repo.MarkQuoteViewed(ctx, quote.ID, s.now())
		if err != nil {
			return domain.QuoteView{}, err
		}
		if marked {
			s.logAudit(ctx, "quote_view", "quote", quote.ID, "first view")
			if quote, err = s.repo.GetQuoteByID(ctx, quote.ID); err != nil {
				return domain.QuoteView{}, err
			}
		}
	}

	return s.quoteView(ctx, quote)
}

func (s *Service) AcceptQuote(ctx context.Context, token string) (domain.QuoteView, error) {
	return s.respondToQuote(ctx, token, domain.QuoteStatusAccepted)
}

func (s *Service) DeclineQuote(ctx context.Context, token string) (domain.QuoteView, error) {
	return s.respondToQuote(ctx, token, domain.QuoteStatusDeclined)
}

func (s *Service) respondToQuote(ctx context.Context, token string, status string) (domain.QuoteView, error) {
	quote, err := s.resolveQuote(ctx, token)
	if err != nil {
		return domain.QuoteView{}, err
	}
	if !quoteOpen(quote) {
		return domain.QuoteView{}, ErrQuoteClosed
	}
	if s.quoteExpired(quote) {
		return domain.QuoteView{}, ErrQuoteExpired
	}

	updated, err := s.repo.RespondToQuote(ctx, quote.ID, status, s.now())
	if errors.Is(err, store.ErrConflict) {
		return domain.QuoteView{}, ErrQuoteClosed
	}
	if err != nil {
		return domain.QuoteView{}, err
	}

	s.logAudit(ctx, "quote_"+status, "quote", updated.ID, fmt.Sprintf("amount=%d", updated.QuoteAmount))
	return s.quoteView(ctx, updated)
}

func (s *Service) resolveQuote(ctx context.Context, token string) (*domain.Quote, error) {
	id, err := s.signer.Verify(linktoken.KindQuote, strings.TrimSpace(token))
	if err != nil {
		return nil, store.ErrNotFound
	}
	quote, err := s.repo.GetQuoteByTokenHash(ctx, linktoken.Digest(strings.TrimSpace(token)))
	if err != nil {
		return nil, err
	}
	if quote.ID != id {
		return nil, store.ErrNotFound
	}
	return quote, nil
}

func (s *Service) quoteView(ctx context.Context, quote *domain.Quote) (domain.QuoteView, error) {
	submission, err := s.repo.GetSubmission(ctx, quote.SubmissionID)
	if err != nil {
		return domain.QuoteView{}, err
	}

	expired := s.quoteExpired(quote)
	return domain.QuoteView{
		Quote: *quote,
		Submission: domain.QuoteSubmissionSummary{
			Name:       submission.Name,
			Email:      submission.Email,
			EventDate:  submission.EventDate,
			EventType:  submission.EventType,
			GuestCount: submission.GuestCount,
		},
		Expired:    expired,
		CanRespond: quoteOpen(quote) && !expired,
	}, nil
}

func (s *Service) quoteExpired(quote *domain.Quote) bool {
	return quote.ExpiresAt != nil && s.now().After(*quote.ExpiresAt)
}

func quoteOpen(quote *domain.Quote) bool {
	return quote.Status == domain.QuoteStatusSent || quote.Status == domain.QuoteStatusViewed
}

// IssueInvoice bills an accepted quote. The booking for the quote is created
// on the first invoice and reused afterwards.
func (s *Service) IssueInvoice(ctx context.Context, req domain.IssueInvoiceRequest) (domain.IssuedLink, error) {
	req.QuoteID = strings.TrimSpace(req.QuoteID)
	req.InvoiceType = strings.ToLower(strings.TrimSpace(req.InvoiceType))
	if req.QuoteID == "" || len(req.LineItems) == 0 {
		return domain.IssuedLink{}, store.ErrInvalidInput
	}
	if req.InvoiceType != domain.InvoiceTypeDeposit && req.InvoiceType != domain.InvoiceTypeFinal {
		return domain.IssuedLink{}, store.ErrInvalidInput
	}
	if due, err := schedule.ParseEventDate(req.DueDate); err != nil || due.IsZero() {
		return domain.IssuedLink{}, store.ErrInvalidInput
	}

	var amount int64
	for _, item := range req.LineItems {
		if strings.TrimSpace(item.Description) == "" || item.Amount < 0 {
			return domain.IssuedLink{}, store.ErrInvalidInput
		}
		amount += item.Amount
	}

	quote, err := s.repo.GetQuoteByID(ctx, req.QuoteID)
	if err != nil {
		return domain.IssuedLink{}, err
	}
	if quote.Status != domain.QuoteStatusAccepted {
		return domain.IssuedLink{}, ErrQuoteNotAccepted
	}

	booking, err := s.ensureBooking(ctx, quote)
	if err != nil {
		return domain.IssuedLink{}, err
	}

	now := s.now()
	id := xid.New("inv")
	token, digest, err := s.signer.Issue(linktoken.KindInvoice, id)
	if err != nil {
		return domain.IssuedLink{}, err
	}

	created, err := s.repo.CreateInvoice(ctx, domain.Invoice{
		ID:            id,
		BookingID:     booking.ID,
		InvoiceNumber: xid.Number("INV", now),
		InvoiceType:   req.InvoiceType,
		Amount:        amount,
		LineItems:     req.LineItems,
		Status:        domain.InvoiceStatusSent,
		LinkTokenHash: digest,
		SentAt:        now,
		DueDate:       req.DueDate,
	})
	if err != nil {
		return domain.IssuedLink{}, err
	}

	s.logAudit(ctx, "invoice_issue", "invoice", created.ID, fmt.Sprintf("booking=%s,type=%s,amount=%d", booking.BookingNumber, created.InvoiceType, created.Amount))
	return domain.IssuedLink{ID: created.ID, Number: created.InvoiceNumber, Token: token}, nil
}

func (s *Service) ensureBooking(ctx context.Context, quote *domain.Quote) (*domain.Booking, error) {
	booking, err := s.repo.GetBookingByQuote(ctx, quote.ID)
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	submission, err := s.repo.GetSubmission(ctx, quote.SubmissionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking, err = s.repo.CreateBooking(ctx, domain.Booking{
		ID:            xid.New("booking"),
		QuoteID:       quote.ID,
		BookingNumber: xid.Number("B", now),
		CustomerName:  submission.Name,
		CustomerEmail: submission.Email,
		EventDate:     submission.EventDate,
		EventType:     submission.EventType,
		CreatedAt:     now,
	})
	if errors.Is(err, store.ErrConflict) {
		return s.repo.GetBookingByQuote(ctx, quote.ID)
	}
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "booking_create", "booking", booking.ID, fmt.Sprintf("quote=%s", quote.ID))
	return booking, nil
}

// GetInvoice opens an invoice by link token. The first view of a sent
// invoice marks it viewed.
func (s *Service) GetInvoice(ctx context.Context, token string) (domain.InvoiceView, error) {
	invoice, err := s.resolveInvoice(ctx, token)
	if err != nil {
		return domain.InvoiceView{}, err
	}

	if invoice.Status == domain.InvoiceStatusSent {
		marked, err := s.repo.MarkInvoiceViewed(ctx, invoice.ID, s.now())
		if err != nil {
			return domain.InvoiceView{}, err
		}
		if marked {
			s.logAudit(ctx, "invoice_view", "invoice", invoice.ID, "first view")
			if invoice, err = s.resolveInvoice(ctx, token); err != nil {
				return domain.InvoiceView{}, err
			}
		}
	}

	booking, err := s.repo.GetBookingByID(ctx, invoice.BookingID)
	if err != nil {
		return domain.InvoiceView{}, err
	}

	return domain.InvoiceView{
		Invoice: *invoice,
		Booking: domain.InvoiceBookingSummary{
			BookingNumber: booking.BookingNumber,
			CustomerName:  booking.CustomerName,
			CustomerEmail: booking.CustomerEmail,
			EventDate:     booking.EventDate,
			EventType:     booking.EventType,
		},
		IsPaid: invoice.Status == domain.InvoiceStatusPaid,
	}, nil
}

// PayInvoice resolves the invoice so unknown links still report not found,
// then refuses: online payment is not offered.
func (s *Service) PayInvoice(ctx context.Context, token string) error {
	if _, err := s.resolveInvoice(ctx, token); err != nil {
		return err
	}
	return ErrPaymentUnavailable
}

func (s *Service) resolveInvoice(ctx context.Context, token string) (*domain.Invoice, error) {
	token = strings.TrimSpace(token)
	id, err := s.signer.Verify(linktoken.KindInvoice, token)
	if err != nil {
		return nil, store.ErrNotFound
	}
	invoice, err := s.repo.GetInvoiceByTokenHash(ctx, linktoken.Digest(token))
	if err != nil {
		return nil, err
	}
	if invoice.ID != id {
		return nil, store.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) AuditTrail(ctx context.Context, entityType string, entityID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListAuditLogs(ctx, strings.TrimSpace(entityType), strings.TrimSpace(entityID), limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}

func normalizeConfig(cfg domain.ServiceConfiguration) domain.ServiceConfiguration {
	cfg.EventDate = strings.TrimSpace(cfg.EventDate)
	cfg.GuestCount = strings.TrimSpace(cfg.GuestCount)
	cfg.StartTime = strings.TrimSpace(cfg.StartTime)
	cfg.EndTime = strings.TrimSpace(cfg.EndTime)
	return cfg
}

func validateConfig(cfg domain.ServiceConfiguration) error {
	if _, err := schedule.ParseEventDate(cfg.EventDate); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	if len(cfg.GuestCount) > maxGuestCountLength {
		return fmt.Errorf("%w: guest_count too long", store.ErrInvalidInput)
	}
	if cfg.StartTime != "" && !schedule.ValidClock(cfg.StartTime) {
		return fmt.Errorf("%w: start_time must be HH:MM", store.ErrInvalidInput)
	}
	if cfg.EndTime != "" && !schedule.ValidClock(cfg.EndTime) {
		return fmt.Errorf("%w: end_time must be HH:MM", store.ErrInvalidInput)
	}
	return nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, strings.Join(fields, ", "))
}
