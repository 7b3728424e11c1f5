package domain

import "time"

const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

type ServicePackage struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Tier         string    `json:"tier"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Features     []string  `json:"features"`
	Popular      bool      `json:"popular"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Addon struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Category     string    `json:"category"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Review struct {
	ID             string    `json:"id"`
	ReviewerName   string    `json:"reviewer_name"`
	ReviewText     string    `json:"review_text"`
	Rating         int       `json:"rating"`
	EventDate      string    `json:"event_date,omitempty"`
	EventType      string    `json:"event_type,omitempty"`
	PhotoURLs      []string  `json:"photo_urls"`
	Approved       bool      `json:"-"`
	SubmissionDate time.Time `json:"submission_date"`
}

const (
	DefaultStartTime = "17:00"
	DefaultEndTime   = "22:00"
)

// ServiceConfiguration holds the event-level parameters shared by the
// booking sections. Empty strings mean unset.
type ServiceConfiguration struct {
	EventDate  string `json:"event_date"`
	GuestCount string `json:"guest_count"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func DefaultServiceConfiguration() ServiceConfiguration {
	return ServiceConfiguration{
		StartTime: DefaultStartTime,
		EndTime:   DefaultEndTime,
	}
}

// ServiceConfigPatch carries a field-level edit. Nil fields keep the
// current value.
type ServiceConfigPatch struct {
	EventDate  *string `json:"event_date,omitempty"`
	GuestCount *string `json:"guest_count,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
}

// GuestCountBuckets are the ranges offered by the booking form.
var GuestCountBuckets = []string{"1-25", "25-75", "75-150", "150-300", "300-500", "500+"}

var EventTypes = []string{"wedding", "corporate", "birthday", "anniversary", "private", "other"}

type CartView struct {
	SelectedPackage *ServicePackage      `json:"selected_package"`
	SelectedAddons  []Addon              `json:"selected_addons"`
	ServiceConfig   ServiceConfiguration `json:"service_config"`
	IsCartExpanded  bool                 `json:"is_cart_expanded"`
	IsCartCollapsed bool                 `json:"is_cart_collapsed"`
	HasItems        bool                 `json:"has_items"`
	ItemCount       int                  `json:"item_count"`
	DurationHours   float64              `json:"duration_hours"`
	Multiplier      float64              `json:"multiplier"`
	Total           int64                `json:"total"`
}

type SelectPackageRequest struct {
	PackageID *string `json:"package_id"`
}

type AddAddonRequest struct {
	AddonID string `json:"addon_id"`
}

type CartUIRequest struct {
	Expanded  *bool `json:"expanded,omitempty"`
	Collapsed *bool `json:"collapsed,omitempty"`
}

type ContactRequest struct {
	Name                  string `json:"name" validate:"required,max=200"`
	Email                 string `json:"email" validate:"required,email,max=320"`
	Phone                 string `json:"phone" validate:"omitempty,max=40"`
	EventDate             string `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	EventType             string `json:"event_type" validate:"omitempty,oneof=wedding corporate birthday anniversary private other"`
	GuestCount            string `json:"guest_count" validate:"omitempty,max=20"`
	StartTime             string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime               string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Message               string `json:"message" validate:"omitempty,max=5000"`
	ProceedWithoutPackage bool   `json:"proceed_without_package"`
}

// ContactSubmission is the snapshot written to the submission sink.
type ContactSubmission struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	EventDate         string    `json:"event_date,omitempty"`
	EventType         string    `json:"event_type,omitempty"`
	GuestCount        string    `json:"guest_count,omitempty"`
	StartTime         string    `json:"start_time,omitempty"`
	EndTime           string    `json:"end_time,omitempty"`
	SelectedPackageID string    `json:"selected_package_id,omitempty"`
	SelectedAddons    []string  `json:"selected_addons"`
	Message           string    `json:"message,omitempty"`
	TotalEstimate     int64     `json:"total_estimate"`
	CreatedAt         time.Time `json:"created_at"`
}

type ContactResponse struct {
	SubmissionID  string   `json:"submission_id"`
	TotalEstimate int64    `json:"total_estimate"`
	Cart          CartView `json:"cart"`
}

const (
	QuoteStatusSent     = "sent"
	QuoteStatusViewed   = "viewed"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
)

type Quote struct {
	ID            string         `json:"id"`
	SubmissionID  string         `json:"submission_id"`
	QuoteNumber   string         `json:"quote_number"`
	QuoteAmount   int64          `json:"quote_amount"`
	QuoteDetails  map[string]any `json:"quote_details"`
	Status        string         `json:"status"`
	LinkTokenHash string         `json:"-"`
	SentAt        time.Time      `json:"sent_at"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	ViewedAt      *time.Time     `json:"viewed_at,omitempty"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
}

type QuoteSubmissionSummary struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	EventDate  string `json:"event_date,omitempty"`
	EventType  string `json:"event_type,omitempty"`
	GuestCount string `json:"guest_count,omitempty"`
}

type QuoteView struct {
	Quote      Quote                  `json:"quote"`
	Submission QuoteSubmissionSummary `json:"submission"`
	Expired    bool                   `json:"expired"`
	CanRespond bool                   `json:"can_respond"`
}

type IssueQuoteRequest struct {
	SubmissionID string         `json:"submission_id"`
	Amount       int64          `json:"amount"`
	Details      map[string]any `json:"details"`
	ValidDays    int            `json:"valid_days"`
}

type IssuedLink struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Token  string `json:"token"`
}

type Booking struct {
	ID            string    `json:"id"`
	QuoteID       string    `json:"quote_id"`
	BookingNumber string    `json:"booking_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	EventDate     string    `json:"event_date"`
	EventType     string    `json:"event_type,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	InvoiceTypeDeposit = "deposit"
	InvoiceTypeFinal   = "final"

	InvoiceStatusSent   = "sent"
	InvoiceStatusViewed = "viewed"
	InvoiceStatusPaid   = "paid"
)

type InvoiceLineItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type Invoice struct {
	ID            string            `json:"id"`
	BookingID     string            `json:"booking_id"`
	InvoiceNumber string            `json:"invoice_number"`
	InvoiceType   string            `json:"invoice_type"`
	Amount        int64             `json:"amount"`
	LineItems     []InvoiceLineItem `json:"line_items"`
	Status        string            `json:"status"`
	LinkTokenHash string            `json:"-"`
	SentAt        time.Time         `json:"sent_at"`
	DueDate       string            `json:"due_date"`
	ViewedAt      *time.Time        `json:"viewed_at,omitempty"`
}

type InvoiceBookingSummary struct {
	BookingNumber string `json:"booking_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	EventDate     string `json:"event_date"`
	EventType     string `json:"event_type,omitempty"`
}

type InvoiceView struct {
	Invoice Invoice               `json:"invoice"`
	Booking InvoiceBookingSummary `json:"booking"`
	IsPaid  bool                  `json:"is_paid"`
}

type IssueInvoiceRequest struct {
	QuoteID     string            `json:"quote_id"`
	InvoiceType string            `json:"invoice_type"`
	LineItems   []InvoiceLineItem `json:"line_items"`
	DueDate     string            `json:"due_date"`
}

type CustomEstimateRequest struct {
	GuestCount      int    `json:"guest_count"`
	Hours           int    `json:"hours"`
	Bartenders      int    `json:"bartenders"`
	CustomCocktails int    `json:"custom_cocktails"`
	PremiumSpirits  bool   `json:"premium_spirits"`
	BarSetup        string `json:"bar_setup"`
}

type CustomEstimateResponse struct {
	GuestCount         int   `json:"guest_count"`
	Hours              int   `json:"hours"`
	Bartenders         int   `json:"bartenders"`
	RequiredBartenders int   `json:"required_bartenders"`
	BasePrice          int64 `json:"base_price"`
	TimeCost           int64 `json:"time_cost"`
	CocktailCost       int64 `json:"cocktail_cost"`
	SpiritsCost        int64 `json:"spirits_cost"`
	SetupCost          int64 `json:"setup_cost"`
	Total              int64 `json:"total"`
}

type ClockParseResponse struct {
	Input   string `json:"input"`
	Value   string `json:"value"`
	Display string `json:"display"`
}

type ReferenceData struct {
	GuestCountBuckets []string `json:"guest_count_buckets"`
	EventTypes        []string `json:"event_types"`
	TimeOptions       []string `json:"time_options"`
	DefaultStartTime  string   `json:"default_start_time"`
	DefaultEndTime    string   `json:"default_end_time"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
