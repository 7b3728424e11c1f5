package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cart"
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
	"github.com/youngspiritsbartending/youngspirits.co/internal/service"
	"github.com/youngspiritsbartending/youngspirits.co/internal/store"
)

type API struct {
	service       *service.Service
	sessions      *cart.Sessions
	allowedOrigin string
	secureCookies bool
	contactLimit  *attemptLimiter
	linkLimit     *attemptLimiter
	csrfSecret    []byte
}

func New(svc *service.Service, sessions *cart.Sessions, allowedOrigin string, secureCookies bool) *API {
	if sessions == nil {
		sessions = cart.NewSessions(0, 0)
	}
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		service:       svc,
		sessions:      sessions,
		allowedOrigin: allowedOrigin,
		secureCookies: secureCookies,
		contactLimit:  newAttemptLimiter(5, time.Minute),
		linkLimit:     newAttemptLimiter(30, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (Unix time truncated to the hour).
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	bucket := time.Now().UTC().Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken accepts the current or previous hour bucket.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	currentBucket := time.Now().UTC().Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(currentBucket))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(prevBucket)))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/packages", a.handlePackages)
	mux.HandleFunc("/api/v1/addons", a.handleAddons)
	mux.HandleFunc("/api/v1/reviews", a.handleReviews)
	mux.HandleFunc("/api/v1/reference", a.handleReference)
	mux.HandleFunc("/api/v1/time/parse", a.handleParseTime)
	mux.HandleFunc("/api/v1/estimate/custom", a.handleCustomEstimate)

	mux.HandleFunc("/api/v1/cart", a.withCart(a.handleCart))
	mux.HandleFunc("/api/v1/cart/", a.withCart(a.handleCartActions))
	mux.HandleFunc("/api/v1/contact", a.withCart(a.handleContact))

	mux.HandleFunc("/api/v1/quotes/", a.handleQuoteActions)
	mux.HandleFunc("/api/v1/invoices/", a.handleInvoiceActions)

	return a.withMiddleware(mux)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"at":           time.Now().UTC().Format(time.RFC3339),
		"active_carts": a.sessions.Len(),
	})
}

// handleCSRFToken returns a stateless token for the X-CSRF-Token header of
// mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// checkCSRF enforces the CSRF token on state-changing methods.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return true
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) handlePackages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	packages, err := a.service.Packages(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": packages})
}

func (a *API) handleAddons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	addons, err := a.service.Addons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addons": addons})
}

func (a *API) handleReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	reviews, err := a.service.Reviews(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit := parsePositiveLimit(r.URL.Query().Get("limit"), len(reviews), 100)
	if limit < len(reviews) {
		reviews = reviews[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (a *API) handleReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.service.Reference())
}

func (a *API) handleParseTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	resp, err := a.service.ParseClock(r.URL.Query().Get("input"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCustomEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.CustomEstimateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.CustomEstimate(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, cart.MustFromContext(r.Context()).Snapshot())
}

func (a *API) handleCartActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/cart/"
	c := cart.MustFromContext(r.Context())
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	segments := strings.Split(tail, "/")

	switch {
	case tail == "package":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.SelectPackageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeCartResult(w)(a.service.SelectPackage(r.Context(), c, req.PackageID))

	case tail == "package/toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.SelectPackageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.PackageID == nil {
			writeError(w, http.StatusBadRequest, errors.New("package_id required"))
			return
		}
		writeCartResult(w)(a.service.TogglePackage(r.Context(), c, *req.PackageID))

	case tail == "addons":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.AddAddonRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeCartResult(w)(a.service.AddAddon(r.Context(), c, req.AddonID))

	case len(segments) == 3 && segments[0] == "addons" && segments[1] != "" && segments[2] == "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		writeCartResult(w)(a.service.ToggleAddon(r.Context(), c, segments[1]))

	case len(segments) == 2 && segments[0] == "addons":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w)
			return
		}
		if segments[1] == "" {
			writeError(w, http.StatusBadRequest, errors.New("addon id required"))
			return
		}
		writeJSON(w, http.StatusOK, a.service.RemoveAddon(c, segments[1]))

	case tail == "config":
		switch r.Method {
		case http.MethodPut:
			var req domain.ServiceConfiguration
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeCartResult(w)(a.service.ReplaceConfig(c, req))
		case http.MethodPatch:
			var req domain.ServiceConfigPatch
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			writeCartResult(w)(a.service.PatchConfig(c, req))
		default:
			writeMethodNotAllowed(w)
		}

	case tail == "clear":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, a.service.ClearCart(c))

	case tail == "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, a.service.ToggleCartView(c))

	case tail == "ui":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.CartUIRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, a.service.SetCartUI(c, req))

	default:
		writeError(w, http.StatusNotFound, errors.New("unknown cart action"))
	}
}

func (a *API) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.contactLimit.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many submissions, try again shortly"))
		return
	}

	var req domain.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.SubmitContact(r.Context(), cart.MustFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleQuoteActions(w http.ResponseWriter, r *http.Request) {
	if !a.linkLimit.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many requests"))
		return
	}

	token, action := splitTokenPath(r.URL.Path, "/api/v1/quotes/")
	if token == "" {
		writeError(w, http.StatusNotFound, errors.New("quote not found"))
		return
	}

	var (
		view domain.QuoteView
		err  error
	)
	switch {
	case action == "" && r.Method == http.MethodGet:
		view, err = a.service.GetQuote(r.Context(), token)
	case action == "accept" && r.Method == http.MethodPost:
		view, err = a.service.AcceptQuote(r.Context(), token)
	case action == "decline" && r.Method == http.MethodPost:
		view, err = a.service.DeclineQuote(r.Context(), token)
	case action == "" || action == "accept" || action == "decline":
		writeMethodNotAllowed(w)
		return
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown quote action"))
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	if !a.linkLimit.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many requests"))
		return
	}

	token, action := splitTokenPath(r.URL.Path, "/api/v1/invoices/")
	if token == "" {
		writeError(w, http.StatusNotFound, errors.New("invoice not found"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		view, err := a.service.GetInvoice(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case "pay":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		writeServiceError(w, a.service.PayInvoice(r.Context(), token))
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown invoice action"))
	}
}

// splitTokenPath splits "/prefix/{token}/{action}" into its parts.
func splitTokenPath(path string, prefix string) (string, string) {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	token, action, _ := strings.Cut(tail, "/")
	return strings.TrimSpace(token), strings.Trim(action, "/")
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		if a.allowedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// statusFor maps service and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPackageRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrQuoteExpired):
		return http.StatusGone
	case errors.Is(err, service.ErrQuoteClosed), errors.Is(err, service.ErrQuoteNotAccepted), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrPaymentUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusNotImplemented {
		writeJSON(w, status, map[string]any{"error": err.Error()})
		return
	}
	writeError(w, status, err)
}

func writeCartResult(w http.ResponseWriter) func(domain.CartView, error) {
	return func(view domain.CartView, err error) {
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log; 4xx messages are user-facing.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
