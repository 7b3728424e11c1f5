package httpapi

import (
	"net/http"

	"github.com/youngspiritsbartending/youngspirits.co/internal/cart"
)

const cartCookieName = "ys_cart"

// withCart resolves the visitor's cart from the session cookie and provides
// it to next through the request context. A new session cookie is issued
// when the presented one is missing or stale.
func (a *API) withCart(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented := ""
		if cookie, err := r.Cookie(cartCookieName); err == nil {
			presented = cookie.Value
		}

		sessionID, c := a.sessions.Acquire(presented)
		if sessionID != presented {
			http.SetCookie(w, &http.Cookie{
				Name:     cartCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   a.secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next(w, r.WithContext(cart.WithCart(r.Context(), c)))
	}
}
